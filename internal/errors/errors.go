package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sitesmith/ai-gateway/internal/logger"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeConfiguration    ErrorType = "configuration_error"
	ErrorTypeFeatureDisabled  ErrorType = "feature_disabled"
	ErrorTypeOriginRejected   ErrorType = "origin_rejected"
	ErrorTypeRateLimit        ErrorType = "rate_limit_exceeded"
	ErrorTypeValidation       ErrorType = "validation_error"
	ErrorTypeStreamTimeout    ErrorType = "stream_timeout"
	ErrorTypeStreamTooLarge   ErrorType = "stream_too_large"
	ErrorTypeProvider         ErrorType = "provider_error"
	ErrorTypeClientDisconnect ErrorType = "client_disconnected"
	ErrorTypeInternal         ErrorType = "internal_error"
)

// APIError represents a structured API error
type APIError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// ErrorResponse represents the JSON error response format
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// NewAPIError creates a new APIError
func NewAPIError(errorType ErrorType, message string) *APIError {
	return &APIError{
		Type:    errorType,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(errorType ErrorType, message, details string) *APIError {
	return &APIError{
		Type:    errorType,
		Message: message,
		Details: details,
	}
}

// HandleError writes a standardized error response to the HTTP response writer
func HandleError(w http.ResponseWriter, err error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	var apiError *APIError
	if ae, ok := err.(*APIError); ok {
		apiError = ae
	} else {
		apiError = inferErrorType(err, statusCode)
	}

	response := ErrorResponse{Error: *apiError}

	if jsonBytes, jsonErr := json.Marshal(response); jsonErr == nil {
		w.Write(jsonBytes)
	} else {
		logger.Error(context.Background(), "Error marshaling error response", jsonErr)
		w.Write([]byte(`{"error":{"type":"internal_error","message":"Internal server error"}}`))
	}

	logger.Warn(context.Background(), "API error response",
		"status_code", statusCode,
		"error_type", string(apiError.Type),
		"message", apiError.Message,
	)
}

// inferErrorType maps a plain error to an APIError based on the status code
func inferErrorType(err error, statusCode int) *APIError {
	message := err.Error()

	switch statusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return NewAPIError(ErrorTypeValidation, message)
	case http.StatusForbidden:
		return NewAPIError(ErrorTypeFeatureDisabled, message)
	case http.StatusTooManyRequests:
		return NewAPIError(ErrorTypeRateLimit, message)
	case http.StatusServiceUnavailable:
		return NewAPIError(ErrorTypeConfiguration, message)
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return NewAPIError(ErrorTypeProvider, message)
	default:
		return NewAPIError(ErrorTypeInternal, message)
	}
}

// Common error constructors

// NewConfigurationError creates a configuration error (no provider credentials)
func NewConfigurationError(message string) *APIError {
	return NewAPIError(ErrorTypeConfiguration, message)
}

// NewFeatureDisabledError creates an error for an administratively disabled capability
func NewFeatureDisabledError(message string) *APIError {
	return NewAPIError(ErrorTypeFeatureDisabled, message)
}

// NewOriginRejectedError creates an error for a failed origin check
func NewOriginRejectedError(message string) *APIError {
	return NewAPIError(ErrorTypeOriginRejected, message)
}

// NewRateLimitError creates a rate limit exceeded error
func NewRateLimitError(message string) *APIError {
	return NewAPIError(ErrorTypeRateLimit, message)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *APIError {
	return NewAPIError(ErrorTypeValidation, message)
}

// NewProviderError creates an upstream provider error
func NewProviderError(message string) *APIError {
	return NewAPIError(ErrorTypeProvider, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *APIError {
	return NewAPIError(ErrorTypeInternal, message)
}

// ValidateRequired checks if a required field is present
func ValidateRequired(value, fieldName string) *APIError {
	if value == "" {
		return NewValidationError(fmt.Sprintf("Field '%s' is required", fieldName))
	}
	return nil
}
