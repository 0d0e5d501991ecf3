package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sitesmith/ai-gateway/internal/artifact"
	"github.com/sitesmith/ai-gateway/internal/config"
	"github.com/sitesmith/ai-gateway/internal/database"
	"github.com/sitesmith/ai-gateway/internal/errors"
	"github.com/sitesmith/ai-gateway/internal/logger"
	"github.com/sitesmith/ai-gateway/internal/middleware"
	"github.com/sitesmith/ai-gateway/internal/provider"
	"github.com/sitesmith/ai-gateway/internal/ratelimit"
	"github.com/sitesmith/ai-gateway/internal/relay"
	"github.com/sitesmith/ai-gateway/internal/utils"
	"github.com/sitesmith/ai-gateway/internal/validator"
)

// startTime tracks when the application started
var startTime = time.Now()

// UsageLogStore is the persistence surface for generation usage records.
// *database.GenerationLogRepository implements it.
type UsageLogStore interface {
	Insert(ctx context.Context, entry *database.GenerationLog) error
	GetByRequestID(ctx context.Context, requestID string) (*database.GenerationLog, error)
	GetRecent(ctx context.Context, limit, offset int64) ([]*database.GenerationLog, error)
	CountByCapability(ctx context.Context, since time.Time) (map[string]int64, error)
}

// Handlers contains the dependencies needed for the gateway endpoints
type Handlers struct {
	cfg        *config.GatewayConfig
	limiter    *ratelimit.Limiter
	providers  *provider.Registry
	relay      *relay.Relay
	fetchGuard *artifact.FetchGuard
	store      artifact.Store
	db         *database.Connection
	logs       UsageLogStore
}

// NewHandlers creates a new Handlers instance. db and logs may be nil when
// MongoDB is not configured; usage logging and reporting are then disabled.
func NewHandlers(
	cfg *config.GatewayConfig,
	limiter *ratelimit.Limiter,
	providers *provider.Registry,
	streamRelay *relay.Relay,
	fetchGuard *artifact.FetchGuard,
	store artifact.Store,
	db *database.Connection,
	logs UsageLogStore,
) *Handlers {
	return &Handlers{
		cfg:        cfg,
		limiter:    limiter,
		providers:  providers,
		relay:      streamRelay,
		fetchGuard: fetchGuard,
		store:      store,
		db:         db,
		logs:       logs,
	}
}

// checkCapability runs the shared gate sequence for a generation endpoint:
// credentials configured, capability enabled, quota available. It writes the
// error response itself and reports whether the request may proceed.
func (h *Handlers) checkCapability(ctx context.Context, w http.ResponseWriter, r *http.Request, capability config.Capability) bool {
	if !h.cfg.Configured() {
		errors.HandleError(w, errors.NewConfigurationError("no provider credentials are configured"), http.StatusServiceUnavailable)
		return false
	}

	if !h.cfg.Features.Enabled(capability) {
		errors.HandleError(w, errors.NewFeatureDisabledError(fmt.Sprintf("%s generation is disabled", capability)), http.StatusForbidden)
		return false
	}

	clientKey := middleware.ClientIP(r)
	decision := h.limiter.Check(ctx, clientKey, capability)
	if !decision.Allowed {
		logger.Warn(ctx, "Rate limit exceeded",
			"client_ip", clientKey,
			"capability", string(capability),
			"count", decision.Count,
			"quota", decision.Quota,
		)
		w.Header().Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
		message := fmt.Sprintf("Rate limit exceeded: %d requests per %s allowed for %s generation. Please try again later.",
			decision.Quota, h.limiterWindow(), capability)
		errors.HandleError(w, errors.NewRateLimitError(message), http.StatusTooManyRequests)
		return false
	}

	return true
}

func (h *Handlers) limiterWindow() string {
	return h.cfg.RateLimit.Window.String()
}

// decodePayload parses and validates a JSON request body. Malformed JSON is a
// 400; a well-formed body failing field validation is a 422.
func decodePayload(w http.ResponseWriter, r *http.Request, payload interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		errors.HandleError(w, errors.NewValidationError("request body is not valid JSON"), http.StatusBadRequest)
		return false
	}
	if err := validator.Struct(payload); err != nil {
		errors.HandleError(w, errors.NewValidationError(err.Error()), http.StatusUnprocessableEntity)
		return false
	}
	return true
}

// HandleChat handles streaming text generation
// @Summary      Stream a text generation
// @Description  Streams incremental model output as server-sent events (chunk/error/done frames)
// @Tags         generation
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body  gateway.ChatPayload  true  "Generation request"
// @Success      200  {string}  string  "SSE stream"
// @Failure      400  {object}  errors.ErrorResponse  "Malformed request"
// @Failure      403  {object}  errors.ErrorResponse  "Feature disabled or origin rejected"
// @Failure      422  {object}  errors.ErrorResponse  "Validation failure"
// @Failure      429  {object}  errors.ErrorResponse  "Rate limited"
// @Failure      503  {object}  errors.ErrorResponse  "No provider configured"
// @Router       /v1/chat [post]
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := logger.WithComponent(r.Context(), "RequestGateway")
	started := time.Now()

	// The origin check applies to the streaming endpoint only: SSE responses
	// are readable cross-origin without CORS preflight, so a forged form post
	// from another site must be rejected here.
	if !originAllowed(r) {
		logger.Warn(ctx, "Rejected cross-origin stream request",
			"origin", r.Header.Get(utils.HeaderOrigin),
			"host", r.Host,
		)
		errors.HandleError(w, errors.NewOriginRejectedError("cross-origin requests are not allowed"), http.StatusForbidden)
		return
	}

	if !h.checkCapability(ctx, w, r, config.CapabilityText) {
		return
	}

	var payload ChatPayload
	if !decodePayload(w, r, &payload) {
		return
	}

	model, err := h.resolveModel(payload.Model, config.CapabilityText)
	if err != nil {
		errors.HandleError(w, errors.NewValidationError(err.Error()), http.StatusUnprocessableEntity)
		return
	}

	prov, err := h.providers.ForModel(model)
	if err != nil {
		errors.HandleError(w, errors.NewConfigurationError(err.Error()), http.StatusServiceUnavailable)
		return
	}

	genReq := &GenerationRequest{
		Capability:    config.CapabilityText,
		Model:         model,
		Prompt:        payload.Prompt,
		SystemContext: payload.Context,
	}

	stream, err := prov.StreamChat(ctx, genReq.ChatRequest())
	if err != nil {
		logger.Error(ctx, "Failed to open provider stream", err,
			"provider", prov.Name(),
			"model", model.ID,
		)
		errors.HandleError(w, errors.NewProviderError("the model provider is unavailable"), http.StatusBadGateway)
		return
	}

	sink, err := relay.NewHTTPSink(w)
	if err != nil {
		stream.Close()
		errors.HandleError(w, errors.NewInternalError("streaming is not supported by this connection"), http.StatusInternalServerError)
		return
	}

	status, bytesWritten := h.relay.Stream(ctx, stream, sink)

	h.recordGeneration(ctx, r, &database.GenerationLog{
		Capability:     string(genReq.Capability),
		Model:          genReq.Model.ID,
		Provider:       genReq.Model.Provider,
		PromptSize:     len(genReq.Prompt),
		StatusCode:     http.StatusOK,
		TerminalStatus: string(status),
		BytesWritten:   bytesWritten,
		DurationMs:     time.Since(started).Milliseconds(),
	})
}

// HandleImage handles image generation
// @Summary      Generate an image
// @Description  Generates an image from a prompt, downloads it from the provider and persists it
// @Tags         generation
// @Accept       json
// @Produce      json
// @Param        request  body  gateway.ImagePayload  true  "Image request"
// @Success      200  {object}  map[string]interface{}  "Generated image reference"
// @Failure      400  {object}  errors.ErrorResponse  "Malformed request"
// @Failure      403  {object}  errors.ErrorResponse  "Feature disabled"
// @Failure      422  {object}  errors.ErrorResponse  "Validation failure"
// @Failure      429  {object}  errors.ErrorResponse  "Rate limited"
// @Failure      502  {object}  errors.ErrorResponse  "Provider failure"
// @Failure      503  {object}  errors.ErrorResponse  "No provider configured"
// @Router       /v1/image [post]
func (h *Handlers) HandleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := logger.WithComponent(r.Context(), "RequestGateway")
	started := time.Now()

	if !h.checkCapability(ctx, w, r, config.CapabilityImage) {
		return
	}

	var payload ImagePayload
	if !decodePayload(w, r, &payload) {
		return
	}

	model, err := h.resolveModel(payload.Model, config.CapabilityImage)
	if err != nil {
		errors.HandleError(w, errors.NewValidationError(err.Error()), http.StatusUnprocessableEntity)
		return
	}

	prov, err := h.providers.ForModel(model)
	if err != nil {
		errors.HandleError(w, errors.NewConfigurationError(err.Error()), http.StatusServiceUnavailable)
		return
	}

	genReq := &GenerationRequest{
		Capability: config.CapabilityImage,
		Model:      model,
		Prompt:     payload.Prompt,
		Size:       payload.Size,
	}

	remoteURL, err := prov.GenerateImage(ctx, genReq.ImageRequest())
	if err != nil {
		logger.Error(ctx, "Image generation failed", err,
			"provider", prov.Name(),
			"model", model.ID,
		)
		errors.HandleError(w, errors.NewProviderError("image generation failed"), http.StatusBadGateway)
		h.recordFailure(ctx, r, config.CapabilityImage, model, http.StatusBadGateway, err, started)
		return
	}

	art, err := h.fetchGuard.Fetch(ctx, remoteURL)
	if err != nil {
		logger.Error(ctx, "Failed to retrieve generated image", err,
			"provider", prov.Name(),
			"url", remoteURL,
		)
		errors.HandleError(w, errors.NewProviderError("failed to retrieve the generated image"), http.StatusBadGateway)
		h.recordFailure(ctx, r, config.CapabilityImage, model, http.StatusBadGateway, err, started)
		return
	}

	stored, err := h.store.Persist(ctx, art.Bytes, art.SniffedType, art.ContentType)
	if err != nil {
		logger.Error(ctx, "Failed to persist generated image", err)
		errors.HandleError(w, errors.NewInternalError("failed to store the generated image"), http.StatusInternalServerError)
		h.recordFailure(ctx, r, config.CapabilityImage, model, http.StatusInternalServerError, err, started)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"image":   stored.ID,
		"url":     stored.URL,
	})

	h.recordGeneration(ctx, r, &database.GenerationLog{
		Capability:   string(genReq.Capability),
		Model:        genReq.Model.ID,
		Provider:     genReq.Model.Provider,
		PromptSize:   len(genReq.Prompt),
		StatusCode:   http.StatusOK,
		BytesWritten: art.SizeBytes,
		DurationMs:   time.Since(started).Milliseconds(),
	})
}

// HandleScreenshot handles screenshot-to-code conversion
// @Summary      Convert a screenshot to code
// @Description  Validates an uploaded screenshot and asks a vision model to reproduce it as HTML
// @Tags         generation
// @Accept       json
// @Produce      json
// @Param        request  body  gateway.ScreenshotPayload  true  "Screenshot request"
// @Success      200  {object}  map[string]interface{}  "Generated HTML"
// @Failure      400  {object}  errors.ErrorResponse  "Malformed request"
// @Failure      403  {object}  errors.ErrorResponse  "Feature disabled"
// @Failure      422  {object}  errors.ErrorResponse  "Validation failure"
// @Failure      429  {object}  errors.ErrorResponse  "Rate limited"
// @Failure      502  {object}  errors.ErrorResponse  "Provider failure"
// @Failure      503  {object}  errors.ErrorResponse  "No provider configured"
// @Router       /v1/screenshot-to-code [post]
func (h *Handlers) HandleScreenshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := logger.WithComponent(r.Context(), "RequestGateway")
	started := time.Now()

	if !h.checkCapability(ctx, w, r, config.CapabilityScreenshot) {
		return
	}

	var payload ScreenshotPayload
	if !decodePayload(w, r, &payload) {
		return
	}

	declaredType := payload.DeclaredType
	if declaredType == "" {
		declaredType = "png"
	}

	// All image validation happens before any provider call
	art, err := artifact.DecodeImagePayload(payload.Image, declaredType, h.cfg.Limits.MaxUploadSize)
	if err != nil {
		errors.HandleError(w, errors.NewValidationError(err.Error()), http.StatusUnprocessableEntity)
		return
	}

	model, err := h.resolveModel(payload.Model, config.CapabilityScreenshot)
	if err != nil {
		errors.HandleError(w, errors.NewValidationError(err.Error()), http.StatusUnprocessableEntity)
		return
	}

	prov, err := h.providers.ForModel(model)
	if err != nil {
		errors.HandleError(w, errors.NewConfigurationError(err.Error()), http.StatusServiceUnavailable)
		return
	}

	tempFile, err := os.CreateTemp("", "screenshot-*."+art.SniffedType)
	if err != nil {
		errors.HandleError(w, errors.NewInternalError("failed to stage the screenshot"), http.StatusInternalServerError)
		return
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(art.Bytes); err != nil {
		tempFile.Close()
		errors.HandleError(w, errors.NewInternalError("failed to stage the screenshot"), http.StatusInternalServerError)
		return
	}
	tempFile.Close()

	genReq := &GenerationRequest{
		Capability:    config.CapabilityScreenshot,
		Model:         model,
		Prompt:        screenshotUserPrompt(payload.Mode, payload.ContextHTML),
		SystemContext: screenshotSystemContext(payload.Mode),
		ImagePath:     tempFile.Name(),
	}

	html, err := prov.CompleteChat(ctx, genReq.ChatRequest())
	if err != nil {
		logger.Error(ctx, "Screenshot conversion failed", err,
			"provider", prov.Name(),
			"model", model.ID,
		)
		errors.HandleError(w, errors.NewProviderError("screenshot conversion failed"), http.StatusBadGateway)
		h.recordFailure(ctx, r, config.CapabilityScreenshot, model, http.StatusBadGateway, err, started)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"html":    stripCodeFences(html),
	})

	h.recordGeneration(ctx, r, &database.GenerationLog{
		Capability: string(genReq.Capability),
		Model:      genReq.Model.ID,
		Provider:   genReq.Model.Provider,
		StatusCode: http.StatusOK,
		DurationMs: time.Since(started).Milliseconds(),
	})
}

// HandleModels lists available models grouped by capability
// @Summary      List available models
// @Description  Returns configured text, image and vision model descriptors plus the defaults
// @Tags         discovery
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Model listing"
// @Router       /v1/models [get]
func (h *Handlers) HandleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	textModels := make([]config.ModelDescriptor, 0)
	imageModels := make([]config.ModelDescriptor, 0)
	visionModels := make([]config.ModelDescriptor, 0)
	for _, model := range h.cfg.Models {
		if model.SupportsTextOut() {
			textModels = append(textModels, model)
		}
		if model.SupportsImageOut() {
			imageModels = append(imageModels, model)
		}
		if model.SupportsVision() {
			visionModels = append(visionModels, model)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"text_models":   textModels,
		"image_models":  imageModels,
		"vision_models": visionModels,
		"defaults": map[string]string{
			"text":   h.cfg.Defaults.Text,
			"image":  h.cfg.Defaults.Image,
			"vision": h.cfg.Defaults.Vision,
		},
	})
}

// HandleStatus reports gateway configuration state
// @Summary      Gateway status
// @Description  Reports whether providers are configured and which capabilities are enabled
// @Tags         discovery
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Status"
// @Router       /v1/status [get]
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"configured":         h.cfg.Configured(),
		"providers":          h.cfg.Providers(),
		"text_enabled":       h.cfg.Features.TextEnabled,
		"image_enabled":      h.cfg.Features.ImageEnabled,
		"screenshot_enabled": h.cfg.Features.ScreenshotEnabled,
	})
}

// HealthResponse represents the structured health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Services  map[string]string      `json:"services"`
	Details   map[string]interface{} `json:"details"`
}

// HandleHealth handles the health check endpoint
// @Summary      Health check endpoint
// @Description  Returns structured health information including status, services, and version details
// @Tags         health
// @Produce      json
// @Success      200  {object}  gateway.HealthResponse  "Structured health response"
// @Router       /health [get]
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int64(time.Since(startTime).Seconds())

	version := os.Getenv("VERSION")
	if version == "" {
		version = "unknown"
	}

	services := make(map[string]string)
	overallStatus := "healthy"

	if h.cfg.Configured() {
		services["credentials"] = "up"
	} else {
		services["credentials"] = "down"
		overallStatus = "degraded"
	}

	if len(h.cfg.Models) > 0 {
		services["models"] = "up"
	} else {
		services["models"] = "down"
		overallStatus = "degraded"
	}

	if h.db == nil {
		services["database"] = "disabled"
	} else if err := h.db.HealthCheck(); err != nil {
		services["database"] = "unhealthy"
		if overallStatus == "healthy" {
			overallStatus = "degraded"
		}
	} else {
		services["database"] = "up"
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
		Details: map[string]interface{}{
			"version": version,
			"uptime":  uptime,
		},
	})
}

// recordGeneration stores a usage log entry when the database is configured.
// Logging is best-effort and never delays the response.
func (h *Handlers) recordGeneration(ctx context.Context, r *http.Request, entry *database.GenerationLog) {
	if h.logs == nil {
		return
	}

	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		entry.RequestID = requestID
	}
	entry.ClientIP = middleware.ClientIP(r)

	go func() {
		insertCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.logs.Insert(insertCtx, entry); err != nil {
			logger.Warn(logger.WithComponent(insertCtx, "RequestGateway"), "Failed to store generation log",
				"insert_error", err.Error(),
			)
		}
	}()
}

func (h *Handlers) recordFailure(ctx context.Context, r *http.Request, capability config.Capability, model config.ModelDescriptor, statusCode int, err error, started time.Time) {
	h.recordGeneration(ctx, r, &database.GenerationLog{
		Capability:   string(capability),
		Model:        model.ID,
		Provider:     model.Provider,
		StatusCode:   statusCode,
		ErrorType:    string(errors.ErrorTypeProvider),
		ErrorMessage: err.Error(),
		DurationMs:   time.Since(started).Milliseconds(),
	})
}

// upstreamModel returns the name the provider knows the model by
func upstreamModel(model config.ModelDescriptor) string {
	if model.Name != "" {
		return model.Name
	}
	return model.ID
}

// stripCodeFences removes a wrapping markdown code block if the model added
// one despite instructions.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error(context.Background(), "Failed to encode response body", err)
	}
}
