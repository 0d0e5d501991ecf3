package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sitesmith/ai-gateway/internal/logger"
	"github.com/sitesmith/ai-gateway/internal/utils"
)

// RequestCorrelationMiddleware assigns request and correlation IDs with a
// priority cascade, echoes them on the response, and logs the request
// lifecycle with sanitized headers.
func RequestCorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, correlationID := extractTrackingIDs(r)

		w.Header().Set(utils.HeaderRequestID, requestID)
		w.Header().Set(utils.HeaderCorrelationID, correlationID)

		ctx := context.WithValue(r.Context(), logger.RequestIDKey, requestID)
		ctx = context.WithValue(ctx, logger.CorrelationIDKey, correlationID)
		ctx = logger.WithComponent(ctx, "Middleware")

		// Health probes are noisy; only failures are worth a log line
		if r.URL.Path == "/health" {
			wrapper := newStatusWriter(w)
			next.ServeHTTP(wrapper, r.WithContext(ctx))
			if wrapper.statusCode >= 400 {
				logger.Warn(ctx, "Health check failed", "status_code", wrapper.statusCode)
			}
			return
		}

		start := time.Now()
		logger.Info(ctx, "Incoming request",
			"method", r.Method,
			"endpoint", r.URL.Path,
			"client_ip", ClientIP(r),
			"user_agent", r.Header.Get(utils.HeaderUserAgent),
			"headers", utils.SanitizeHeaders(r.Header),
		)

		wrapper := newStatusWriter(w)
		next.ServeHTTP(wrapper, r.WithContext(ctx))

		duration := time.Since(start)
		if wrapper.statusCode >= 400 {
			logger.Warn(ctx, "Request failed",
				"method", r.Method,
				"endpoint", r.URL.Path,
				"status_code", wrapper.statusCode,
				"duration_ms", duration.Milliseconds(),
			)
			return
		}
		logger.Info(ctx, "Request completed",
			"method", r.Method,
			"endpoint", r.URL.Path,
			"status_code", wrapper.statusCode,
			"duration_ms", duration.Milliseconds(),
		)
	})
}

// extractTrackingIDs implements the ID priority cascade: client-provided
// headers win, then a generated fallback.
func extractTrackingIDs(r *http.Request) (requestID, correlationID string) {
	requestID = r.Header.Get(utils.HeaderRequestID)
	if requestID == "" {
		requestID = utils.GenerateRequestID()
	}

	correlationID = r.Header.Get(utils.HeaderCorrelationID)
	if correlationID == "" {
		correlationID = utils.GenerateCorrelationID()
	}
	return requestID, correlationID
}

// ClientIP extracts the client IP with a proxy-aware priority cascade
func ClientIP(r *http.Request) string {
	if forwardedFor := r.Header.Get(utils.HeaderXForwardedFor); forwardedFor != "" {
		return strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
	}
	if realIP := r.Header.Get(utils.HeaderXRealIP); realIP != "" {
		return realIP
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}

// statusWriter captures the status code while passing writes straight
// through, so streaming responses are not buffered.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements http.Flusher so SSE streaming works through the wrapper
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
