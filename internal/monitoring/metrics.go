package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"strings"
	"sync"
	"time"

	"github.com/sitesmith/ai-gateway/internal/utils"
)

// Metrics holds application metrics
type Metrics struct {
	mu                      sync.RWMutex
	RequestCount            int64
	RequestDuration         time.Duration
	ErrorCount              int64
	CapabilityRequestCounts map[string]int64
	StatusCodeCounts        map[int]int64
	StartTime               time.Time
}

// Global metrics instance
var globalMetrics = NewMetrics()

// NewMetrics creates an empty metrics set
func NewMetrics() *Metrics {
	return &Metrics{
		CapabilityRequestCounts: make(map[string]int64),
		StatusCodeCounts:        make(map[int]int64),
		StartTime:               time.Now(),
	}
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records a request with its duration, status and capability
func (m *Metrics) RecordRequest(duration time.Duration, statusCode int, capability string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RequestCount++
	m.RequestDuration += duration
	m.StatusCodeCounts[statusCode]++

	if capability != "" {
		m.CapabilityRequestCounts[capability]++
	}

	if statusCode >= 400 {
		m.ErrorCount++
	}
}

// GetStats returns current statistics
func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uptime := time.Since(m.StartTime)
	avgDuration := time.Duration(0)
	errorRate := float64(0)
	if m.RequestCount > 0 {
		avgDuration = m.RequestDuration / time.Duration(m.RequestCount)
		errorRate = float64(m.ErrorCount) / float64(m.RequestCount)
	}

	// Copy maps to avoid race conditions
	capabilityCounts := make(map[string]int64)
	for k, v := range m.CapabilityRequestCounts {
		capabilityCounts[k] = v
	}

	statusCounts := make(map[string]int64)
	for k, v := range m.StatusCodeCounts {
		statusCounts[http.StatusText(k)] = v
	}

	return map[string]interface{}{
		"uptime_seconds":      uptime.Seconds(),
		"total_requests":      m.RequestCount,
		"total_errors":        m.ErrorCount,
		"average_duration_ms": avgDuration.Milliseconds(),
		"requests_per_second": float64(m.RequestCount) / uptime.Seconds(),
		"error_rate":          errorRate,
		"capability_requests": capabilityCounts,
		"status_code_counts":  statusCounts,
		"start_time":          m.StartTime.Format(time.RFC3339),
	}
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RequestCount = 0
	m.RequestDuration = 0
	m.ErrorCount = 0
	m.CapabilityRequestCounts = make(map[string]int64)
	m.StatusCodeCounts = make(map[int]int64)
	m.StartTime = time.Now()
}

// MetricsMiddleware wraps HTTP handlers to collect metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		globalMetrics.RecordRequest(duration, wrapper.statusCode, capabilityForPath(r.URL.Path))
	})
}

// capabilityForPath maps generation endpoints to their capability label
func capabilityForPath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/chat"):
		return "text"
	case strings.HasPrefix(path, "/v1/image"):
		return "image"
	case strings.HasPrefix(path, "/v1/screenshot-to-code"):
		return "screenshot"
	default:
		return ""
	}
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements http.Flusher so streamed responses keep flowing
func (w *responseWriterWrapper) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// SetupPprofRoutes adds pprof endpoints to the router
func SetupPprofRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	mux.Handle("/debug/pprof/block", pprof.Handler("block"))
}

// MetricsHandler returns current metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)

	body, err := json.Marshal(globalMetrics.GetStats())
	if err != nil {
		http.Error(w, `{"error":"failed to encode metrics"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
