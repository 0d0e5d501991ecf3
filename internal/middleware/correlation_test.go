package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesmith/ai-gateway/internal/logger"
	"github.com/sitesmith/ai-gateway/internal/utils"
)

func initTestLogger(t *testing.T) {
	require.NoError(t, logger.Init(logger.Config{
		Level:       logger.LevelDebug,
		Format:      "json",
		Output:      "stdout",
		ServiceName: "test",
		Environment: "test",
	}))
}

func TestRequestCorrelationMiddleware_GeneratesIDs(t *testing.T) {
	initTestLogger(t)

	var gotRequestID, gotCorrelationID string
	handler := RequestCorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID, _ = r.Context().Value(logger.RequestIDKey).(string)
		gotCorrelationID, _ = r.Context().Value(logger.CorrelationIDKey).(string)
		w.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/status", nil))

	assert.NotEmpty(t, gotRequestID)
	assert.NotEmpty(t, gotCorrelationID)
	assert.Equal(t, gotRequestID, recorder.Header().Get(utils.HeaderRequestID))
	assert.Equal(t, gotCorrelationID, recorder.Header().Get(utils.HeaderCorrelationID))
}

func TestRequestCorrelationMiddleware_ClientProvidedIDsWin(t *testing.T) {
	initTestLogger(t)

	handler := RequestCorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	req.Header.Set(utils.HeaderRequestID, "req-from-client")
	req.Header.Set(utils.HeaderCorrelationID, "corr-from-client")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	assert.Equal(t, "req-from-client", recorder.Header().Get(utils.HeaderRequestID))
	assert.Equal(t, "corr-from-client", recorder.Header().Get(utils.HeaderCorrelationID))
}

func TestRequestCorrelationMiddleware_StreamingPassThrough(t *testing.T) {
	initTestLogger(t)

	// The middleware must not buffer the body: each write has to reach the
	// underlying writer immediately for SSE to work.
	handler := RequestCorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		require.True(t, ok, "wrapped writer must implement http.Flusher")

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("event: chunk\ndata: {\"text\":\"hi\"}\n\n"))
		flusher.Flush()
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/chat", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, recorder.Flushed)
	assert.Contains(t, recorder.Body.String(), "event: chunk")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "x-forwarded-for first hop",
			headers: map[string]string{utils.HeaderXForwardedFor: "203.0.113.7, 10.0.0.1"},
			remote:  "10.0.0.2:443",
			want:    "203.0.113.7",
		},
		{
			name:    "x-real-ip",
			headers: map[string]string{utils.HeaderXRealIP: "203.0.113.9"},
			remote:  "10.0.0.2:443",
			want:    "203.0.113.9",
		},
		{
			name:    "forwarded-for beats real-ip",
			headers: map[string]string{utils.HeaderXForwardedFor: "203.0.113.7", utils.HeaderXRealIP: "203.0.113.9"},
			remote:  "10.0.0.2:443",
			want:    "203.0.113.7",
		},
		{
			name:   "remote addr with port stripped",
			remote: "192.0.2.10:51234",
			want:   "192.0.2.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestStatusWriter_CapturesStatus(t *testing.T) {
	recorder := httptest.NewRecorder()
	wrapper := newStatusWriter(recorder)

	wrapper.WriteHeader(http.StatusTooManyRequests)
	wrapper.Write([]byte("limited"))

	assert.Equal(t, http.StatusTooManyRequests, wrapper.statusCode)
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "limited", recorder.Body.String())
}
