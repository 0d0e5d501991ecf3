package relay

import (
	"encoding/json"
	"net/http"

	"github.com/sitesmith/ai-gateway/internal/utils"
)

// SSE event names emitted by the relay
const (
	EventChunk = "chunk"
	EventError = "error"
	EventDone  = "done"
)

// WriteResult reports the outcome of one frame write. Closed means the client
// went away; it is an ordinary branch for the caller, not an error.
type WriteResult struct {
	Ok     bool
	Closed bool
}

// FrameSink delivers SSE frames to the client
type FrameSink interface {
	WriteFrame(event string, data interface{}) WriteResult
}

// HTTPSink writes SSE frames to an http.ResponseWriter, flushing after each
// frame so chunks reach the client immediately.
type HTTPSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool
}

// NewHTTPSink prepares w for SSE streaming and writes the response headers.
// It returns an error if w does not support flushing.
func NewHTTPSink(w http.ResponseWriter) (*HTTPSink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, http.ErrNotSupported
	}

	w.Header().Set(utils.HeaderContentType, utils.ContentTypeEventStreamUTF8)
	w.Header().Set(utils.HeaderCacheControl, utils.CacheControlNoCache)
	w.Header().Set(utils.HeaderConnection, utils.ConnectionKeepAlive)
	w.Header().Set(utils.HeaderXAccelBuffering, utils.XAccelBufferingNo)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &HTTPSink{w: w, flusher: flusher}, nil
}

// WriteFrame implements FrameSink
func (s *HTTPSink) WriteFrame(event string, data interface{}) WriteResult {
	if s.closed {
		return WriteResult{Closed: true}
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return WriteResult{}
	}

	frame := "event: " + event + "\ndata: " + string(payload) + "\n\n"
	if _, err := s.w.Write([]byte(frame)); err != nil {
		s.closed = true
		return WriteResult{Closed: true}
	}
	s.flusher.Flush()

	return WriteResult{Ok: true}
}
