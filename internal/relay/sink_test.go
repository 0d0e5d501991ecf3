package relay

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSink_WritesSSEFrames(t *testing.T) {
	recorder := httptest.NewRecorder()

	sink, err := NewHTTPSink(recorder)
	require.NoError(t, err)

	result := sink.WriteFrame(EventChunk, chunkFrame{Text: "hello"})
	assert.True(t, result.Ok)
	result = sink.WriteFrame(EventDone, doneFrame{BytesWritten: 5})
	assert.True(t, result.Ok)

	assert.Equal(t, "text/event-stream; charset=utf-8", recorder.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", recorder.Header().Get("Cache-Control"))
	assert.Equal(t, "no", recorder.Header().Get("X-Accel-Buffering"))

	body := recorder.Body.String()
	assert.Equal(t, "event: chunk\ndata: {\"text\":\"hello\"}\n\nevent: done\ndata: {\"bytes_written\":5}\n\n", body)
}

func TestHTTPSink_ReportsClosedAfterWriteFailure(t *testing.T) {
	recorder := httptest.NewRecorder()
	writer := &failingWriter{ResponseRecorder: recorder}

	sink, err := NewHTTPSink(writer)
	require.NoError(t, err)

	result := sink.WriteFrame(EventChunk, chunkFrame{Text: "dropped"})
	assert.True(t, result.Closed)

	// Subsequent writes short-circuit without touching the writer
	result = sink.WriteFrame(EventChunk, chunkFrame{Text: "ignored"})
	assert.True(t, result.Closed)
	assert.Equal(t, 1, writer.attempts)
}

// failingWriter fails every body write
type failingWriter struct {
	*httptest.ResponseRecorder
	attempts int
}

func (w *failingWriter) Write(data []byte) (int, error) {
	w.attempts++
	return 0, assert.AnError
}

func (w *failingWriter) Flush() {}
