package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := &StructuredJSONHandler{
		writer:      buf,
		level:       level,
		serviceName: "test-service",
		environment: "test",
	}
	return slog.New(handler), buf
}

func parseEntry(t *testing.T, buf *bytes.Buffer) StructuredLogEntry {
	var entry StructuredLogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestStructuredJSONHandler_BasicEntry(t *testing.T) {
	log, buf := newBufferedLogger(LevelInfo)

	log.InfoContext(context.Background(), "Request completed", "status_code", 200)

	entry := parseEntry(t, buf)
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "Request completed", entry.Message)
	assert.Equal(t, "test-service", entry.Service)
	assert.Equal(t, "test", entry.Environment)
	assert.EqualValues(t, 200, entry.Attributes["status_code"])
	assert.NotEmpty(t, entry.Timestamp)
}

func TestStructuredJSONHandler_ContextTags(t *testing.T) {
	log, buf := newBufferedLogger(LevelInfo)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")
	ctx = context.WithValue(ctx, CorrelationIDKey, "corr-456")
	ctx = WithComponent(ctx, "StreamingRelay")
	ctx = WithStage(ctx, "forwarding")

	log.InfoContext(ctx, "Stream completed")

	entry := parseEntry(t, buf)
	assert.Equal(t, "req-123", entry.RequestID)
	assert.Equal(t, "corr-456", entry.Attributes["correlation_id"])
	assert.Equal(t, "StreamingRelay", entry.Component)
	assert.Equal(t, "forwarding", entry.Stage)
}

func TestStructuredJSONHandler_ErrorAttribute(t *testing.T) {
	log, buf := newBufferedLogger(LevelDebug)

	Logger = log
	Error(context.Background(), "Provider stream failed", errors.New("connection reset"), "provider", "openai")
	Logger = nil

	entry := parseEntry(t, buf)
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "connection reset", entry.Error["message"])
	assert.Equal(t, "openai", entry.Attributes["provider"])
	assert.NotContains(t, entry.Attributes, "error", "the error lands in its own field, not in attributes")
}

func TestStructuredJSONHandler_LevelFiltering(t *testing.T) {
	log, buf := newBufferedLogger(LevelWarn)

	log.InfoContext(context.Background(), "should be dropped")
	assert.Zero(t, buf.Len())

	log.WarnContext(context.Background(), "should appear")
	assert.NotZero(t, buf.Len())
}

func TestStructuredJSONHandler_TruncatesBase64Payloads(t *testing.T) {
	log, buf := newBufferedLogger(LevelInfo)

	payload := strings.Repeat("Q", 500)
	log.InfoContext(context.Background(), "Screenshot received", "image", payload)

	entry := parseEntry(t, buf)
	image := entry.Attributes["image"].(string)
	assert.Contains(t, image, "truncated")
	assert.Less(t, len(image), 100)
}

func TestInit_UnwritableFileFails(t *testing.T) {
	err := Init(Config{Output: "/nonexistent-dir/gateway.log"})
	assert.Error(t, err)
}

func TestInitFromEnv_LevelParsing(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	require.NoError(t, InitFromEnv())

	assert.True(t, Logger.Enabled(context.Background(), LevelDebug))
	Logger = nil
}
