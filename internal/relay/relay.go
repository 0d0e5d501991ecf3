package relay

import (
	"context"
	"io"
	"time"

	"github.com/sitesmith/ai-gateway/internal/config"
	"github.com/sitesmith/ai-gateway/internal/errors"
	"github.com/sitesmith/ai-gateway/internal/logger"
	"github.com/sitesmith/ai-gateway/internal/provider"
	"github.com/sitesmith/ai-gateway/internal/utils"
)

// TerminalStatus is how a stream session ended
type TerminalStatus string

const (
	StatusCompleted          TerminalStatus = "completed"
	StatusTimedOut           TerminalStatus = "timed_out"
	StatusTooLarge           TerminalStatus = "too_large"
	StatusProviderError      TerminalStatus = "provider_error"
	StatusClientDisconnected TerminalStatus = "client_disconnected"
)

// streamSession is the mutable per-request state of one relay run. It lives
// exactly as long as the HTTP response and is never shared across requests.
type streamSession struct {
	id           string
	startedAt    time.Time
	lastWriteAt  time.Time
	bytesWritten int64
}

// Frame payloads

type chunkFrame struct {
	Text string `json:"text"`
}

type errorFrame struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type doneFrame struct {
	BytesWritten int64 `json:"bytes_written"`
}

// Relay drives one streaming chat completion against a provider, forwarding
// chunks to the client under the configured total, idle and size budgets.
type Relay struct {
	limits config.Limits
	now    func() time.Time
}

// NewRelay creates a relay with the given budgets
func NewRelay(limits config.Limits) *Relay {
	return &Relay{limits: limits, now: time.Now}
}

// Stream consumes the provider stream and forwards it to sink until a
// terminal condition, returning how the session ended and the total chunk
// bytes written. The provider stream is always closed before returning, so
// the upstream connection is released before the client stream ends,
// whatever the exit path.
//
// Budget checks run on every received chunk, in order: total timeout, idle
// timeout, size cap. The cap is checked before the write, so the byte total
// never exceeds the configured maximum.
func (r *Relay) Stream(ctx context.Context, stream provider.ChatStream, sink FrameSink) (TerminalStatus, int64) {
	defer stream.Close()

	ctx = logger.WithComponent(ctx, "StreamingRelay")
	start := r.now()
	session := &streamSession{
		id:          utils.GenerateStreamID(),
		startedAt:   start,
		lastWriteAt: start,
	}
	logger.Debug(ctx, "Stream session started", "stream_id", session.id)

	for {
		text, err := stream.Recv()
		if err == io.EOF {
			sink.WriteFrame(EventDone, doneFrame{BytesWritten: session.bytesWritten})
			logger.Info(ctx, "Stream completed",
				"stream_id", session.id,
				"bytes_written", session.bytesWritten,
				"duration", r.now().Sub(session.startedAt).String(),
			)
			return StatusCompleted, session.bytesWritten
		}
		if err != nil {
			logger.Error(ctx, "Provider stream failed", err,
				"bytes_written", session.bytesWritten,
			)
			sink.WriteFrame(EventError, errorFrame{Error: errorDetail{
				Type:    string(errors.ErrorTypeProvider),
				Message: "the model provider failed mid-stream",
			}})
			return StatusProviderError, session.bytesWritten
		}

		now := r.now()
		if now.Sub(session.startedAt) > r.limits.StreamTimeout {
			logger.Warn(ctx, "Stream exceeded total timeout",
				"timeout", r.limits.StreamTimeout.String(),
				"bytes_written", session.bytesWritten,
			)
			sink.WriteFrame(EventError, errorFrame{Error: errorDetail{
				Type:    string(errors.ErrorTypeStreamTimeout),
				Message: "generation exceeded the maximum stream duration",
			}})
			return StatusTimedOut, session.bytesWritten
		}
		if now.Sub(session.lastWriteAt) > r.limits.StreamIdleTimeout {
			logger.Warn(ctx, "Stream exceeded idle timeout",
				"idle_timeout", r.limits.StreamIdleTimeout.String(),
				"bytes_written", session.bytesWritten,
			)
			sink.WriteFrame(EventError, errorFrame{Error: errorDetail{
				Type:    string(errors.ErrorTypeStreamTimeout),
				Message: "generation stalled and was terminated",
			}})
			return StatusTimedOut, session.bytesWritten
		}

		chunkLen := int64(len(text))
		if session.bytesWritten+chunkLen > r.limits.MaxResponseSize {
			logger.Warn(ctx, "Stream exceeded size cap",
				"max_response_size", r.limits.MaxResponseSize,
				"bytes_written", session.bytesWritten,
				"chunk_bytes", chunkLen,
			)
			sink.WriteFrame(EventError, errorFrame{Error: errorDetail{
				Type:    string(errors.ErrorTypeStreamTooLarge),
				Message: "generation exceeded the maximum response size",
			}})
			return StatusTooLarge, session.bytesWritten
		}

		result := sink.WriteFrame(EventChunk, chunkFrame{Text: text})
		if result.Closed {
			// Expected when the user navigates away; not an application error
			logger.Debug(ctx, "Client disconnected mid-stream",
				"bytes_written", session.bytesWritten,
			)
			return StatusClientDisconnected, session.bytesWritten
		}

		session.bytesWritten += chunkLen
		session.lastWriteAt = r.now()
	}
}
