package database

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerationLog records one generation request for analytics. Prompts and
// payloads are stored truncated; raw image bytes never land here.
type GenerationLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestID string             `bson:"request_id" json:"request_id"`

	// Request details
	Capability string `bson:"capability" json:"capability"`
	Model      string `bson:"model,omitempty" json:"model,omitempty"`
	Provider   string `bson:"provider,omitempty" json:"provider,omitempty"`
	ClientIP   string `bson:"client_ip,omitempty" json:"client_ip,omitempty"`
	PromptSize int    `bson:"prompt_size,omitempty" json:"prompt_size,omitempty"`

	// Outcome details
	StatusCode     int    `bson:"status_code" json:"status_code"`
	TerminalStatus string `bson:"terminal_status,omitempty" json:"terminal_status,omitempty"`
	BytesWritten   int64  `bson:"bytes_written,omitempty" json:"bytes_written,omitempty"`
	DurationMs     int64  `bson:"duration_ms" json:"duration_ms"`
	ErrorType      string `bson:"error_type,omitempty" json:"error_type,omitempty"`
	ErrorMessage   string `bson:"error_message,omitempty" json:"error_message,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
