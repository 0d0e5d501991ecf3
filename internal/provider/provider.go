package provider

import (
	"context"
	"errors"
)

// Provider failure sentinels
var (
	ErrNoProvider    = errors.New("no provider configured for model")
	ErrEmptyResponse = errors.New("provider returned an empty response")
)

// ChatRequest is one text generation call. ImagePath, when set, attaches a
// local image for vision-capable models.
type ChatRequest struct {
	Model         string
	Prompt        string
	SystemContext string
	ImagePath     string
}

// ImageRequest is one image generation call
type ImageRequest struct {
	Model  string
	Prompt string
	Size   string
}

// ChatStream yields text deltas from a streaming chat completion. Recv
// returns io.EOF when the upstream stream finishes normally. Close releases
// the underlying connection and is safe to call after any Recv error.
type ChatStream interface {
	Recv() (string, error)
	Close() error
}

// ModelProvider is one upstream model API. Implementations are safe for
// concurrent use.
type ModelProvider interface {
	// Name identifies the provider in logs and the status surface
	Name() string

	// StreamChat starts a streaming chat completion
	StreamChat(ctx context.Context, req ChatRequest) (ChatStream, error)

	// CompleteChat runs a chat completion to completion and returns the text
	CompleteChat(ctx context.Context, req ChatRequest) (string, error)

	// GenerateImage generates one image and returns its upstream URL
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
}
