package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitesmith/ai-gateway/internal/config"
	"github.com/sitesmith/ai-gateway/internal/provider"
)

func TestGenerationRequest_ChatRequest(t *testing.T) {
	genReq := &GenerationRequest{
		Capability:    config.CapabilityScreenshot,
		Model:         config.ModelDescriptor{ID: "vision-model", Name: "gpt-4o", Provider: "openai"},
		Prompt:        "reproduce this page",
		SystemContext: "you are a frontend developer",
		ImagePath:     "/tmp/screenshot.png",
	}

	assert.Equal(t, provider.ChatRequest{
		Model:         "gpt-4o",
		Prompt:        "reproduce this page",
		SystemContext: "you are a frontend developer",
		ImagePath:     "/tmp/screenshot.png",
	}, genReq.ChatRequest(), "the upstream name wins when configured")
}

func TestGenerationRequest_ChatRequestFallsBackToModelID(t *testing.T) {
	genReq := &GenerationRequest{
		Capability: config.CapabilityText,
		Model:      config.ModelDescriptor{ID: "text-model", Provider: "openai"},
		Prompt:     "say hello",
	}

	assert.Equal(t, "text-model", genReq.ChatRequest().Model)
}

func TestGenerationRequest_ImageRequest(t *testing.T) {
	genReq := &GenerationRequest{
		Capability: config.CapabilityImage,
		Model:      config.ModelDescriptor{ID: "image-model", Name: "dall-e-3", Provider: "openai"},
		Prompt:     "a red square",
		Size:       "1024x1024",
	}

	assert.Equal(t, provider.ImageRequest{
		Model:  "dall-e-3",
		Prompt: "a red square",
		Size:   "1024x1024",
	}, genReq.ImageRequest())
}
