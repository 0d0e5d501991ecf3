package gateway

import (
	"fmt"

	"github.com/sitesmith/ai-gateway/internal/config"
	"github.com/sitesmith/ai-gateway/internal/provider"
)

// Generation modes for screenshot-to-code
const (
	ModePage    = "page"
	ModeElement = "element"
)

// ChatPayload is the request body for POST /v1/chat
type ChatPayload struct {
	Prompt  string `json:"prompt" validate:"required,min=1,max=100000"`
	Model   string `json:"model" validate:"omitempty,max=200"`
	Context string `json:"context" validate:"omitempty,max=200000"`
}

// ImagePayload is the request body for POST /v1/image
type ImagePayload struct {
	Prompt string `json:"prompt" validate:"required,min=1,max=10000"`
	Model  string `json:"model" validate:"omitempty,max=200"`
	Size   string `json:"size" validate:"omitempty,oneof=256x256 512x512 1024x1024 1792x1024 1024x1792"`
}

// ScreenshotPayload is the request body for POST /v1/screenshot-to-code
type ScreenshotPayload struct {
	Image        string `json:"image" validate:"required"`
	DeclaredType string `json:"declared_type" validate:"omitempty,max=20"`
	Mode         string `json:"mode" validate:"omitempty,oneof=page element"`
	ContextHTML  string `json:"context_html" validate:"omitempty,max=500000"`
	Model        string `json:"model" validate:"omitempty,max=200"`
}

// GenerationRequest is the validated, immutable form of an inbound request.
// It is constructed once after all checks pass and is the only value the
// handlers hand to the provider layer.
type GenerationRequest struct {
	Capability    config.Capability
	Model         config.ModelDescriptor
	Prompt        string
	SystemContext string
	Size          string
	ImagePath     string
}

// ChatRequest derives the provider call for text and vision generation
func (g *GenerationRequest) ChatRequest() provider.ChatRequest {
	return provider.ChatRequest{
		Model:         upstreamModel(g.Model),
		Prompt:        g.Prompt,
		SystemContext: g.SystemContext,
		ImagePath:     g.ImagePath,
	}
}

// ImageRequest derives the provider call for image generation
func (g *GenerationRequest) ImageRequest() provider.ImageRequest {
	return provider.ImageRequest{
		Model:  upstreamModel(g.Model),
		Prompt: g.Prompt,
		Size:   g.Size,
	}
}

// resolveModel picks the model for a request: the client's explicit choice
// when given, otherwise the configured default for the capability. The chosen
// model must support the capability's output (or input, for vision).
func (h *Handlers) resolveModel(requested string, capability config.Capability) (config.ModelDescriptor, error) {
	id := requested
	if id == "" {
		switch capability {
		case config.CapabilityText:
			id = h.cfg.Defaults.Text
		case config.CapabilityImage:
			id = h.cfg.Defaults.Image
		case config.CapabilityScreenshot:
			id = h.cfg.Defaults.Vision
		}
	}
	if id == "" {
		return config.ModelDescriptor{}, fmt.Errorf("no model configured for %s generation", capability)
	}

	model, ok := h.cfg.ModelByID(id)
	if !ok {
		return config.ModelDescriptor{}, fmt.Errorf("unknown model: %s", id)
	}

	switch capability {
	case config.CapabilityText:
		if !model.SupportsTextOut() {
			return config.ModelDescriptor{}, fmt.Errorf("model %s does not support text generation", id)
		}
	case config.CapabilityImage:
		if !model.SupportsImageOut() {
			return config.ModelDescriptor{}, fmt.Errorf("model %s does not support image generation", id)
		}
	case config.CapabilityScreenshot:
		if !model.SupportsVision() {
			return config.ModelDescriptor{}, fmt.Errorf("model %s does not accept image input", id)
		}
	}

	return model, nil
}
