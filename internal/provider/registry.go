package provider

import (
	"context"
	"fmt"

	"github.com/sitesmith/ai-gateway/internal/config"
	"github.com/sitesmith/ai-gateway/internal/httpclient"
	"github.com/sitesmith/ai-gateway/internal/logger"
)

// defaultBaseURLs maps known provider names to their API roots; a credential
// with an explicit base_url overrides these.
var defaultBaseURLs = map[string]string{
	"openai": "https://api.openai.com/v1",
	"groq":   "https://api.groq.com/openai/v1",
	"gemini": "https://generativelanguage.googleapis.com/v1beta/openai",
}

// Registry resolves models to their configured providers
type Registry struct {
	providers map[string]ModelProvider
	models    []config.ModelDescriptor
}

// NewRegistry builds one provider per credential. Credentials with neither a
// known provider name nor an explicit base URL are skipped with a warning.
func NewRegistry(ctx context.Context, cfg *config.GatewayConfig, factory *httpclient.Factory) *Registry {
	ctx = logger.WithComponent(ctx, "ProviderRegistry")
	client := factory.CreateDefaultClient()

	providers := make(map[string]ModelProvider)
	for _, cred := range cfg.Credentials {
		baseURL := cred.BaseURL
		if baseURL == "" {
			baseURL = defaultBaseURLs[cred.Provider]
		}
		if baseURL == "" {
			logger.Warn(ctx, "Skipping credential with unknown provider and no base URL",
				"provider", cred.Provider,
			)
			continue
		}

		providers[cred.Provider] = NewOpenAIProvider(cred.Provider, baseURL, cred.Value, client)
		logger.Info(ctx, "Provider registered",
			"provider", cred.Provider,
			"base_url", baseURL,
		)
	}

	return &Registry{providers: providers, models: cfg.Models}
}

// ForModel returns the provider serving the given model descriptor
func (r *Registry) ForModel(model config.ModelDescriptor) (ModelProvider, error) {
	p, ok := r.providers[model.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: model %s wants provider %s", ErrNoProvider, model.ID, model.Provider)
	}
	return p, nil
}

// Names returns the registered provider names
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
