package config

import (
	"context"
	"fmt"

	"github.com/sitesmith/ai-gateway/internal/logger"
)

// Validate checks the loaded configuration for inconsistencies. Hard errors
// stop startup; a model without a matching credential only logs a warning so
// partially configured deployments still serve their working capabilities.
func (c *GatewayConfig) Validate() error {
	if c.Limits.StreamTimeout <= 0 {
		return fmt.Errorf("stream timeout must be positive, got %v", c.Limits.StreamTimeout)
	}
	if c.Limits.StreamIdleTimeout <= 0 {
		return fmt.Errorf("stream idle timeout must be positive, got %v", c.Limits.StreamIdleTimeout)
	}
	if c.Limits.MaxResponseSize <= 0 {
		return fmt.Errorf("max response size must be positive, got %d", c.Limits.MaxResponseSize)
	}
	if c.Limits.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.Limits.MaxUploadSize)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %v", c.RateLimit.Window)
	}
	if c.RateLimit.DefaultQuota <= 0 {
		return fmt.Errorf("rate limit quota must be positive, got %d", c.RateLimit.DefaultQuota)
	}

	for _, cred := range c.Credentials {
		if cred.Provider == "" || cred.Value == "" {
			return fmt.Errorf("credential entries require provider and value")
		}
	}

	seen := make(map[string]bool)
	for _, m := range c.Models {
		if m.ID == "" || m.Provider == "" {
			return fmt.Errorf("model entries require id and provider")
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate model id: %s", m.ID)
		}
		seen[m.ID] = true

		if _, ok := c.CredentialFor(m.Provider); !ok {
			ctx := logger.WithComponent(context.Background(), "Config")
			logger.Warn(ctx, "Model configured without a provider credential",
				"model", m.ID,
				"provider", m.Provider,
			)
		}
	}

	return nil
}
