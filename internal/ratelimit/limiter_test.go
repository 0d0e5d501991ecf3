package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sitesmith/ai-gateway/internal/config"
)

func testRateLimitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Window:       time.Minute,
		DefaultQuota: 3,
		Quotas: map[config.Capability]int{
			config.CapabilityImage: 1,
		},
	}
}

func TestLimiter_QuotaEnforcement(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), testRateLimitConfig())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		decision := limiter.Check(ctx, "10.0.0.1", config.CapabilityText)
		assert.True(t, decision.Allowed, "request %d should be within quota", i)
		assert.Equal(t, int64(i), decision.Count)
	}

	decision := limiter.Check(ctx, "10.0.0.1", config.CapabilityText)
	assert.False(t, decision.Allowed, "request over quota must be rejected")
	assert.Equal(t, 3, decision.Quota)
	assert.Equal(t, time.Minute, decision.RetryAfter)
}

func TestLimiter_CapabilitiesAreIndependentNamespaces(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), testRateLimitConfig())
	ctx := context.Background()

	// Exhaust the image quota
	assert.True(t, limiter.Check(ctx, "10.0.0.1", config.CapabilityImage).Allowed)
	assert.False(t, limiter.Check(ctx, "10.0.0.1", config.CapabilityImage).Allowed)

	// Text for the same client is untouched
	assert.True(t, limiter.Check(ctx, "10.0.0.1", config.CapabilityText).Allowed)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), testRateLimitConfig())
	ctx := context.Background()

	assert.True(t, limiter.Check(ctx, "10.0.0.1", config.CapabilityImage).Allowed)
	assert.False(t, limiter.Check(ctx, "10.0.0.1", config.CapabilityImage).Allowed)

	assert.True(t, limiter.Check(ctx, "10.0.0.2", config.CapabilityImage).Allowed)
}

func TestLimiter_PerCapabilityQuotaOverride(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), testRateLimitConfig())

	decision := limiter.Check(context.Background(), "10.0.0.1", config.CapabilityImage)
	assert.Equal(t, 1, decision.Quota)

	decision = limiter.Check(context.Background(), "10.0.0.1", config.CapabilityScreenshot)
	assert.Equal(t, 3, decision.Quota, "unset capability quota falls back to the default")
}

// brokenStore always fails, simulating an unreachable counter backend
type brokenStore struct{}

func (brokenStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 0, errors.New("counter store unavailable")
}

func TestLimiter_FailsOpenOnStoreError(t *testing.T) {
	limiter := NewLimiter(brokenStore{}, testRateLimitConfig())

	decision := limiter.Check(context.Background(), "10.0.0.1", config.CapabilityText)
	assert.True(t, decision.Allowed, "a broken store must not take the service down")
}
