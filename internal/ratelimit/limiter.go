package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/sitesmith/ai-gateway/internal/config"
	"github.com/sitesmith/ai-gateway/internal/logger"
)

// CounterStore is the shared counter backing the limiter. Incr atomically
// increments the counter for key within the current window and returns the
// new count. The first increment in a window creates the counter with a TTL
// equal to the window length.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Decision is the outcome of a rate limit check
type Decision struct {
	Allowed    bool
	Count      int64
	Quota      int
	RetryAfter time.Duration
}

// Limiter applies a per-client, per-capability fixed window quota
type Limiter struct {
	store CounterStore
	cfg   config.RateLimitConfig
}

// NewLimiter creates a limiter backed by the given counter store
func NewLimiter(store CounterStore, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{store: store, cfg: cfg}
}

// Check increments the counter for (capability, clientKey) and decides
// whether the request is within quota. Store failures fail open with a
// warning: for a trusted front end, availability wins over strictness.
func (l *Limiter) Check(ctx context.Context, clientKey string, capability config.Capability) Decision {
	quota := l.cfg.QuotaFor(capability)
	key := fmt.Sprintf("%s:%s", capability, clientKey)

	count, err := l.store.Incr(ctx, key, l.cfg.Window)
	if err != nil {
		logger.Warn(logger.WithComponent(ctx, "RateLimiter"), "Counter store unavailable, allowing request",
			"key", key,
			"store_error", err.Error(),
		)
		return Decision{Allowed: true, Quota: quota}
	}

	if count > int64(quota) {
		return Decision{
			Allowed:    false,
			Count:      count,
			Quota:      quota,
			RetryAfter: l.cfg.Window,
		}
	}

	return Decision{Allowed: true, Count: count, Quota: quota}
}
