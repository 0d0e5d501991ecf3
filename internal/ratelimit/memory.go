package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process CounterStore. The mutex makes increments
// atomic within one process; across multiple gateway instances counters are
// not shared, which is the documented weaker guarantee of this fallback.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time
}

type memoryWindow struct {
	start time.Time
	count int64
}

// NewMemoryStore creates an in-memory counter store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*memoryWindow),
		now:     time.Now,
	}
}

// Incr implements CounterStore. An expired window is replaced rather than
// incremented past its natural expiry.
func (s *MemoryStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= window {
		s.windows[key] = &memoryWindow{start: now, count: 1}
		s.evictExpired(now, window)
		return 1, nil
	}

	w.count++
	return w.count, nil
}

// evictExpired drops stale windows; called under the lock on window rollover
// so the map does not grow without bound.
func (s *MemoryStore) evictExpired(now time.Time, window time.Duration) {
	for key, w := range s.windows {
		if now.Sub(w.start) >= window {
			delete(s.windows, key)
		}
	}
}
