package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_IncrementsWithinWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		count, err := store.Incr(ctx, "text:10.0.0.1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}
}

func TestMemoryStore_WindowReset(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Incr(ctx, "text:10.0.0.1", time.Minute)
		require.NoError(t, err)
	}

	// Just before expiry the counter keeps climbing
	now = now.Add(59 * time.Second)
	count, err := store.Incr(ctx, "text:10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	// Window length after first use, a fresh window starts at 1
	now = now.Add(2 * time.Second)
	count, err = store.Incr(ctx, "text:10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_KeysAreIsolated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Incr(ctx, "text:10.0.0.1", time.Minute)
	require.NoError(t, err)

	count, err := store.Incr(ctx, "image:10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_EvictsExpiredWindowsOnRollover(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := store.Incr(ctx, "text:10.0.0.1", time.Minute)
	require.NoError(t, err)
	_, err = store.Incr(ctx, "text:10.0.0.2", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Incr(ctx, "text:10.0.0.1", time.Minute)
	require.NoError(t, err)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.windows, 1, "stale windows are dropped when a window rolls over")
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const workers = 20
	const perWorker = 50

	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < perWorker; j++ {
				_, err := store.Incr(ctx, "text:10.0.0.1", time.Minute)
				assert.NoError(t, err)
			}
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}

	count, err := store.Incr(ctx, "text:10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker+1), count)
}
