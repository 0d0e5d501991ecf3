package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyError() error {
	return fmt.Errorf("failed to increment rate window: %w", mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
	})
}

func TestMongoStoreIncr_RetriesOnceOnDuplicateKey(t *testing.T) {
	calls := 0
	store := &MongoStore{now: time.Now}
	store.incr = func(ctx context.Context, key string, window time.Duration) (int64, bool, error) {
		calls++
		if calls == 1 {
			return 0, false, duplicateKeyError()
		}
		return 2, false, nil
	}

	count, err := store.Incr(context.Background(), "text:10.0.0.1", time.Minute)

	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 2, calls, "the losing upsert increments the winner's document on retry")
}

func TestMongoStoreIncr_PersistentDuplicateKeySurfaces(t *testing.T) {
	calls := 0
	store := &MongoStore{now: time.Now}
	store.incr = func(ctx context.Context, key string, window time.Duration) (int64, bool, error) {
		calls++
		return 0, false, duplicateKeyError()
	}

	_, err := store.Incr(context.Background(), "text:10.0.0.1", time.Minute)

	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestMongoStoreIncr_OtherErrorsAreNotRetried(t *testing.T) {
	calls := 0
	store := &MongoStore{now: time.Now}
	store.incr = func(ctx context.Context, key string, window time.Duration) (int64, bool, error) {
		calls++
		return 0, false, errors.New("server selection timeout")
	}

	_, err := store.Incr(context.Background(), "text:10.0.0.1", time.Minute)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
