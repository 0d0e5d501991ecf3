package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// rateWindow is the persisted counter document
type rateWindow struct {
	Key         string    `bson:"_id"`
	WindowStart time.Time `bson:"window_start"`
	ExpiresAt   time.Time `bson:"expires_at"`
	Count       int64     `bson:"count"`
}

// MongoStore is a CounterStore backed by a MongoDB collection. Increments use
// a single findOneAndUpdate with $inc and upsert, which is the atomic
// increment-with-expiry primitive: concurrent requests for the same key never
// race a read against a write. Expiry is a TTL index on expires_at.
type MongoStore struct {
	collection *mongo.Collection
	now        func() time.Time
	incr       func(ctx context.Context, key string, window time.Duration) (int64, bool, error)
}

// NewMongoStore creates a Mongo-backed counter store and ensures the TTL index
func NewMongoStore(ctx context.Context, collection *mongo.Collection) (*MongoStore, error) {
	ttlIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("expires_at_ttl").SetExpireAfterSeconds(0),
	}
	if _, err := collection.Indexes().CreateOne(ctx, ttlIndex); err != nil {
		return nil, fmt.Errorf("failed to create rate window TTL index: %w", err)
	}

	s := &MongoStore{collection: collection, now: time.Now}
	s.incr = s.incrOnce
	return s, nil
}

// Incr implements CounterStore
func (s *MongoStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	// TTL deletion runs on a background cadence, so an expired document can
	// linger briefly; one delete-and-retry covers that gap.
	for attempt := 0; attempt < 2; attempt++ {
		count, expired, err := s.incr(ctx, key, window)
		if err != nil {
			// Two concurrent first-in-window upserts race on _id; the loser
			// sees a duplicate key error and increments the winner's
			// document on retry.
			if mongo.IsDuplicateKeyError(err) && attempt == 0 {
				continue
			}
			return 0, err
		}
		if !expired {
			return count, nil
		}
		if _, err := s.collection.DeleteOne(ctx, bson.M{
			"_id":        key,
			"expires_at": bson.M{"$lte": s.now()},
		}); err != nil {
			return 0, fmt.Errorf("failed to delete expired rate window: %w", err)
		}
	}
	return 0, fmt.Errorf("rate window for %s stayed expired after retry", key)
}

func (s *MongoStore) incrOnce(ctx context.Context, key string, window time.Duration) (count int64, expired bool, err error) {
	now := s.now()
	filter := bson.M{"_id": key}
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$setOnInsert": bson.M{
			"window_start": now,
			"expires_at":   now.Add(window),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var w rateWindow
	if err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&w); err != nil {
		return 0, false, fmt.Errorf("failed to increment rate window: %w", err)
	}

	if !w.ExpiresAt.After(now) {
		return 0, true, nil
	}
	return w.Count, false, nil
}
