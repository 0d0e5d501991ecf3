package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GenerationLogRepository provides operations for generation logs
type GenerationLogRepository struct {
	collection *mongo.Collection
}

// NewGenerationLogRepository creates a repository over the given connection
func NewGenerationLogRepository(conn *Connection) *GenerationLogRepository {
	return &GenerationLogRepository{
		collection: conn.GetCollection(GenerationLogCollection),
	}
}

// Insert stores a new generation log
func (r *GenerationLogRepository) Insert(ctx context.Context, log *GenerationLog) error {
	log.CreatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("failed to insert generation log: %w", err)
	}

	return nil
}

// GetByRequestID retrieves a generation log by request ID; nil when absent
func (r *GenerationLogRepository) GetByRequestID(ctx context.Context, requestID string) (*GenerationLog, error) {
	var log GenerationLog
	err := r.collection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&log)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get generation log by request ID: %w", err)
	}

	return &log, nil
}

// GetRecent retrieves recent generation logs with pagination
func (r *GenerationLogRepository) GetRecent(ctx context.Context, limit, offset int64) ([]*GenerationLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find generation logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []*GenerationLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode generation logs: %w", err)
	}

	return logs, nil
}

// CountByCapability aggregates request counts per capability since the given
// time, for the usage reporting surface
func (r *GenerationLogRepository) CountByCapability(ctx context.Context, since time.Time) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$capability",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate generation logs: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Capability string `bson:"_id"`
		Count      int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode aggregation results: %w", err)
	}

	counts := make(map[string]int64, len(results))
	for _, result := range results {
		counts[result.Capability] = result.Count
	}

	return counts, nil
}
