package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sitesmith/ai-gateway/internal/logger"
)

// Collection names
const (
	GenerationLogCollection = "generation-logs"
	RateWindowCollection    = "rate-windows"
)

// Connection holds the MongoDB client and database handle. It is created
// explicitly at startup and injected where needed; nothing reads a process
// global.
type Connection struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect establishes a MongoDB connection, verifies it with a ping and
// ensures the indexes the gateway queries against.
func Connect(ctx context.Context, uri, databaseName string) (*Connection, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri).SetAppName("ai-gateway")

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	conn := &Connection{
		Client:   client,
		Database: client.Database(databaseName),
	}

	ctx = logger.WithComponent(ctx, "Database")
	logger.Info(ctx, "Connected to MongoDB", "database", databaseName)

	if err := conn.createIndexes(connectCtx); err != nil {
		// The gateway still works without indexes, just slower
		logger.Warn(ctx, "Failed to create database indexes", "index_error", err.Error())
	}

	return conn, nil
}

// Disconnect closes the MongoDB connection
func (c *Connection) Disconnect() error {
	if c.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return c.Client.Disconnect(ctx)
}

// GetCollection returns a MongoDB collection
func (c *Connection) GetCollection(name string) *mongo.Collection {
	return c.Database.Collection(name)
}

// HealthCheck performs a health check on the MongoDB connection
func (c *Connection) HealthCheck() error {
	if c.Client == nil {
		return fmt.Errorf("MongoDB client is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("MongoDB ping failed: %w", err)
	}

	return nil
}

// createIndexes creates indexes for the generation log collection
func (c *Connection) createIndexes(ctx context.Context) error {
	collection := c.GetCollection(GenerationLogCollection)

	createdAtIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: -1}},
		Options: options.Index().SetName("created_at_desc"),
	}
	capabilityIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "capability", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("capability_created_at_desc"),
	}
	requestIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "request_id", Value: 1}},
		Options: options.Index().SetName("request_id"),
	}
	statusIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "status_code", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("status_code_created_at_desc"),
	}

	indexes := []mongo.IndexModel{createdAtIndex, capabilityIndex, requestIDIndex, statusIndex}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", GenerationLogCollection, err)
	}

	return nil
}
