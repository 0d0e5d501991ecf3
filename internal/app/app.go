package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sitesmith/ai-gateway/internal/artifact"
	"github.com/sitesmith/ai-gateway/internal/config"
	"github.com/sitesmith/ai-gateway/internal/database"
	"github.com/sitesmith/ai-gateway/internal/gateway"
	"github.com/sitesmith/ai-gateway/internal/httpclient"
	"github.com/sitesmith/ai-gateway/internal/logger"
	"github.com/sitesmith/ai-gateway/internal/middleware"
	"github.com/sitesmith/ai-gateway/internal/provider"
	"github.com/sitesmith/ai-gateway/internal/ratelimit"
	"github.com/sitesmith/ai-gateway/internal/relay"
	"github.com/sitesmith/ai-gateway/internal/router"
)

// App centralizes the application's dependencies and configuration
type App struct {
	Config   *config.GatewayConfig
	Handlers *gateway.Handlers

	db *database.Connection
}

// NewApp loads configuration and wires every component. MongoDB is optional:
// without MONGODB_URI the rate limiter falls back to in-process counters and
// usage logging is disabled.
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ctx = logger.WithComponent(ctx, "App")
	logger.Info(ctx, "Configuration loaded",
		"credentials", len(cfg.Credentials),
		"models", len(cfg.Models),
		"text_enabled", cfg.Features.TextEnabled,
		"image_enabled", cfg.Features.ImageEnabled,
		"screenshot_enabled", cfg.Features.ScreenshotEnabled,
	)

	// logs is declared as the interface so a missing database stays a nil
	// interface, which the handlers test for
	var (
		db           *database.Connection
		logs         gateway.UsageLogStore
		counterStore ratelimit.CounterStore
	)
	if cfg.MongoURI != "" {
		db, err = database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		logs = database.NewGenerationLogRepository(db)

		counterStore, err = ratelimit.NewMongoStore(ctx, db.GetCollection(database.RateWindowCollection))
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn(ctx, "MONGODB_URI not set, using in-process rate limit counters")
		counterStore = ratelimit.NewMemoryStore()
	}

	factory := httpclient.NewFactory(httpclient.Options{})
	registry := provider.NewRegistry(ctx, cfg, factory)

	store, err := artifact.NewDiskStore(cfg.ArtifactDir, cfg.ArtifactURL)
	if err != nil {
		return nil, err
	}

	fetchGuard := artifact.NewFetchGuard(cfg.Fetch,
		factory.CreateClient(httpclient.Options{Timeout: cfg.Fetch.Timeout}))

	handlers := gateway.NewHandlers(
		cfg,
		ratelimit.NewLimiter(counterStore, cfg.RateLimit),
		registry,
		relay.NewRelay(cfg.Limits),
		fetchGuard,
		store,
		db,
		logs,
	)

	return &App{
		Config:   cfg,
		Handlers: handlers,
		db:       db,
	}, nil
}

// SetupRoutes returns the fully assembled HTTP handler
func (a *App) SetupRoutes() http.Handler {
	handler := router.SetupRoutes(a.Handlers, a.Config.ArtifactDir, a.Config.ArtifactURL)
	handler = middleware.RequestCorrelationMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)
	return handler
}

// Shutdown releases held resources
func (a *App) Shutdown() {
	if a.db != nil {
		if err := a.db.Disconnect(); err != nil {
			logger.Warn(context.Background(), "Failed to disconnect from MongoDB",
				"disconnect_error", err.Error(),
			)
		}
	}
}
