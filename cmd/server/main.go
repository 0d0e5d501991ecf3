package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/sitesmith/ai-gateway/docs"
	"github.com/sitesmith/ai-gateway/internal/app"
	"github.com/sitesmith/ai-gateway/internal/config"
	"github.com/sitesmith/ai-gateway/internal/logger"
)

func main() {
	// Load .env before anything reads the environment
	if err := config.LoadEnvFile(); err != nil {
		os.Stderr.WriteString("FATAL: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize structured logging
	if err := logger.InitFromEnv(); err != nil {
		os.Stderr.WriteString("FATAL: Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx := context.Background()

	application, err := app.NewApp(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to initialize application", err)
		os.Exit(1)
	}
	defer application.Shutdown()

	addr := fmt.Sprintf("%s:%d", application.Config.Server.Host, application.Config.Server.Port)
	logger.Info(ctx, "Server starting", "address", addr)

	srv := &http.Server{
		Addr:        addr,
		Handler:     application.SetupRoutes(),
		ReadTimeout: application.Config.Server.ReadTimeout,
		IdleTimeout: application.Config.Server.IdleTimeout,
		// No WriteTimeout: SSE responses outlive any fixed write deadline;
		// the relay enforces its own stream budgets.
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error(ctx, "Server failed", err)
		os.Exit(1)
	case sig := <-stop:
		logger.Info(ctx, "Shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn(ctx, "Graceful shutdown incomplete", "shutdown_error", err.Error())
		}
	}
}
