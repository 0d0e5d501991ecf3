package router

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/sitesmith/ai-gateway/internal/gateway"
	"github.com/sitesmith/ai-gateway/internal/monitoring"
)

// SetupRoutes configures all routes for the application
func SetupRoutes(handlers *gateway.Handlers, artifactDir, artifactURL string) http.Handler {
	mux := http.NewServeMux()

	// Generation endpoints
	mux.HandleFunc("/v1/chat", handlers.HandleChat)
	mux.HandleFunc("/v1/image", handlers.HandleImage)
	mux.HandleFunc("/v1/screenshot-to-code", handlers.HandleScreenshot)

	// Discovery endpoints
	mux.HandleFunc("/v1/models", handlers.HandleModels)
	mux.HandleFunc("/v1/status", handlers.HandleStatus)
	mux.HandleFunc("/v1/usage", handlers.HandleUsage)
	mux.HandleFunc("/health", handlers.HandleHealth)

	// Persisted artifacts are served as static files
	mux.Handle(artifactURL+"/", http.StripPrefix(artifactURL+"/",
		http.FileServer(http.Dir(artifactDir))))

	// Add metrics endpoint
	mux.HandleFunc("/metrics", monitoring.MetricsHandler)

	// Add pprof endpoints for performance profiling
	monitoring.SetupPprofRoutes(mux)

	// Serve Swagger UI with proper configuration
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Wrap with metrics middleware
	return monitoring.MetricsMiddleware(mux)
}
