package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sitesmith/ai-gateway/internal/utils"
)

// Logger levels
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Context keys
type contextKey string

const (
	RequestIDKey     contextKey = "request_id"
	CorrelationIDKey contextKey = "correlation_id"
	componentKey     contextKey = "component"
	stageKey         contextKey = "stage"
)

// Global logger instance
var Logger *slog.Logger

// Config holds logger configuration
type Config struct {
	Level       slog.Level
	Format      string // "json" or "text"
	Output      string // "stdout", "stderr", or file path
	ServiceName string
	Environment string
}

// DefaultConfig is used when no configuration is provided
var DefaultConfig = Config{
	Level:       LevelInfo,
	Format:      "json",
	Output:      "stdout",
	ServiceName: "ai-generation-gateway",
	Environment: "development",
}

// StructuredLogEntry is the wire format of one log line
type StructuredLogEntry struct {
	Timestamp   string                 `json:"timestamp"`
	Level       string                 `json:"level"`
	Message     string                 `json:"message"`
	Service     string                 `json:"service"`
	Environment string                 `json:"environment"`
	Component   string                 `json:"component,omitempty"`
	Stage       string                 `json:"stage,omitempty"`
	RequestID   string                 `json:"request_id,omitempty"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	Error       map[string]interface{} `json:"error,omitempty"`
}

// Init initializes the global logger
func Init(config Config) error {
	var output *os.File
	var err error

	switch config.Output {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		output, err = os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", config.Output, err)
		}
	}

	var handler slog.Handler
	switch config.Format {
	case "json", "":
		handler = &StructuredJSONHandler{
			writer:      output,
			level:       config.Level,
			serviceName: config.ServiceName,
			environment: config.Environment,
		}
	default:
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{Level: config.Level})
	}

	Logger = slog.New(handler)
	return nil
}

// InitFromEnv initializes the logger from environment variables
func InitFromEnv() error {
	config := DefaultConfig

	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		config.Level = LevelDebug
	case "INFO":
		config.Level = LevelInfo
	case "WARN", "WARNING":
		config.Level = LevelWarn
	case "ERROR":
		config.Level = LevelError
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Format = format
	}
	if output := os.Getenv("LOG_OUTPUT"); output != "" {
		config.Output = output
	}
	if serviceName := os.Getenv("SERVICE_NAME"); serviceName != "" {
		config.ServiceName = serviceName
	}
	if environment := os.Getenv("ENVIRONMENT"); environment != "" {
		config.Environment = environment
	}

	return Init(config)
}

// StructuredJSONHandler implements a custom JSON handler for the structured format
type StructuredJSONHandler struct {
	writer      io.Writer
	level       slog.Level
	serviceName string
	environment string
}

func (h *StructuredJSONHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *StructuredJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *StructuredJSONHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *StructuredJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := StructuredLogEntry{
		Timestamp:   r.Time.Format(time.RFC3339),
		Level:       r.Level.String(),
		Message:     r.Message,
		Service:     h.serviceName,
		Environment: h.environment,
		Attributes:  make(map[string]interface{}),
	}

	if ctx != nil {
		if component, ok := ctx.Value(componentKey).(string); ok {
			entry.Component = component
		}
		if stage, ok := ctx.Value(stageKey).(string); ok {
			entry.Stage = stage
		}
		if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
			entry.RequestID = requestID
		}
		if correlationID, ok := ctx.Value(CorrelationIDKey).(string); ok {
			entry.Attributes["correlation_id"] = correlationID
		}
	}

	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		value := a.Value.Any()

		if key == "error" {
			entry.Error = make(map[string]interface{})
			if err, ok := value.(error); ok {
				entry.Error["message"] = err.Error()
				entry.Error["type"] = fmt.Sprintf("%T", err)
			} else {
				entry.Error["message"] = fmt.Sprintf("%v", value)
			}
			return true
		}

		entry.Attributes[key] = value
		return true
	})

	if len(entry.Attributes) == 0 {
		entry.Attributes = nil
	}

	// Keep image payloads out of the log stream
	if entry.Attributes != nil {
		entry.Attributes = utils.TruncateBase64InData(entry.Attributes).(map[string]interface{})
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(h.writer, string(data))
	return err
}

// WithComponent returns a context tagged with a component name
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// WithStage returns a context tagged with a processing stage
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// logger returns the global logger, initializing a default one if needed
func logger() *slog.Logger {
	if Logger == nil {
		if err := Init(DefaultConfig); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize default logger: %v\n", err)
			return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelDebug}))
		}
	}
	return Logger
}

// Debug logs at debug level with context
func Debug(ctx context.Context, msg string, args ...any) {
	logger().DebugContext(ctx, msg, args...)
}

// Info logs at info level with context
func Info(ctx context.Context, msg string, args ...any) {
	logger().InfoContext(ctx, msg, args...)
}

// Warn logs at warn level with context
func Warn(ctx context.Context, msg string, args ...any) {
	logger().WarnContext(ctx, msg, args...)
}

// Error logs at error level with context; err is attached as the error attribute
func Error(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "error", err)
	logger().ErrorContext(ctx, msg, args...)
}
