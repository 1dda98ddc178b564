// ABOUTME: This file provides slog-based structured logging for the service
// ABOUTME: JSON output with lowercase level names, configured from environment
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config carries logger settings loaded from environment variables.
type Config struct {
	Level       string
	Format      string
	ServiceName string
}

// LoadConfigFromEnv loads logger configuration from environment variables.
func LoadConfigFromEnv() Config {
	return Config{
		Level:       getEnvOrDefault("LOG_LEVEL", "info"),
		Format:      getEnvOrDefault("LOG_FORMAT", "json"),
		ServiceName: getEnvOrDefault("SERVICE_NAME", "pharma-radar"),
	}
}

// New builds a logger writing to stdout according to cfg.
func New(cfg Config) *slog.Logger {
	return NewWithWriter(os.Stdout, cfg)
}

// NewWithWriter builds a logger writing to the given writer. Used by tests
// to capture output.
func NewWithWriter(w io.Writer, cfg Config) *slog.Logger {
	options := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Lowercase level names for log-pipeline compatibility
			if a.Key == slog.LevelKey {
				if level, ok := a.Value.Any().(slog.Level); ok {
					return slog.Attr{Key: slog.LevelKey, Value: slog.StringValue(strings.ToLower(level.String()))}
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}

	return slog.New(handler).With("service", cfg.ServiceName)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
