package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a slog JSON logger for Cloud Logging compatibility. The
// level is read from LOG_LEVEL (debug, info, warn, error), defaulting to info.
func NewLogger(service string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     levelFromEnv(),
	})
	return slog.New(handler).With(slog.String("service", service))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
