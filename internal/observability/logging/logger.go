// Package logging builds the process-wide slog logger. Output is one JSON
// object per line on stdout, tagged with the service name.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger parses the configured level and returns a service-tagged
// JSON logger. At debug level the handler also records source positions.
func NewJSONLogger(service, level string) *slog.Logger {
	parsed := parseLevel(level)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     parsed,
		AddSource: parsed == slog.LevelDebug,
	})
	return slog.New(handler).With("service", service)
}

// parseLevel is forgiving: unknown values mean info, never a startup failure.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
