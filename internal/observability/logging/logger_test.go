package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"  WARN ": slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONLoggerGatesByLevel(t *testing.T) {
	ctx := context.Background()

	logger := NewJSONLogger("svc", "error")
	if logger.Enabled(ctx, slog.LevelWarn) {
		t.Fatalf("error-level logger should not emit warnings")
	}
	if !logger.Enabled(ctx, slog.LevelError) {
		t.Fatalf("error-level logger should emit errors")
	}

	if !NewJSONLogger("svc", "debug").Enabled(ctx, slog.LevelDebug) {
		t.Fatalf("debug-level logger should emit debug records")
	}
}
