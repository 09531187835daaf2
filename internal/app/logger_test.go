package app

import (
	"context"
	"log/slog"
	"testing"

	_ "github.com/finboard/finboard/testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" Error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, c := range cases {
		if got := parseLogLevel(c.in); got != c.want {
			t.Fatalf("parseLogLevel(%q) = %v want %v", c.in, got, c.want)
		}
	}
}

func TestNewLoggerHonoursConfigLevel(t *testing.T) {
	logger := NewLogger(&Config{LogFormat: "json", LogLevel: "warn"})

	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info must be suppressed at warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatal("warn must be enabled at warn level")
	}
}

func TestNewLoggerNilConfigDefaults(t *testing.T) {
	logger := NewLogger(nil)

	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("nil config must default to info level")
	}
}
