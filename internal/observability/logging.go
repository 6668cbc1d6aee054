// Package observability provides structured logging setup for the engine.
//
// All components log through log/slog. This package translates logging
// configuration (level, format) into a configured *slog.Logger so that the
// CLI, daemon, and batch processor emit consistent structured output.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogConfig describes how loggers should be constructed.
type LogConfig struct {
	// Level is one of: debug, info, warn, error. Defaults to info.
	Level string
	// Format is one of: text, json. Defaults to text.
	Format string
}

// ParseLevel converts a level string to a slog.Level.
// Unknown or empty strings default to slog.LevelInfo.
func ParseLevel(level string) slog.Level {
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

// NewLogger creates a slog.Logger writing to w according to cfg.
func NewLogger(w io.Writer, cfg LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// NewDefaultLogger creates a text logger at info level writing to stderr.
func NewDefaultLogger() *slog.Logger {
	return NewLogger(os.Stderr, LogConfig{})
}

// Discard returns a logger that drops all records. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
