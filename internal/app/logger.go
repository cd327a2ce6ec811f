package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger matching the configured output format.
// JSON output carries source locations for log aggregation; the text format
// stays readable for local development.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg != nil && cfg.LogFormat == "json" {
		opts.AddSource = true
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
