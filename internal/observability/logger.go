// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package observability builds the zerolog logger and the Prometheus metrics
// recorded during a run.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pkd-literature/pkg/types"
)

// NewLogger creates a logger writing to the configured output.
func NewLogger(cfg types.LoggingConfig) zerolog.Logger {
	var out io.Writer = os.Stderr
	if strings.EqualFold(cfg.Output, "stdout") {
		out = os.Stdout
	}
	return NewLoggerTo(out, cfg)
}

// NewLoggerTo creates a logger writing to w. Console and pretty formats use
// zerolog's human-readable writer; anything else emits JSON lines.
func NewLoggerTo(w io.Writer, cfg types.LoggingConfig) zerolog.Logger {
	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(ParseLevel(cfg.Level))
}

// ParseLevel converts a level name to zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithRun tags a logger with the run identifier and query window.
func WithRun(logger zerolog.Logger, runID string, start, end time.Time) zerolog.Logger {
	return logger.With().
		Str("run_id", runID).
		Str("start", start.Format(types.DateLayout)).
		Str("end", end.Format(types.DateLayout)).
		Logger()
}
