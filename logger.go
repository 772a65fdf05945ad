package seekline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with seekline-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithFile adds the file name to every record.
func (l *Logger) WithFile(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("file", name),
	}
}

// LogOpen logs opening a file or object.
func (l *Logger) LogOpen(ctx context.Context, name, algorithm string, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"name", name,
			"error", err,
		)
		return
	}
	if algorithm != "none" {
		l.InfoContext(ctx, "opened compressed file",
			"name", name,
			"algorithm", algorithm,
			"compressed_size", size,
		)
		return
	}
	l.DebugContext(ctx, "opened file",
		"name", name,
		"size", size,
	)
}

// LogSearch logs a search.
func (l *Logger) LogSearch(ctx context.Context, offset int64, probes, scanned int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"probes", probes,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"offset", offset,
		"probes", probes,
		"scanned", scanned,
		"duration", d,
	)
}

// LogEstimate logs one estimator run.
func (l *Logger) LogEstimate(ctx context.Context, kind string, value float64, samples int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "estimate failed",
			"kind", kind,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "estimate completed",
		"kind", kind,
		"value", value,
		"samples", samples,
	)
}
