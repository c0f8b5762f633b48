package colstore

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with column-specific context.
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
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithColumn adds the column name to the logger.
func (l *Logger) WithColumn(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("column", name),
	}
}

// LogOpen logs opening a column.
func (l *Logger) LogOpen(ctx context.Context, path string, mode Mode, nrows int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"path", path,
			"mode", mode,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "column opened",
			"path", path,
			"mode", mode,
			"nrows", nrows,
		)
	}
}

// LogAppend logs an append.
func (l *Logger) LogAppend(ctx context.Context, rows int64, chunks int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "append failed",
			"rows", rows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "append completed",
			"rows", rows,
			"chunks", chunks,
		)
	}
}

// LogWrite logs an in-place write.
func (l *Logger) LogWrite(ctx context.Context, rows int64, chunks int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"rows", rows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "write completed",
			"rows", rows,
			"chunks_rewritten", chunks,
		)
	}
}

// LogSortIndex logs a sort index build.
func (l *Logger) LogSortIndex(ctx context.Context, runs int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sort index build failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "sort index built",
			"runs", runs,
		)
	}
}

// LogClose logs closing a column.
func (l *Logger) LogClose(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "column closed")
	}
}
