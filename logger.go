package lexigo

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/lexigo/model"
)

// Logger wraps slog.Logger with lexigo-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithComponent tags every record with the emitting component.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", name),
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(ctx context.Context, ext model.ExternalID, id model.DocID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"external_id", ext,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"external_id", ext,
			"doc_id", uint32(id),
		)
	}
}

// LogBatchAdd logs a batch add operation.
func (l *Logger) LogBatchAdd(ctx context.Context, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch add completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
	} else {
		l.InfoContext(ctx, "batch add completed",
			"count", count,
		)
	}
}

// LogUpsert logs an upsert operation.
func (l *Logger) LogUpsert(ctx context.Context, ext model.ExternalID, id model.DocID, created bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "upsert failed",
			"external_id", ext,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "upsert completed",
			"external_id", ext,
			"doc_id", uint32(id),
			"created", created,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, query string, limit, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"query", query,
			"limit", limit,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"query", query,
			"limit", limit,
			"results", resultsFound,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, ext model.ExternalID, deleted bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"external_id", ext,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"external_id", ext,
			"deleted", deleted,
		)
	}
}

// LogBackup logs a backup operation.
func (l *Logger) LogBackup(ctx context.Context, backupID string, files int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "backup failed",
			"backup_id", backupID,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "backup completed",
			"backup_id", backupID,
			"files", files,
			"bytes", bytes,
		)
	}
}

// LogRestore logs a restore operation.
func (l *Logger) LogRestore(ctx context.Context, backupID, dir string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"backup_id", backupID,
			"dir", dir,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "restore completed",
			"backup_id", backupID,
			"dir", dir,
		)
	}
}
