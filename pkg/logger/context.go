package logger

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// With stores a child logger carrying fields in the returned context.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, loggerKey{}, From(ctx).With(fields...))
}

// From returns the request logger, or the process default.
func From(ctx context.Context) *slog.Logger {
	return Or(ctx, LoggerWrapper())
}

// Or returns the request logger, or fallback when ctx carries none.
func Or(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return fallback
}
