// Package logctx carries a request-scoped logger on a context.Context so a
// handler can attach request_id/trace_id fields once and have every
// downstream use case log with them automatically.
package logctx

import (
	"context"

	"github.com/shopmini/paycore/internal/observability"
)

type loggerKey struct{}

// With stores the logger on the context.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// From retrieves the context logger, or nil if none was stored.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(observability.Logger)
	return logger
}

// FromOr returns the context logger when present, else the fallback.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	return fallback
}
