// Package logctx carries the request- or event-scoped logger in a context.
package logctx

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

type loggerKey struct{}

// With stores logger on ctx. A nil ctx or logger returns ctx unchanged.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Enrich derives a logger with fields from the one on ctx, or from base when
// ctx has none, and stores it back.
func Enrich(ctx context.Context, base observability.Logger, fields ...observability.Field) context.Context {
	logger := FromOr(ctx, base)
	if logger == nil {
		logger = observability.NopLogger()
	}
	return With(ctx, logger.With(fields...))
}

// From returns the logger on ctx, or nil.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(observability.Logger)
	return logger
}

// FromOr returns the logger on ctx, falling back to fallback.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	return fallback
}
