package workerpresentation

import (
	"context"

	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext injects an event-scoped logger for a background handler.
// A logger already on ctx takes precedence over base.
// Dynamic fields only: event name, event_id (generated if empty), trace_id
// and span_id when the context carries a valid span, plus caller-provided
// low-cardinality attributes.
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	e domoutbox.Event,
	attrs map[string]string,
) context.Context {
	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields := make([]observability.Field, 0, 4+len(attrs))
	fields = append(fields, observability.F("event_id", evtID))
	if e != nil {
		fields = append(fields, observability.F("event", e.EventName()))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}

	for k, v := range attrs {
		if k == "event_id" || k == "event" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.Enrich(ctx, base, fields...)
}
