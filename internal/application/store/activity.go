package store

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

// Activity is the audit record derived from one cart event.
type Activity struct {
	Event          string
	LineID         string
	Amount         int
	PreviousAmount int
}

var _ application.UseCase[domoutbox.Event, Activity] = (*RecordActivityUseCase)(nil)

// RecordActivityUseCase turns cart events into activity log lines and the
// cart_events_total counter.
type RecordActivityUseCase struct {
	log    observability.Logger
	events observability.Counter // cart_events_total{event}
}

func NewRecordActivityUseCase(tel observability.Observability) *RecordActivityUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	return &RecordActivityUseCase{
		log:    tel.Logger().With(observability.F("service", storeService)),
		events: tel.Metrics().Counter(observability.MCartEvents),
	}
}

func (uc *RecordActivityUseCase) Execute(ctx context.Context, e domoutbox.Event) (Activity, error) {
	var a Activity
	switch ev := e.(type) {
	case cart.LineAddedEvent:
		a = Activity{Event: ev.EventName(), LineID: ev.Line.ID, Amount: ev.Line.Amount}
	case cart.LineUpdatedEvent:
		a = Activity{Event: ev.EventName(), LineID: ev.Line.ID, Amount: ev.Line.Amount, PreviousAmount: ev.PreviousAmount}
	case cart.LineRemovedEvent:
		a = Activity{Event: ev.EventName(), LineID: ev.Line.ID, PreviousAmount: ev.Line.Amount}
	default:
		return Activity{}, fmt.Errorf("store: unexpected event %T", e)
	}

	uc.events.Add(1, observability.L("event", a.Event))
	logctx.FromOr(ctx, uc.log).Info("cart_activity",
		observability.F("event", a.Event),
		observability.F("line_id", a.LineID),
		observability.F("amount", a.Amount),
		observability.F("previous_amount", a.PreviousAmount),
	)
	return a, nil
}
