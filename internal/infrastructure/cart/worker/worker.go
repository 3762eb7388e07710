package worker

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/store"
	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	workerpresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/worker"
)

const componentCartWorker = "cart_activity_worker"

// Worker records an activity entry for every cart event the store publishes.
type Worker struct {
	subscriber domoutbox.Subscriber
	activity   application.UseCase[domoutbox.Event, store.Activity]
	log        observability.Logger
}

func New(subscriber domoutbox.Subscriber, activity application.UseCase[domoutbox.Event, store.Activity], logger observability.Logger) *Worker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Worker{
		subscriber: subscriber,
		activity:   activity,
		log:        logger.With(observability.F("component", componentCartWorker)),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.activity == nil {
		return
	}
	for _, name := range []string{
		domcart.EventLineAdded,
		domcart.EventLineUpdated,
		domcart.EventLineRemoved,
	} {
		w.subscriber.Subscribe(name, w.handle)
	}
}

func (w *Worker) handle(ctx context.Context, e domoutbox.Event) error {
	ctx = workerpresentation.WithEventContext(ctx, w.log, e, nil)

	if _, err := w.activity.Execute(ctx, e); err != nil {
		logctx.FromOr(ctx, w.log).Warn("cart_activity_failed", observability.F("error", err))
		return fmt.Errorf("cart worker: %w", err)
	}
	return nil
}
