package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	storeService   = "cart-store"
	spanPrefix     = "UC."
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond

	useCaseListInventory = "store.list_inventory"
	useCaseListCart      = "store.list_cart"
	useCaseAddLine       = "store.add_line"
	useCaseUpdateLine    = "store.update_line"
	useCaseRemoveLine    = "store.remove_line"
)

// Service is the cart store behind the REST API the storefront talks to.
type Service struct {
	inventory inventory.Repository
	carts     cart.Repository
	publisher domoutbox.Publisher

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewService(inv inventory.Repository, carts cart.Repository, publisher domoutbox.Publisher, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	if publisher == nil {
		publisher = domoutbox.NopPublisher{}
	}
	metricsProvider := tel.Metrics()
	return &Service{
		inventory:    inv,
		carts:        carts,
		publisher:    publisher,
		log:          tel.Logger().With(observability.F("service", storeService)),
		tracer:       tel.Tracer(),
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:   metricsProvider.Counter(observability.MExternalRequests),
		extHistogram: metricsProvider.Histogram(observability.MExternalRequestDuration),
	}
}

// AddLineInput is the POST /cart body: the inventory item fields plus amount.
type AddLineInput struct {
	ID      string
	Content string
	Amount  int
}

func (s *Service) ListInventory(ctx context.Context) (items []inventory.Item, err error) {
	ctx, finish := s.begin(ctx, useCaseListInventory)
	defer func() { finish(err, observability.F("items", len(items))) }()

	items, err = s.inventory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list inventory: %w", err)
	}
	return items, nil
}

func (s *Service) ListCart(ctx context.Context) (lines []cart.Line, err error) {
	ctx, finish := s.begin(ctx, useCaseListCart)
	defer func() { finish(err, observability.F("lines", len(lines))) }()

	lines, err = s.carts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list cart: %w", err)
	}
	return lines, nil
}

// AddLine persists a new line for an inventory item. The content defaults to
// the catalog's when the request leaves it empty.
func (s *Service) AddLine(ctx context.Context, in AddLineInput) (line cart.Line, err error) {
	ctx, finish := s.begin(ctx, useCaseAddLine,
		attribute.String("line.id", in.ID),
		attribute.Int("line.amount", in.Amount),
	)
	defer func() { finish(err, observability.F("line_id", in.ID), observability.F("amount", in.Amount)) }()

	item, err := s.inventory.Get(ctx, in.ID)
	if err != nil {
		return cart.Line{}, fmt.Errorf("store: add line: %w", err)
	}
	if in.Content != "" {
		item.Content = in.Content
	}
	line, err = cart.NewLine(item, in.Amount)
	if err != nil {
		return cart.Line{}, fmt.Errorf("store: add line: %w", err)
	}
	if err = s.carts.Insert(ctx, line); err != nil {
		return cart.Line{}, fmt.Errorf("store: add line: %w", err)
	}

	s.publish(ctx, cart.NewLineAddedEvent(line))
	return line, nil
}

func (s *Service) UpdateLine(ctx context.Context, id string, amount int) (line cart.Line, err error) {
	ctx, finish := s.begin(ctx, useCaseUpdateLine,
		attribute.String("line.id", id),
		attribute.Int("line.amount", amount),
	)
	defer func() { finish(err, observability.F("line_id", id), observability.F("amount", amount)) }()

	if amount < cart.MinAmount {
		return cart.Line{}, fmt.Errorf("store: update line: %w", cart.ErrInvalidAmount)
	}
	line, err = s.carts.Get(ctx, id)
	if err != nil {
		return cart.Line{}, fmt.Errorf("store: update line: %w", err)
	}
	previous := line.Amount
	line.Amount = amount
	if err = s.carts.Update(ctx, line); err != nil {
		return cart.Line{}, fmt.Errorf("store: update line: %w", err)
	}

	s.publish(ctx, cart.NewLineUpdatedEvent(line, previous))
	return line, nil
}

func (s *Service) RemoveLine(ctx context.Context, id string) (line cart.Line, err error) {
	ctx, finish := s.begin(ctx, useCaseRemoveLine, attribute.String("line.id", id))
	defer func() { finish(err, observability.F("line_id", id)) }()

	line, err = s.carts.Delete(ctx, id)
	if err != nil {
		return cart.Line{}, fmt.Errorf("store: remove line: %w", err)
	}

	s.publish(ctx, cart.NewLineRemovedEvent(line))
	return line, nil
}

// begin opens the span for useCase and returns the function that closes
// it, records RED metrics and writes the use_case_done line.
func (s *Service) begin(ctx context.Context, useCase string, attrs ...attribute.KeyValue) (context.Context, func(error, ...observability.Field)) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCase))
	ctx, span := s.tracer.Start(ctx, spanPrefix+useCase,
		append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)...,
	)
	start := time.Now()

	return ctx, func(err error, extra ...observability.Field) {
		outcome, statusText := "success", "OK"
		if err != nil {
			outcome, statusText = "error", "FAILED"
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		latency := time.Since(start).Seconds()
		s.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
		s.durHistogram.Observe(latency, observability.L("use_case", useCase))

		fields := append([]observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
		}, extra...)
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}
}

// publish is best effort: a failed publish is logged and counted but does
// not fail the write that produced the event.
func (s *Service) publish(ctx context.Context, event domoutbox.Event) {
	endpoint := event.EventName()
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	start := time.Now()
	err := s.publisher.Publish(pubCtx, event)
	cancel()

	outcome := "success"
	if err != nil {
		outcome = "error"
		logctx.FromOr(ctx, s.log).Warn("event_publish_failed",
			observability.F("event", endpoint),
			observability.F("error", err),
		)
	}
	s.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	s.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
	)
}
