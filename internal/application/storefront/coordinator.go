package storefront

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/storefront"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/presentation/dom"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	storefrontService = "storefront"
	spanPrefix        = "UC."
)

var (
	ErrNotStarted     = errors.New("storefront: coordinator not started")
	ErrAlreadyStarted = errors.New("storefront: coordinator already started")
	ErrStopped        = errors.New("storefront: coordinator stopped")
)

// remoteCall runs off the loop and returns the continuation to run on it.
type remoteCall func(ctx context.Context) (func(), error)

// Coordinator wires clicks to state changes and keeps the view in sync
// with the state. Every handler and every async continuation runs on a
// single loop goroutine, so the state and the view only ever see one writer.
type Coordinator struct {
	client CartService
	view   Presenter
	state  *domain.State

	tasks    chan func()
	stopped  chan struct{}
	started  atomic.Bool
	runCtx   context.Context
	inflight pending

	// lastRemote orders persisted writes; only touched on the loop.
	lastRemote chan struct{}

	log           observability.Logger
	tracer        observability.Tracer
	reqCounter    observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram  observability.Histogram // usecase_duration_seconds{use_case}
	notifications observability.BoundCounter
}

type Option func(*Coordinator)

func WithObservability(tel observability.Observability) Option {
	return func(c *Coordinator) {
		if tel == nil {
			return
		}
		metrics := tel.Metrics()
		c.log = tel.Logger().With(observability.F("service", storefrontService))
		c.tracer = tel.Tracer()
		c.reqCounter = metrics.Counter(observability.MUsecaseRequests)
		c.durHistogram = metrics.Histogram(observability.MUsecaseDuration)
		c.notifications = metrics.Counter(observability.MStateNotifications).Bind()
	}
}

func New(client CartService, view Presenter, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:  client,
		view:    view,
		state:   domain.NewState(),
		tasks:   make(chan func()),
		stopped: make(chan struct{}),
	}
	WithObservability(observability.Nop())(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the loop and runs the startup protocol on it: subscribe
// the renderer, fire the inventory and cart loads, register the click
// handlers. It returns once startup ran; the loads complete later. The
// loop stops when ctx is done.
func (c *Coordinator) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	c.runCtx = ctx
	go c.loop(ctx)
	return c.call(ctx, c.init)
}

// Done is closed when the loop has stopped.
func (c *Coordinator) Done() <-chan struct{} { return c.stopped }

// Dispatch hands a click to the view's delegated listeners on the loop and
// waits for the synchronous part of its handling.
func (c *Coordinator) Dispatch(ctx context.Context, ev dom.Event) error {
	if !c.started.Load() {
		return ErrNotStarted
	}
	return c.call(ctx, func() error { return c.view.Click(ev) })
}

// Settle waits until every async operation started so far has run its
// continuation.
func (c *Coordinator) Settle(ctx context.Context) error {
	return c.inflight.wait(ctx)
}

// Inventory returns a snapshot of the loaded inventory.
func (c *Coordinator) Inventory() []inventory.Item { return c.state.Inventory() }

// Cart returns a snapshot of the local cart.
func (c *Coordinator) Cart() []cart.Line { return c.state.Cart() }

func (c *Coordinator) init() error {
	c.state.Subscribe(c.render)

	c.load("storefront.load_inventory", func(ctx context.Context) (func(), error) {
		items, err := c.client.GetInventory(ctx)
		if err != nil {
			return nil, err
		}
		return func() { c.state.SetInventory(items) }, nil
	})
	c.load("storefront.load_cart", func(ctx context.Context) (func(), error) {
		lines, err := c.client.GetCart(ctx)
		if err != nil {
			return nil, err
		}
		return func() { c.state.SetCart(lines) }, nil
	})

	return errors.Join(
		c.view.On(dom.InventoryList, c.onInventoryClick),
		c.view.On(dom.CartList, c.onCartClick),
		c.view.On(dom.CheckoutButton, c.onCheckoutClick),
	)
}

// render is the state listener: a full re-render of both lists from the
// current snapshots.
func (c *Coordinator) render() {
	inv, lines := c.state.Inventory(), c.state.Cart()
	c.view.RenderInventoryItems(inv)
	c.view.RenderCartItems(lines)
	c.notifications.Add(1)
	c.log.Debug("state_changed",
		observability.F("inventory_items", len(inv)),
		observability.F("cart_lines", len(lines)),
	)
}

func (c *Coordinator) loop(ctx context.Context) {
	defer close(c.stopped)
	for {
		select {
		case <-ctx.Done():
			c.log.Info("storefront_loop_stopped")
			return
		case fn := <-c.tasks:
			c.run(fn)
		}
	}
}

func (c *Coordinator) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("storefront_task_panic",
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
		}
	}()
	fn()
}

func (c *Coordinator) post(fn func()) bool {
	select {
	case c.tasks <- fn:
		return true
	case <-c.stopped:
		return false
	}
}

// call runs fn on the loop and waits for its result.
func (c *Coordinator) call(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	task := func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("storefront: task panic: %v", r)
			}
			res <- err
		}()
		err = fn()
	}
	select {
	case c.tasks <- task:
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// load starts call immediately; loads are unordered relative to each other.
func (c *Coordinator) load(useCase string, call remoteCall) {
	c.inflight.add()
	go c.exec(useCase, nil, nil, call)
}

// persist queues call behind every previously persisted write so the store
// sees mutations in the order the user made them.
func (c *Coordinator) persist(useCase string, call remoteCall) {
	c.inflight.add()
	prev := c.lastRemote
	done := make(chan struct{})
	c.lastRemote = done
	go c.exec(useCase, prev, done, call)
}

func (c *Coordinator) exec(useCase string, after <-chan struct{}, done chan struct{}, call remoteCall) {
	if after != nil {
		select {
		case <-after:
		case <-c.runCtx.Done():
		}
	}

	ctx, span := c.tracer.Start(c.runCtx, spanPrefix+useCase,
		attribute.String("use_case", useCase),
	)
	start := time.Now()
	cont, err := call(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "REMOTE_CALL_FAILED")
	} else {
		span.SetStatus(codes.Ok, "OK")
	}
	span.End()
	if done != nil {
		close(done)
	}

	latency := time.Since(start).Seconds()
	posted := c.post(func() {
		defer c.inflight.done()
		c.complete(useCase, latency, cont, err, done != nil)
	})
	if !posted {
		c.inflight.done()
	}
}

// complete runs on the loop. A successful user-triggered write clears the
// error banner; loads never do, so a failed load stays visible.
func (c *Coordinator) complete(useCase string, latency float64, cont func(), err error, userWrite bool) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.count(useCase, outcome)
	c.durHistogram.Observe(latency, observability.L("use_case", useCase))

	if err != nil {
		c.log.Error("use_case_done",
			observability.F("use_case", useCase),
			observability.F("outcome", outcome),
			observability.F("latency_seconds", latency),
			observability.F("error", err),
		)
		c.view.RenderError(fmt.Errorf("%s: %w", useCase, err))
		return
	}

	c.log.Info("use_case_done",
		observability.F("use_case", useCase),
		observability.F("outcome", outcome),
		observability.F("latency_seconds", latency),
	)
	if userWrite {
		c.view.RenderError(nil)
	}
	if cont != nil {
		cont()
	}
}

func (c *Coordinator) count(useCase, outcome string) {
	c.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
}
