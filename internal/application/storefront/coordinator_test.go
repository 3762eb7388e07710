package storefront

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/presentation/dom"
	"github.com/Zhima-Mochi/minishop-storefront/internal/presentation/view"
)

// fakeClient is an in-memory CartService. errs is keyed by method name.
// When checkoutGate is set, Checkout blocks until it is closed.
type fakeClient struct {
	mu           sync.Mutex
	inventory    []inventory.Item
	lines        []cart.Line
	errs         map[string]error
	calls        []string
	checkoutGate chan struct{}
}

func (f *fakeClient) Lines() []cart.Line {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cart.Clone(f.lines)
}

func (f *fakeClient) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.errs[strings.Fields(call)[0]]
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) GetInventory(ctx context.Context) ([]inventory.Item, error) {
	if err := f.record("GetInventory"); err != nil {
		return nil, err
	}
	return inventory.Clone(f.inventory), nil
}

func (f *fakeClient) GetCart(ctx context.Context) ([]cart.Line, error) {
	if err := f.record("GetCart"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cart.Clone(f.lines), nil
}

func (f *fakeClient) AddToCart(ctx context.Context, item inventory.Item, amount int) (cart.Line, error) {
	if err := f.record("AddToCart " + item.ID); err != nil {
		return cart.Line{}, err
	}
	line := cart.Line{ID: item.ID, Content: item.Content, Amount: amount}
	f.mu.Lock()
	f.lines = append(f.lines, line)
	f.mu.Unlock()
	return line, nil
}

func (f *fakeClient) UpdateCart(ctx context.Context, id string, amount int) (cart.Line, error) {
	if err := f.record("UpdateCart " + id); err != nil {
		return cart.Line{}, err
	}
	return cart.Line{ID: id, Amount: amount}, nil
}

func (f *fakeClient) DeleteFromCart(ctx context.Context, id string) (cart.Line, error) {
	if err := f.record("DeleteFromCart " + id); err != nil {
		return cart.Line{}, err
	}
	return cart.Line{ID: id}, nil
}

func (f *fakeClient) Checkout(ctx context.Context) ([]cart.Line, error) {
	if err := f.record("Checkout"); err != nil {
		return nil, err
	}
	if f.checkoutGate != nil {
		select {
		case <-f.checkoutGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := f.lines
	f.lines = nil
	return removed, nil
}

// countingView counts cart renders on top of the real view.
type countingView struct {
	*view.View
	cartRenders atomic.Int32
}

func (v *countingView) RenderCartItems(lines []cart.Line) {
	v.cartRenders.Add(1)
	v.View.RenderCartItems(lines)
}

func startCoordinator(t *testing.T, client *fakeClient) (*Coordinator, *countingView) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	v := &countingView{View: view.New("test", nil)}
	c := New(client, v)
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	settle(t, c)
	return c, v
}

func settle(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Settle(ctx); err != nil {
		t.Fatalf("Settle: %v", err)
	}
}

func click(t *testing.T, c *Coordinator, container dom.Container, class, id string) {
	t.Helper()
	if err := c.Dispatch(context.Background(), dom.Event{Container: container, Class: class, RowID: id}); err != nil {
		t.Fatalf("Dispatch %s %s %s: %v", container, class, id, err)
	}
}

func TestStartupLoadsInventoryAndCart(t *testing.T) {
	client := &fakeClient{
		inventory: []inventory.Item{{ID: "a", Content: "apple"}},
		lines:     []cart.Line{{ID: "a", Content: "apple", Amount: 2}},
	}
	c, v := startCoordinator(t, client)

	if !reflect.DeepEqual(c.Inventory(), client.inventory) {
		t.Fatalf("inventory = %+v", c.Inventory())
	}
	if !reflect.DeepEqual(c.Cart(), client.lines) {
		t.Fatalf("cart = %+v", c.Cart())
	}
	if n := v.cartRenders.Load(); n != 2 {
		t.Fatalf("expected one render per load, got %d", n)
	}
	if amount, ok := v.DisplayedAmount("a"); !ok || amount != 2 {
		t.Fatalf("displayed amount = %d (ok=%v)", amount, ok)
	}
}

func TestAddToCartMergesExistingLine(t *testing.T) {
	client := &fakeClient{
		inventory: []inventory.Item{{ID: "a", Content: "apple"}},
		lines:     []cart.Line{{ID: "a", Content: "apple", Amount: 2}},
	}
	c, _ := startCoordinator(t, client)

	click(t, c, dom.InventoryList, dom.ClassIncrement, "a")
	click(t, c, dom.InventoryList, dom.ClassIncrement, "a")
	click(t, c, dom.InventoryList, dom.ClassAddToCart, "a")
	settle(t, c)

	want := []cart.Line{{ID: "a", Content: "apple", Amount: 5}}
	if got := c.Cart(); !reflect.DeepEqual(got, want) {
		t.Fatalf("cart = %+v, want %+v", got, want)
	}
	calls := client.Calls()
	if calls[len(calls)-1] != "UpdateCart a" {
		t.Fatalf("expected merge to be persisted with UpdateCart, calls = %v", calls)
	}
}

func TestAddToCartAppendsNewLine(t *testing.T) {
	client := &fakeClient{inventory: []inventory.Item{{ID: "b", Content: "banana"}}}
	c, v := startCoordinator(t, client)

	click(t, c, dom.InventoryList, dom.ClassAddToCart, "b")
	settle(t, c)

	want := []cart.Line{{ID: "b", Content: "banana", Amount: 1}}
	if got := c.Cart(); !reflect.DeepEqual(got, want) {
		t.Fatalf("cart = %+v, want %+v", got, want)
	}
	if q, _ := v.SelectedQuantity("b"); q != 1 {
		t.Fatalf("selector should reset to 1 after re-render, got %d", q)
	}
	calls := client.Calls()
	if calls[len(calls)-1] != "AddToCart b" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestAddToCartUnknownItemIsIgnored(t *testing.T) {
	c, v := startCoordinator(t, &fakeClient{})
	before := v.cartRenders.Load()

	click(t, c, dom.InventoryList, dom.ClassAddToCart, "ghost")

	if len(c.Cart()) != 0 || v.cartRenders.Load() != before {
		t.Fatal("unknown item should not change the cart")
	}
}

func TestDeleteTriggersSingleRender(t *testing.T) {
	client := &fakeClient{lines: []cart.Line{{ID: "a", Amount: 1}, {ID: "b", Amount: 1}}}
	c, v := startCoordinator(t, client)
	before := v.cartRenders.Load()

	click(t, c, dom.CartList, dom.ClassDelete, "a")

	if got := c.Cart(); !reflect.DeepEqual(got, []cart.Line{{ID: "b", Amount: 1}}) {
		t.Fatalf("cart = %+v", got)
	}
	if n := v.cartRenders.Load() - before; n != 1 {
		t.Fatalf("expected exactly one re-render, got %d", n)
	}
	settle(t, c)
	calls := client.Calls()
	if calls[len(calls)-1] != "DeleteFromCart a" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestEditStagesAmountUntilSave(t *testing.T) {
	client := &fakeClient{lines: []cart.Line{{ID: "a", Content: "apple", Amount: 1}}}
	c, v := startCoordinator(t, client)
	before := v.cartRenders.Load()

	click(t, c, dom.CartList, dom.ClassEdit, "a")
	click(t, c, dom.CartList, dom.ClassIncrement, "a")
	click(t, c, dom.CartList, dom.ClassIncrement, "a")

	if !v.Editing("a") {
		t.Fatal("row should stay in edit mode while stepping")
	}
	if v.cartRenders.Load() != before {
		t.Fatal("stepping should not re-render")
	}
	if got := c.Cart()[0].Amount; got != 1 {
		t.Fatalf("state amount before save = %d, want 1", got)
	}

	click(t, c, dom.CartList, dom.ClassSave, "a")
	settle(t, c)

	if got := c.Cart()[0].Amount; got != 3 {
		t.Fatalf("state amount after save = %d, want 3", got)
	}
	if v.Editing("a") {
		t.Fatal("save should leave edit mode")
	}
	if n := v.cartRenders.Load() - before; n != 1 {
		t.Fatalf("expected one render on save, got %d", n)
	}
	calls := client.Calls()
	if calls[len(calls)-1] != "UpdateCart a" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestDecrementNeverGoesBelowOne(t *testing.T) {
	client := &fakeClient{lines: []cart.Line{{ID: "a", Amount: 1}}}
	c, v := startCoordinator(t, client)

	click(t, c, dom.CartList, dom.ClassEdit, "a")
	click(t, c, dom.CartList, dom.ClassDecrement, "a")
	if amount, _ := v.DisplayedAmount("a"); amount != 1 {
		t.Fatalf("displayed amount = %d, want 1", amount)
	}
	click(t, c, dom.CartList, dom.ClassSave, "a")

	if got := c.Cart()[0].Amount; got != 1 {
		t.Fatalf("amount = %d, want 1", got)
	}
}

func TestCheckoutClearsCartOnSuccess(t *testing.T) {
	client := &fakeClient{lines: []cart.Line{{ID: "a", Amount: 1}, {ID: "b", Amount: 1}}}
	c, _ := startCoordinator(t, client)

	click(t, c, dom.CheckoutButton, dom.ClassCheckout, "")
	settle(t, c)

	if got := c.Cart(); len(got) != 0 {
		t.Fatalf("cart = %+v, want empty", got)
	}
}

func TestCheckoutFailureLeavesCartUnchanged(t *testing.T) {
	client := &fakeClient{
		lines: []cart.Line{{ID: "a", Amount: 1}, {ID: "b", Amount: 1}},
		errs:  map[string]error{"Checkout": errors.New("delete b: status 500")},
	}
	c, v := startCoordinator(t, client)

	click(t, c, dom.CheckoutButton, dom.ClassCheckout, "")
	settle(t, c)

	want := []cart.Line{{ID: "a", Amount: 1}, {ID: "b", Amount: 1}}
	if got := c.Cart(); !reflect.DeepEqual(got, want) {
		t.Fatalf("cart = %+v, want %+v", got, want)
	}
	if !strings.Contains(v.LastError(), "delete b") {
		t.Fatalf("expected checkout error to be surfaced, got %q", v.LastError())
	}
}

func TestAddDuringCheckoutSurvives(t *testing.T) {
	client := &fakeClient{
		inventory:    []inventory.Item{{ID: "a", Content: "apple"}},
		lines:        []cart.Line{{ID: "b", Content: "banana", Amount: 2}},
		checkoutGate: make(chan struct{}),
	}
	c, v := startCoordinator(t, client)

	click(t, c, dom.CheckoutButton, dom.ClassCheckout, "")
	click(t, c, dom.InventoryList, dom.ClassAddToCart, "a")
	close(client.checkoutGate)
	settle(t, c)

	want := []cart.Line{{ID: "a", Content: "apple", Amount: 1}}
	if got := c.Cart(); !reflect.DeepEqual(got, want) {
		t.Fatalf("local cart = %+v, want %+v", got, want)
	}
	if got := client.Lines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("remote cart = %+v, want %+v", got, want)
	}
	if v.LastError() != "" {
		t.Fatalf("unexpected error banner %q", v.LastError())
	}
}

func TestPersistFailureIsSurfaced(t *testing.T) {
	cases := []struct {
		name   string
		method string
		clicks func(t *testing.T, c *Coordinator)
		want   []cart.Line
	}{
		{
			name:   "add",
			method: "AddToCart",
			clicks: func(t *testing.T, c *Coordinator) {
				click(t, c, dom.InventoryList, dom.ClassAddToCart, "b")
			},
			want: []cart.Line{{ID: "a", Content: "apple", Amount: 1}, {ID: "b", Content: "banana", Amount: 1}},
		},
		{
			name:   "merge",
			method: "UpdateCart",
			clicks: func(t *testing.T, c *Coordinator) {
				click(t, c, dom.InventoryList, dom.ClassAddToCart, "a")
			},
			want: []cart.Line{{ID: "a", Content: "apple", Amount: 2}},
		},
		{
			name:   "save",
			method: "UpdateCart",
			clicks: func(t *testing.T, c *Coordinator) {
				click(t, c, dom.CartList, dom.ClassEdit, "a")
				click(t, c, dom.CartList, dom.ClassIncrement, "a")
				click(t, c, dom.CartList, dom.ClassSave, "a")
			},
			want: []cart.Line{{ID: "a", Content: "apple", Amount: 2}},
		},
		{
			name:   "delete",
			method: "DeleteFromCart",
			clicks: func(t *testing.T, c *Coordinator) {
				click(t, c, dom.CartList, dom.ClassDelete, "a")
			},
			want: []cart.Line{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{
				inventory: []inventory.Item{{ID: "a", Content: "apple"}, {ID: "b", Content: "banana"}},
				lines:     []cart.Line{{ID: "a", Content: "apple", Amount: 1}},
				errs:      map[string]error{tc.method: errors.New("status 503")},
			}
			c, v := startCoordinator(t, client)

			tc.clicks(t, c)
			settle(t, c)

			if got := c.Cart(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("local cart = %+v, want %+v", got, tc.want)
			}
			if !strings.Contains(v.LastError(), "status 503") {
				t.Fatalf("expected %s error to be surfaced, got %q", tc.method, v.LastError())
			}
		})
	}
}

func TestSuccessfulWriteClearsErrorBanner(t *testing.T) {
	client := &fakeClient{
		lines: []cart.Line{{ID: "a", Content: "apple", Amount: 1}},
		errs: map[string]error{
			"GetInventory": errors.New("connection refused"),
			"UpdateCart":   errors.New("status 503"),
		},
	}
	c, v := startCoordinator(t, client)

	// The cart load succeeded alongside the failed inventory load.
	if !strings.Contains(v.LastError(), "connection refused") {
		t.Fatalf("a successful load must not clear the banner, got %q", v.LastError())
	}

	click(t, c, dom.CartList, dom.ClassEdit, "a")
	click(t, c, dom.CartList, dom.ClassIncrement, "a")
	click(t, c, dom.CartList, dom.ClassSave, "a")
	settle(t, c)
	if !strings.Contains(v.LastError(), "status 503") {
		t.Fatalf("expected update error, got %q", v.LastError())
	}

	client.mu.Lock()
	client.errs = nil
	client.mu.Unlock()
	click(t, c, dom.CartList, dom.ClassDelete, "a")
	settle(t, c)
	if v.LastError() != "" {
		t.Fatalf("successful write should clear the banner, got %q", v.LastError())
	}
}

func TestLoadFailureIsSurfaced(t *testing.T) {
	client := &fakeClient{
		lines: []cart.Line{{ID: "a", Amount: 1}},
		errs:  map[string]error{"GetInventory": errors.New("connection refused")},
	}
	c, v := startCoordinator(t, client)

	if len(c.Inventory()) != 0 {
		t.Fatal("inventory should stay empty")
	}
	if len(c.Cart()) != 1 {
		t.Fatal("cart load should still apply")
	}
	if !strings.Contains(v.LastError(), "connection refused") {
		t.Fatalf("expected load error to be surfaced, got %q", v.LastError())
	}
}

func TestPersistedWritesKeepClickOrder(t *testing.T) {
	client := &fakeClient{inventory: []inventory.Item{{ID: "a"}}}
	c, _ := startCoordinator(t, client)

	click(t, c, dom.InventoryList, dom.ClassAddToCart, "a")
	click(t, c, dom.InventoryList, dom.ClassAddToCart, "a")
	click(t, c, dom.CartList, dom.ClassDelete, "a")
	settle(t, c)

	calls := client.Calls()
	got := strings.Join(calls[len(calls)-3:], ",")
	if got != "AddToCart a,UpdateCart a,DeleteFromCart a" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestDispatchBeforeStart(t *testing.T) {
	c := New(&fakeClient{}, view.New("test", nil))
	err := c.Dispatch(context.Background(), dom.Event{Container: dom.CartList, Class: dom.ClassDelete})
	if !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
}

func TestStartTwice(t *testing.T) {
	c, _ := startCoordinator(t, &fakeClient{})
	if err := c.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}
