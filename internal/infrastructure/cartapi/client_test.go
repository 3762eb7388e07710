package cartapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
)

// fakeStore is a minimal cart REST backend for client tests.
type fakeStore struct {
	mu        sync.Mutex
	inventory []inventory.Item
	lines     []cart.Line
	failIDs   map[string]int
	requests  []string
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	if r.Header.Get("X-Request-ID") == "" {
		http.Error(w, "missing request id", http.StatusBadRequest)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/inventory":
		writeJSON(w, f.inventory)
	case r.Method == http.MethodGet && r.URL.Path == "/cart":
		writeJSON(w, f.lines)
	case r.Method == http.MethodPost && r.URL.Path == "/cart":
		var l cart.Line
		if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.lines = append(f.lines, l)
		writeJSON(w, l)
	case strings.HasPrefix(r.URL.Path, "/cart/"):
		id := strings.TrimPrefix(r.URL.Path, "/cart/")
		if status, ok := f.failIDs[id]; ok {
			http.Error(w, `{"error":"nope"}`, status)
			return
		}
		i := cart.Index(f.lines, id)
		if i < 0 {
			http.Error(w, `{"error":"cart: line not found"}`, http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPatch:
			var body struct {
				Amount int `json:"amount"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.lines[i].Amount = body.Amount
			writeJSON(w, f.lines[i])
		case http.MethodDelete:
			l := f.lines[i]
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			writeJSON(w, l)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestGetInventoryAndCart(t *testing.T) {
	store := &fakeStore{
		inventory: []inventory.Item{{ID: "1", Content: "apple"}, {ID: "2", Content: "banana"}},
		lines:     []cart.Line{{ID: "1", Content: "apple", Amount: 2}},
	}
	c := newTestClient(t, store)

	items, err := c.GetInventory(context.Background())
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if !reflect.DeepEqual(items, store.inventory) {
		t.Fatalf("items = %+v", items)
	}

	lines, err := c.GetCart(context.Background())
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if !reflect.DeepEqual(lines, store.lines) {
		t.Fatalf("lines = %+v", lines)
	}
}

func TestAddUpdateDelete(t *testing.T) {
	store := &fakeStore{}
	c := newTestClient(t, store)
	ctx := context.Background()

	added, err := c.AddToCart(ctx, inventory.Item{ID: "7", Content: "melon"}, 3)
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if added != (cart.Line{ID: "7", Content: "melon", Amount: 3}) {
		t.Fatalf("added = %+v", added)
	}

	updated, err := c.UpdateCart(ctx, "7", 5)
	if err != nil {
		t.Fatalf("UpdateCart: %v", err)
	}
	if updated.Amount != 5 {
		t.Fatalf("updated amount = %d", updated.Amount)
	}

	deleted, err := c.DeleteFromCart(ctx, "7")
	if err != nil {
		t.Fatalf("DeleteFromCart: %v", err)
	}
	if deleted.ID != "7" || len(store.lines) != 0 {
		t.Fatalf("deleted = %+v, remaining = %+v", deleted, store.lines)
	}
}

func TestNon2xxIsTransportError(t *testing.T) {
	c := newTestClient(t, &fakeStore{})

	_, err := c.DeleteFromCart(context.Background(), "missing")

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if te.Status != http.StatusNotFound {
		t.Errorf("status = %d", te.Status)
	}
	if !strings.Contains(te.Body, "not found") {
		t.Errorf("body = %q", te.Body)
	}
	if te.Op != "delete_from_cart" {
		t.Errorf("op = %q", te.Op)
	}
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := New(srv.URL, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv.Close()

	_, err = c.GetCart(context.Background())

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if te.Status != 0 || te.Err == nil {
		t.Fatalf("expected status 0 and wrapped cause, got %+v", te)
	}
}

func TestMalformedBodyIsTransportError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))

	_, err := c.GetInventory(context.Background())

	var te *TransportError
	if !errors.As(err, &te) || te.Status != http.StatusOK || te.Err == nil {
		t.Fatalf("expected decode TransportError, got %v", err)
	}
}

func TestCheckoutDeletesEveryLine(t *testing.T) {
	store := &fakeStore{lines: []cart.Line{{ID: "a", Amount: 1}, {ID: "b", Amount: 2}}}
	c := newTestClient(t, store)

	deleted, err := c.Checkout(context.Background())
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(deleted) != 2 || deleted[0].ID != "a" || deleted[1].ID != "b" {
		t.Fatalf("deleted = %+v", deleted)
	}
	if len(store.lines) != 0 {
		t.Fatalf("remaining = %+v", store.lines)
	}
}

func TestCheckoutFailsWhenAnyDeleteFails(t *testing.T) {
	store := &fakeStore{
		lines:   []cart.Line{{ID: "a", Amount: 1}, {ID: "b", Amount: 2}},
		failIDs: map[string]int{"b": http.StatusInternalServerError},
	}
	c := newTestClient(t, store)

	_, err := c.Checkout(context.Background())

	var te *TransportError
	if !errors.As(err, &te) || te.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 TransportError, got %v", err)
	}
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("localhost:3000/", nil); err == nil {
		t.Fatal("expected error for relative base url")
	}
}
