package storefront

import (
	"reflect"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
)

func TestSetCartNotifiesOnceBeforeReturning(t *testing.T) {
	s := NewState()
	lines := []cart.Line{{ID: "a", Content: "apple", Amount: 2}}

	calls := 0
	var seen []cart.Line
	s.Subscribe(func() {
		calls++
		seen = s.Cart()
	})

	s.SetCart(lines)

	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}
	if !reflect.DeepEqual(seen, lines) {
		t.Fatalf("listener saw %+v, want %+v", seen, lines)
	}
	if got := s.Cart(); !reflect.DeepEqual(got, lines) {
		t.Fatalf("Cart() = %+v, want %+v", got, lines)
	}
}

func TestEveryAssignmentNotifies(t *testing.T) {
	s := NewState()
	calls := 0
	s.Subscribe(func() { calls++ })

	s.SetInventory([]inventory.Item{{ID: "a", Content: "apple"}})
	s.SetCart(nil)
	s.SetCart(nil)

	if calls != 3 {
		t.Fatalf("expected 3 notifications, got %d", calls)
	}
}

func TestConstructionAndSubscribeDoNotNotify(t *testing.T) {
	s := NewState()
	calls := 0
	s.Subscribe(func() { calls++ })

	if calls != 0 {
		t.Fatalf("expected no notification, got %d", calls)
	}
	if len(s.Inventory()) != 0 || len(s.Cart()) != 0 {
		t.Fatal("expected empty sequences on construction")
	}
}

func TestSubscribeLastListenerWins(t *testing.T) {
	s := NewState()
	first, second := 0, 0
	s.Subscribe(func() { first++ })
	s.Subscribe(func() { second++ })

	s.SetCart([]cart.Line{{ID: "a", Amount: 1}})

	if first != 0 || second != 1 {
		t.Fatalf("first=%d second=%d, want 0 and 1", first, second)
	}
}

func TestSetterWithoutListener(t *testing.T) {
	s := NewState()
	s.SetInventory([]inventory.Item{{ID: "a"}})

	if got := len(s.Inventory()); got != 1 {
		t.Fatalf("expected 1 item, got %d", got)
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	s := NewState()
	input := []cart.Line{{ID: "a", Amount: 1}}
	s.SetCart(input)

	input[0].Amount = 9
	snap := s.Cart()
	snap[0].Amount = 7

	if got := s.Cart()[0].Amount; got != 1 {
		t.Fatalf("state amount = %d, want 1", got)
	}
}
