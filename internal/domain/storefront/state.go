package storefront

import (
	"sync"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
)

// State holds the inventory and cart shown by the storefront and notifies a
// single listener whenever either sequence is replaced.
//
// Every SetInventory or SetCart call is followed by exactly one synchronous
// call of the listener before the setter returns. Consecutive assignments
// are not batched. Construction does not notify.
//
// Setters must be called from one goroutine at a time; the coordinator's
// loop is the only writer. Getters are safe from any goroutine and may be
// used by the listener.
type State struct {
	mu        sync.RWMutex
	inventory []inventory.Item
	cart      []cart.Line
	onChange  func()
}

func NewState() *State {
	return &State{
		inventory: []inventory.Item{},
		cart:      []cart.Line{},
	}
}

// Inventory returns a snapshot of the current inventory.
func (s *State) Inventory() []inventory.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return inventory.Clone(s.inventory)
}

// Cart returns a snapshot of the current cart.
func (s *State) Cart() []cart.Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cart.Clone(s.cart)
}

func (s *State) SetInventory(items []inventory.Item) {
	next := inventory.Clone(items)
	if next == nil {
		next = []inventory.Item{}
	}
	s.mu.Lock()
	s.inventory = next
	s.mu.Unlock()
	s.notify()
}

func (s *State) SetCart(lines []cart.Line) {
	next := cart.Clone(lines)
	if next == nil {
		next = []cart.Line{}
	}
	s.mu.Lock()
	s.cart = next
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers fn as the change listener, replacing any previous one.
func (s *State) Subscribe(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *State) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
