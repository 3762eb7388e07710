package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
)

// InventoryRepository serves a fixed catalog in insertion order.
type InventoryRepository struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.Item
}

func NewInventoryRepository(seed ...domain.Item) *InventoryRepository {
	r := &InventoryRepository{
		items: make(map[string]domain.Item, len(seed)),
	}
	for _, it := range seed {
		if _, dup := r.items[it.ID]; dup {
			continue
		}
		r.order = append(r.order, it.ID)
		r.items[it.ID] = it
	}
	return r
}

func (r *InventoryRepository) List(ctx context.Context) ([]domain.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Item, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

func (r *InventoryRepository) Get(ctx context.Context, id string) (domain.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}
	return it, nil
}
