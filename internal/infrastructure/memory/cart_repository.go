package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
)

// CartRepository keeps cart lines in the order they were inserted.
type CartRepository struct {
	mu    sync.RWMutex
	lines []domain.Line
}

func NewCartRepository() *CartRepository {
	return &CartRepository{}
}

func (r *CartRepository) List(ctx context.Context) ([]domain.Line, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := domain.Clone(r.lines)
	if out == nil {
		out = []domain.Line{}
	}
	return out, nil
}

func (r *CartRepository) Get(ctx context.Context, id string) (domain.Line, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := domain.Find(r.lines, id)
	if !ok {
		return domain.Line{}, domain.ErrNotFound
	}
	return l, nil
}

func (r *CartRepository) Insert(ctx context.Context, l domain.Line) error {
	_ = ctx
	if l.ID == "" {
		return fmt.Errorf("cart repository: %w", domain.ErrInvalidID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if domain.Index(r.lines, l.ID) >= 0 {
		return domain.ErrConflict
	}
	r.lines = append(r.lines, l)
	return nil
}

func (r *CartRepository) Update(ctx context.Context, l domain.Line) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	i := domain.Index(r.lines, l.ID)
	if i < 0 {
		return domain.ErrNotFound
	}
	r.lines[i] = l
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, id string) (domain.Line, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	i := domain.Index(r.lines, id)
	if i < 0 {
		return domain.Line{}, domain.ErrNotFound
	}
	l := r.lines[i]
	r.lines = slices.Delete(r.lines, i, i+1)
	return l, nil
}
