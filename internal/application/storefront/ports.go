package storefront

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/presentation/dom"
)

// CartService is the remote cart store.
type CartService interface {
	GetInventory(ctx context.Context) ([]inventory.Item, error)
	GetCart(ctx context.Context) ([]cart.Line, error)
	AddToCart(ctx context.Context, item inventory.Item, amount int) (cart.Line, error)
	UpdateCart(ctx context.Context, id string, amount int) (cart.Line, error)
	DeleteFromCart(ctx context.Context, id string) (cart.Line, error)
	Checkout(ctx context.Context) ([]cart.Line, error)
}

// Presenter renders state snapshots and owns row-level presentational
// state: quantity selectors, edit mode and staged cart amounts.
type Presenter interface {
	RenderInventoryItems(items []inventory.Item)
	RenderCartItems(lines []cart.Line)
	RenderError(err error)

	On(c dom.Container, l dom.Listener) error
	Click(ev dom.Event) error

	SelectedQuantity(id string) (int, bool)
	DisplayedAmount(id string) (int, bool)
	SetEditing(id string, on bool) bool
	StepAmount(id string, delta int) (int, bool)
}
