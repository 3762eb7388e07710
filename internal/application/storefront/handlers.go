package storefront

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/presentation/dom"
)

const (
	useCaseAddToCart  = "storefront.add_to_cart"
	useCaseEdit       = "storefront.edit"
	useCaseStepAmount = "storefront.step_amount"
	useCaseSave       = "storefront.save"
	useCaseDelete     = "storefront.delete"
	useCaseCheckout   = "storefront.checkout"

	useCasePersistAdd    = "storefront.persist_add"
	useCasePersistUpdate = "storefront.persist_update"
	useCasePersistDelete = "storefront.persist_delete"
)

// Quantity controls on inventory rows are handled by the view; only the add
// button concerns the coordinator.
func (c *Coordinator) onInventoryClick(ev dom.Event) {
	if ev.Class == dom.ClassAddToCart {
		c.addToCart(ev.RowID)
	}
}

func (c *Coordinator) onCartClick(ev dom.Event) {
	switch ev.Class {
	case dom.ClassEdit:
		c.edit(ev.RowID)
	case dom.ClassIncrement:
		c.stepAmount(ev.RowID, 1)
	case dom.ClassDecrement:
		c.stepAmount(ev.RowID, -1)
	case dom.ClassSave:
		c.save(ev.RowID)
	case dom.ClassDelete:
		c.delete(ev.RowID)
	}
}

func (c *Coordinator) onCheckoutClick(ev dom.Event) {
	if ev.Class == dom.ClassCheckout {
		c.checkout()
	}
}

// addToCart merges the selected quantity into the line with the item's id,
// or appends a new line. Lookups read the current state, not a snapshot
// captured at render time.
func (c *Coordinator) addToCart(id string) {
	item, ok := inventory.Find(c.state.Inventory(), id)
	if !ok {
		c.ignore(useCaseAddToCart, id)
		return
	}
	qty, ok := c.view.SelectedQuantity(id)
	if !ok {
		qty = cart.MinAmount
	}
	qty = cart.Clamp(qty)

	next, line, merged := cart.Add(c.state.Cart(), item, qty)
	c.state.SetCart(next)
	c.count(useCaseAddToCart, "success")

	if merged {
		c.persist(useCasePersistUpdate, func(ctx context.Context) (func(), error) {
			_, err := c.client.UpdateCart(ctx, line.ID, line.Amount)
			return nil, err
		})
		return
	}
	c.persist(useCasePersistAdd, func(ctx context.Context) (func(), error) {
		_, err := c.client.AddToCart(ctx, item, qty)
		return nil, err
	})
}

// edit is presentational only.
func (c *Coordinator) edit(id string) {
	if !c.view.SetEditing(id, true) {
		c.ignore(useCaseEdit, id)
		return
	}
	c.count(useCaseEdit, "success")
}

// stepAmount stages the change in the row; Save commits it. Notifying here
// would re-render the row out of edit mode on every click.
func (c *Coordinator) stepAmount(id string, delta int) {
	if _, ok := c.view.StepAmount(id, delta); !ok {
		c.ignore(useCaseStepAmount, id)
		return
	}
	c.count(useCaseStepAmount, "success")
}

func (c *Coordinator) save(id string) {
	amount, ok := c.view.DisplayedAmount(id)
	if !ok {
		c.ignore(useCaseSave, id)
		return
	}
	c.view.SetEditing(id, false)

	next, line, ok := cart.SetAmount(c.state.Cart(), id, amount)
	if !ok {
		c.ignore(useCaseSave, id)
		return
	}
	c.state.SetCart(next)
	c.count(useCaseSave, "success")

	c.persist(useCasePersistUpdate, func(ctx context.Context) (func(), error) {
		_, err := c.client.UpdateCart(ctx, line.ID, line.Amount)
		return nil, err
	})
}

func (c *Coordinator) delete(id string) {
	current := c.state.Cart()
	if cart.Index(current, id) < 0 {
		c.ignore(useCaseDelete, id)
		return
	}
	c.state.SetCart(cart.Remove(current, id))
	c.count(useCaseDelete, "success")

	c.persist(useCasePersistDelete, func(ctx context.Context) (func(), error) {
		_, err := c.client.DeleteFromCart(ctx, id)
		return nil, err
	})
}

// checkout removes the lines present at click time once the remote checkout
// succeeded. Lines added while it runs are persisted after it and survive.
// A failed checkout leaves the local cart as it was, even though some
// remote lines may already be gone.
func (c *Coordinator) checkout() {
	current := c.state.Cart()
	ids := make([]string, 0, len(current))
	for _, l := range current {
		ids = append(ids, l.ID)
	}
	c.persist(useCaseCheckout, func(ctx context.Context) (func(), error) {
		if _, err := c.client.Checkout(ctx); err != nil {
			return nil, err
		}
		return func() {
			next := c.state.Cart()
			for _, id := range ids {
				next = cart.Remove(next, id)
			}
			c.state.SetCart(next)
		}, nil
	})
}

func (c *Coordinator) ignore(useCase, id string) {
	c.count(useCase, "ignored")
	c.log.Debug("click_ignored",
		observability.F("use_case", useCase),
		observability.F("row_id", id),
	)
}
