package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/presentation/dom"
)

const componentView = "view"

var templates = template.Must(template.New("storefront").Parse(pageTemplate + inventoryTemplate + cartTemplate))

// View renders the inventory and cart lists into a dom.Tree and serves the
// resulting page. Rendering always replaces a container's rows wholesale, so
// quantity selectors return to 1 and cart rows leave edit mode.
//
// View is safe for concurrent use; listeners run without the lock held.
type View struct {
	mu      sync.RWMutex
	tree    *dom.Tree
	title   string
	lastErr string
	log     observability.Logger
}

func New(title string, logger observability.Logger) *View {
	if logger == nil {
		logger = observability.NopLogger()
	}
	v := &View{
		tree:  dom.NewTree(dom.InventoryList, dom.CartList, dom.CheckoutButton),
		title: title,
		log:   logger.With(observability.F("component", componentView)),
	}
	// Quantity selection on inventory rows is local to the view.
	_ = v.tree.AddEventListener(dom.InventoryList, v.handleQuantitySelector)
	return v
}

func (v *View) RenderInventoryItems(items []inventory.Item) {
	rows := make([]dom.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, dom.Row{ID: it.ID, Content: it.Content, Quantity: cart.MinAmount})
	}
	v.mu.Lock()
	_ = v.tree.Replace(dom.InventoryList, rows)
	v.mu.Unlock()
}

func (v *View) RenderCartItems(lines []cart.Line) {
	rows := make([]dom.Row, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, dom.Row{ID: l.ID, Content: l.Content, Quantity: l.Amount})
	}
	v.mu.Lock()
	_ = v.tree.Replace(dom.CartList, rows)
	v.mu.Unlock()
}

// RenderError shows err in the page banner. A nil err clears it.
func (v *View) RenderError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err == nil {
		v.lastErr = ""
		return
	}
	v.lastErr = err.Error()
}

// LastError returns the banner text, empty when none is shown.
func (v *View) LastError() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastErr
}

// On registers a delegated listener on container c.
func (v *View) On(c dom.Container, l dom.Listener) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tree.AddEventListener(c, l)
}

// Click dispatches ev to the listeners of its container in registration order.
func (v *View) Click(ev dom.Event) error {
	v.mu.RLock()
	listeners, err := v.tree.Listeners(ev.Container)
	v.mu.RUnlock()
	if err != nil {
		return err
	}
	for _, l := range listeners {
		l(ev)
	}
	return nil
}

// SelectedQuantity reads the quantity selector of an inventory row.
func (v *View) SelectedQuantity(id string) (int, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	r, ok := v.tree.Row(dom.InventoryList, id)
	return r.Quantity, ok
}

// DisplayedAmount reads the amount shown on a cart row.
func (v *View) DisplayedAmount(id string) (int, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	r, ok := v.tree.Row(dom.CartList, id)
	return r.Quantity, ok
}

// SetEditing toggles edit mode on a cart row.
func (v *View) SetEditing(id string, on bool) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tree.Update(dom.CartList, id, func(r *dom.Row) { r.Editing = on })
}

func (v *View) Editing(id string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	r, _ := v.tree.Row(dom.CartList, id)
	return r.Editing
}

// StepAmount changes the displayed amount of a cart row in edit mode by
// delta, never going below cart.MinAmount. It reports false when the row is
// missing or not being edited.
func (v *View) StepAmount(id string, delta int) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	amount, ok := 0, false
	v.tree.Update(dom.CartList, id, func(r *dom.Row) {
		if !r.Editing {
			return
		}
		r.Quantity = step(r.Quantity, delta)
		amount, ok = r.Quantity, true
	})
	return amount, ok
}

func (v *View) handleQuantitySelector(ev dom.Event) {
	var delta int
	switch ev.Class {
	case dom.ClassIncrement:
		delta = 1
	case dom.ClassDecrement:
		delta = -1
	default:
		return
	}
	v.mu.Lock()
	found := v.tree.Update(dom.InventoryList, ev.RowID, func(r *dom.Row) {
		r.Quantity = step(r.Quantity, delta)
	})
	v.mu.Unlock()
	if !found {
		v.log.Debug("quantity_row_missing", observability.F("row_id", ev.RowID))
	}
}

// step applies delta unless that would take n below the floor, in which
// case n is left unchanged.
func step(n, delta int) int {
	if n+delta < cart.MinAmount {
		return n
	}
	return n + delta
}

// Fragment renders the HTML of a single list container.
func (v *View) Fragment(c dom.Container) (string, error) {
	var name string
	switch c {
	case dom.InventoryList:
		name = "inventory"
	case dom.CartList:
		name = "cart"
	default:
		return "", fmt.Errorf("%w: %s", dom.ErrUnknownContainer, c)
	}
	v.mu.RLock()
	rows := v.tree.Rows(c)
	v.mu.RUnlock()

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, rows); err != nil {
		return "", fmt.Errorf("view: render %s: %w", c, err)
	}
	return buf.String(), nil
}

type pageData struct {
	Title     string
	Error     string
	Inventory []dom.Row
	Cart      []dom.Row
}

// Page writes the full document.
func (v *View) Page(w io.Writer) error {
	v.mu.RLock()
	data := pageData{
		Title:     v.title,
		Error:     v.lastErr,
		Inventory: v.tree.Rows(dom.InventoryList),
		Cart:      v.tree.Rows(dom.CartList),
	}
	v.mu.RUnlock()

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "page", data); err != nil {
		return fmt.Errorf("view: render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
