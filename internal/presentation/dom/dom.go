// Package dom models the storefront page as containers of rows with
// delegated click listeners. It is the server-side stand-in for the browser
// document: the view renders into it and clicks are dispatched through it.
package dom

import (
	"errors"
	"fmt"
)

var ErrUnknownContainer = errors.New("dom: unknown container")

// Container names a list (or control) that listeners attach to.
type Container string

const (
	InventoryList  Container = "inventory__list"
	CartList       Container = "cart__list"
	CheckoutButton Container = "checkout-btn"
)

// Element classes carried by click targets.
const (
	ClassAddToCart = "addToCart-btn"
	ClassIncrement = "increment-btn"
	ClassDecrement = "decrement-btn"
	ClassEdit      = "editItem-btn"
	ClassDelete    = "deleteItem-btn"
	ClassSave      = "saveItem-btn"
	ClassCheckout  = "checkout-btn"
)

// Event is a click inside a container. RowID is the id of the enclosing row,
// empty for controls outside any row.
type Event struct {
	Container Container
	Class     string
	RowID     string
}

func (e Event) String() string {
	if e.RowID == "" {
		return fmt.Sprintf("%s .%s", e.Container, e.Class)
	}
	return fmt.Sprintf("%s #%s .%s", e.Container, e.RowID, e.Class)
}

// Listener handles a delegated click. It inspects Event.Class to decide
// whether the click is meant for it.
type Listener func(Event)

// Row is one list entry. Quantity is the selected quantity on inventory rows
// and the displayed amount on cart rows. Editing is only used on cart rows.
type Row struct {
	ID       string
	Content  string
	Quantity int
	Editing  bool
}

type node struct {
	rows      []Row
	listeners []Listener
}

// Tree holds the rows and listeners of each container. It is not safe for
// concurrent use.
type Tree struct {
	nodes map[Container]*node
}

func NewTree(containers ...Container) *Tree {
	t := &Tree{nodes: make(map[Container]*node, len(containers))}
	for _, c := range containers {
		t.nodes[c] = &node{}
	}
	return t
}

// Replace swaps the container's children for rows.
func (t *Tree) Replace(c Container, rows []Row) error {
	n, ok := t.nodes[c]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContainer, c)
	}
	n.rows = append([]Row(nil), rows...)
	return nil
}

// Rows returns a copy of the container's children.
func (t *Tree) Rows(c Container) []Row {
	n, ok := t.nodes[c]
	if !ok {
		return nil
	}
	return append([]Row(nil), n.rows...)
}

// Update applies fn to the row with the given id in place.
func (t *Tree) Update(c Container, id string, fn func(*Row)) bool {
	n, ok := t.nodes[c]
	if !ok {
		return false
	}
	for i := range n.rows {
		if n.rows[i].ID == id {
			fn(&n.rows[i])
			return true
		}
	}
	return false
}

func (t *Tree) Row(c Container, id string) (Row, bool) {
	n, ok := t.nodes[c]
	if !ok {
		return Row{}, false
	}
	for _, r := range n.rows {
		if r.ID == id {
			return r, true
		}
	}
	return Row{}, false
}

func (t *Tree) AddEventListener(c Container, l Listener) error {
	n, ok := t.nodes[c]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContainer, c)
	}
	n.listeners = append(n.listeners, l)
	return nil
}

// Listeners returns the container's listeners in registration order.
func (t *Tree) Listeners(c Container) ([]Listener, error) {
	n, ok := t.nodes[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContainer, c)
	}
	return append([]Listener(nil), n.listeners...), nil
}
