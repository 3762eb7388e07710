package inventory

import "errors"

var (
	ErrNotFound  = errors.New("inventory: item not found")
	ErrInvalidID = errors.New("inventory: id is required")
)

// Item is a purchasable catalog entry. Items are immutable once loaded; the
// cart store is their source of truth.
type Item struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

func NewItem(id, content string) (Item, error) {
	if id == "" {
		return Item{}, ErrInvalidID
	}
	return Item{ID: id, Content: content}, nil
}

// Find returns the item with the given id.
func Find(items []Item, id string) (Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Clone returns a copy of items that shares no backing array with it.
func Clone(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
