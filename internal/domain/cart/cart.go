package cart

import (
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
)

var (
	ErrNotFound      = errors.New("cart: line not found")
	ErrConflict      = errors.New("cart: line already exists")
	ErrInvalidAmount = errors.New("cart: amount must be greater than zero")
	ErrInvalidID     = errors.New("cart: id is required")
)

// MinAmount is the floor every quantity control clamps to.
const MinAmount = 1

// Line is one cart entry. ID is the inventory item's id; the cart holds at
// most one line per id because adding an item that is already present
// merges into the existing line.
type Line struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Amount  int    `json:"amount"`
}

func NewLine(item inventory.Item, amount int) (Line, error) {
	if item.ID == "" {
		return Line{}, ErrInvalidID
	}
	if amount < MinAmount {
		return Line{}, ErrInvalidAmount
	}
	return Line{ID: item.ID, Content: item.Content, Amount: amount}, nil
}

// Clamp lifts n to MinAmount.
func Clamp(n int) int {
	if n < MinAmount {
		return MinAmount
	}
	return n
}

// Index returns the position of the line with the given id, or -1.
func Index(lines []Line, id string) int {
	for i, l := range lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the line with the given id.
func Find(lines []Line, id string) (Line, bool) {
	if i := Index(lines, id); i >= 0 {
		return lines[i], true
	}
	return Line{}, false
}

// Add merges amount of item into lines. An existing line with the item's id
// has its amount increased; otherwise a new line is appended. The input is
// not modified. merged reports which case applied.
func Add(lines []Line, item inventory.Item, amount int) (out []Line, line Line, merged bool) {
	out = Clone(lines)
	if i := Index(out, item.ID); i >= 0 {
		out[i].Amount += amount
		return out, out[i], true
	}
	line = Line{ID: item.ID, Content: item.Content, Amount: amount}
	return append(out, line), line, false
}

// SetAmount returns a copy of lines with the amount of the line id replaced
// by the clamped amount. ok is false when no such line exists.
func SetAmount(lines []Line, id string, amount int) (out []Line, line Line, ok bool) {
	out = Clone(lines)
	i := Index(out, id)
	if i < 0 {
		return out, Line{}, false
	}
	out[i].Amount = Clamp(amount)
	return out, out[i], true
}

// Remove returns a copy of lines without any line carrying id.
func Remove(lines []Line, id string) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

// Clone returns a copy of lines that shares no backing array with it.
func Clone(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
