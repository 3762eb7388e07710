package view

import (
	"errors"
	"strings"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/presentation/dom"
)

func TestRenderCartItemsIsIdempotent(t *testing.T) {
	v := New("shop", nil)
	lines := []cart.Line{{ID: "a", Content: "apple", Amount: 2}, {ID: "b", Content: "banana", Amount: 1}}

	v.RenderCartItems(lines)
	first, err := v.Fragment(dom.CartList)
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}
	v.RenderCartItems(lines)
	second, err := v.Fragment(dom.CartList)
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}

	if first != second {
		t.Fatalf("fragments differ:\n%s\n---\n%s", first, second)
	}
	if n := strings.Count(second, "<li "); n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
}

func TestRenderInventoryResetsQuantitySelectors(t *testing.T) {
	v := New("shop", nil)
	items := []inventory.Item{{ID: "a", Content: "apple"}}
	v.RenderInventoryItems(items)

	_ = v.Click(dom.Event{Container: dom.InventoryList, Class: dom.ClassIncrement, RowID: "a"})
	if q, _ := v.SelectedQuantity("a"); q != 2 {
		t.Fatalf("quantity = %d, want 2", q)
	}

	v.RenderInventoryItems(items)
	if q, _ := v.SelectedQuantity("a"); q != 1 {
		t.Fatalf("quantity after render = %d, want 1", q)
	}
}

func TestQuantitySelectorFloor(t *testing.T) {
	v := New("shop", nil)
	v.RenderInventoryItems([]inventory.Item{{ID: "a"}})

	_ = v.Click(dom.Event{Container: dom.InventoryList, Class: dom.ClassDecrement, RowID: "a"})
	_ = v.Click(dom.Event{Container: dom.InventoryList, Class: dom.ClassDecrement, RowID: "a"})

	if q, ok := v.SelectedQuantity("a"); !ok || q != 1 {
		t.Fatalf("quantity = %d (ok=%v), want 1", q, ok)
	}
}

func TestStepAmountRequiresEditMode(t *testing.T) {
	v := New("shop", nil)
	v.RenderCartItems([]cart.Line{{ID: "a", Amount: 1}})

	if _, ok := v.StepAmount("a", 1); ok {
		t.Fatal("expected step outside edit mode to be refused")
	}

	v.SetEditing("a", true)
	if n, ok := v.StepAmount("a", -1); !ok || n != 1 {
		t.Fatalf("decrement at 1 = %d (ok=%v), want 1", n, ok)
	}
	if n, _ := v.StepAmount("a", 1); n != 2 {
		t.Fatalf("increment = %d, want 2", n)
	}

	html, _ := v.Fragment(dom.CartList)
	if !strings.Contains(html, dom.ClassSave) || strings.Contains(html, dom.ClassEdit) {
		t.Fatalf("edit mode controls not rendered:\n%s", html)
	}

	v.RenderCartItems([]cart.Line{{ID: "a", Amount: 1}})
	if v.Editing("a") {
		t.Fatal("render should leave edit mode")
	}
}

func TestClickRunsListenersInOrder(t *testing.T) {
	v := New("shop", nil)
	var got []string
	_ = v.On(dom.CartList, func(ev dom.Event) { got = append(got, "first:"+ev.Class) })
	_ = v.On(dom.CartList, func(ev dom.Event) { got = append(got, "second:"+ev.Class) })

	if err := v.Click(dom.Event{Container: dom.CartList, Class: dom.ClassDelete, RowID: "a"}); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if strings.Join(got, ",") != "first:deleteItem-btn,second:deleteItem-btn" {
		t.Fatalf("got %v", got)
	}

	if err := v.Click(dom.Event{Container: "nope"}); !errors.Is(err, dom.ErrUnknownContainer) {
		t.Fatalf("expected ErrUnknownContainer, got %v", err)
	}
}

func TestPageEscapesContentAndShowsError(t *testing.T) {
	v := New("shop", nil)
	v.RenderInventoryItems([]inventory.Item{{ID: "a", Content: "<script>x</script>"}})
	v.RenderError(errors.New("cartapi: checkout failed"))

	var sb strings.Builder
	if err := v.Page(&sb); err != nil {
		t.Fatalf("Page: %v", err)
	}
	page := sb.String()
	if strings.Contains(page, "<script>x</script>") {
		t.Fatal("content was not escaped")
	}
	if !strings.Contains(page, "cartapi: checkout failed") {
		t.Fatal("error banner missing")
	}

	v.RenderError(nil)
	if v.LastError() != "" {
		t.Fatal("expected banner to be cleared")
	}
}
