package domain

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func widget() *Product {
	return &Product{ID: 1, Name: "Widget", Quantity: 5, Price: decimal.RequireFromString("9.99")}
}

// Feature: inventario, Property 5: Adding the same product accumulates quantity
func TestProperty_AddAccumulatesQuantity(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("add a then add b yields a+b and keeps the first price", prop.ForAll(
		func(first, second int, newPrice float64) bool {
			cart := NewCart()
			p := widget()
			cart.Add(p, first)

			repriced := *p
			repriced.Price = decimal.NewFromFloat(newPrice)
			cart.Add(&repriced, second)

			line := cart.Lines[p.ID]
			if line == nil || len(cart.Lines) != 1 {
				return false
			}
			return line.Quantity == first+second && line.UnitPrice.Equal(p.Price)
		},
		gen.IntRange(1, 1000),
		gen.IntRange(1, 1000),
		gen.Float64Range(0, 500),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: inventario, Property 6: Cart total is the sum of price x quantity
func TestProperty_TotalIsSumOfSubtotals(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total equals manual sum in cents", prop.ForAll(
		func(cents []int64) bool {
			cart := NewCart()
			var expected int64
			for i, c := range cents {
				qty := i%3 + 1
				cart.Add(&Product{ID: int64(i + 1), Name: "p", Price: decimal.New(c, -2)}, qty)
				expected += c * int64(qty)
			}
			return cart.Total().Equal(decimal.New(expected, -2))
		},
		gen.SliceOf(gen.Int64Range(0, 100000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCart_WidgetScenario(t *testing.T) {
	cart := NewCart()
	cart.Add(widget(), 3)
	cart.Add(widget(), 3)

	if got := cart.Lines[1].Quantity; got != 6 {
		t.Fatalf("expected quantity 6, got %d", got)
	}
	if !cart.Total().Equal(decimal.RequireFromString("59.94")) {
		t.Errorf("unexpected total %s", cart.Total())
	}
}

func TestCart_RemoveAndClear(t *testing.T) {
	cart := NewCart()
	cart.Add(widget(), 1)
	cart.Add(&Product{ID: 2, Name: "Gadget", Price: decimal.NewFromInt(3)}, 2)

	if cart.Remove(99) {
		t.Error("removing a missing line should report false")
	}
	if len(cart.Lines) != 2 {
		t.Error("removing a missing line must not change the cart")
	}
	if !cart.Remove(1) || len(cart.Lines) != 1 {
		t.Error("existing line should be removed")
	}

	cart.Clear()
	if !cart.IsEmpty() || !cart.Total().IsZero() {
		t.Error("cleared cart should be empty with zero total")
	}
}

func TestCart_SortedLinesAndJSON(t *testing.T) {
	cart := NewCart()
	for _, id := range []int64{7, 2, 5} {
		cart.Add(&Product{ID: id, Name: "p", Price: decimal.NewFromInt(id)}, 1)
	}

	lines := cart.SortedLines()
	if lines[0].ProductID != 2 || lines[1].ProductID != 5 || lines[2].ProductID != 7 {
		t.Fatalf("lines not sorted by product id: %v", lines)
	}

	data, err := json.Marshal(cart)
	if err != nil {
		t.Fatalf("marshal cart: %v", err)
	}
	var decoded Cart
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if len(decoded.Lines) != 3 || !decoded.Lines[5].UnitPrice.Equal(decimal.NewFromInt(5)) {
		t.Errorf("cart did not survive JSON: %+v", decoded.Lines)
	}
}
