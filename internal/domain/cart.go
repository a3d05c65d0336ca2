package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CartLine is one product in a session cart. UnitPrice is the price seen
// when the product was first added and is never refreshed.
type CartLine struct {
	ProductID int64           `json:"id"`
	Name      string          `json:"nombre"`
	UnitPrice decimal.Decimal `json:"precio"`
	Quantity  int             `json:"cantidad"`
}

// Subtotal returns UnitPrice x Quantity
func (l *CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the pre-checkout collection of lines owned by one session
type Cart struct {
	Lines map[int64]*CartLine `json:"lines"`
}

// NewCart returns an empty cart
func NewCart() *Cart {
	return &Cart{Lines: make(map[int64]*CartLine)}
}

// Add accumulates quantity on an existing line or creates a new line
// snapshotting the product's current name and price.
func (c *Cart) Add(p *Product, quantity int) *CartLine {
	if c.Lines == nil {
		c.Lines = make(map[int64]*CartLine)
	}
	if line, ok := c.Lines[p.ID]; ok {
		line.Quantity += quantity
		return line
	}
	line := &CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  quantity,
	}
	c.Lines[p.ID] = line
	return line
}

// Remove deletes the line for productID and reports whether it existed
func (c *Cart) Remove(productID int64) bool {
	if _, ok := c.Lines[productID]; !ok {
		return false
	}
	delete(c.Lines, productID)
	return true
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Lines = make(map[int64]*CartLine)
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// Total sums the line subtotals
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// SortedLines returns the lines ordered by product id
func (c *Cart) SortedLines() []*CartLine {
	if c == nil {
		return nil
	}
	lines := make([]*CartLine, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductID < lines[j].ProductID
	})
	return lines
}
