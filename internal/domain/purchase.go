package domain

import (
	"fmt"
	"time"
)

// Purchase is an append-only record of one product bought in a checkout
type Purchase struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"usuario_id" db:"usuario_id"`
	ProductID   int64     `json:"producto_id" db:"producto_id"`
	Quantity    int       `json:"cantidad" db:"cantidad"`
	PurchasedAt time.Time `json:"fecha" db:"fecha"`
}

// PurchaseLine is a product and quantity requested in a checkout
type PurchaseLine struct {
	ProductID int64
	Name      string
	Quantity  int
}

// PurchaseHistoryEntry is a purchase joined with its product name
type PurchaseHistoryEntry struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"producto_id"`
	ProductName string    `json:"producto"`
	Quantity    int       `json:"cantidad"`
	PurchasedAt time.Time `json:"fecha"`
}

// InsufficientStockError reports a line whose live stock cannot cover the request
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, only %d available", e.Name, e.Requested, e.Available)
}

// ProductUnavailableError reports a cart line whose product no longer exists
type ProductUnavailableError struct {
	ProductID int64
	Name      string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %q is no longer available", e.Name)
}
