package domain

import (
	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID       int64           `json:"id" db:"id"`
	Name     string          `json:"nombre" db:"nombre"`
	Quantity int             `json:"cantidad" db:"cantidad"`
	Price    decimal.Decimal `json:"precio" db:"precio"`
}

// Customer represents a customer record. Customers are not linked to
// purchases, which reference authenticated users instead.
type Customer struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"nombre" db:"nombre"`
	Address string `json:"direccion" db:"direccion"`
	Email   string `json:"correo_electronico" db:"correo_electronico"`
}
