package entity

import "github.com/shopspring/decimal"

// Product producto del catálogo externo; el núcleo solo lo lee.
type Product struct {
	ID            string
	SKU           string
	Name          string
	Category      string
	MinStockLevel *int64
	MaxStockLevel *int64
	UnitCost      decimal.Decimal
	Active        bool
}
