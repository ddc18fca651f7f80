package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRecord representa el stock actual de un producto en una ubicación (bodega o sucursal).
// Es una caché materializada del ledger de movimientos: solo lo modifican el procesador de ajustes
// y el coordinador de traslados.
type InventoryRecord struct {
	ID                string
	ProductID         string
	LocationID        string
	Quantity          int64
	ReservedQuantity  int64
	MinStockLevel     *int64 // nil = usa el mínimo del producto
	MaxStockLevel     *int64 // nil = usa el máximo del producto
	WarehouseLocation string // pasillo/estante, texto libre
	Zone              string
	AverageCost       decimal.Decimal // costo promedio móvil
	TotalValue        decimal.Decimal // Quantity * AverageCost
	Version           int64
	LastRestocked     *time.Time
	LastStockCheck    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// AvailableQuantity es la cantidad disponible para venta o traslado (nunca se persiste).
func (r *InventoryRecord) AvailableQuantity() int64 {
	return r.Quantity - r.ReservedQuantity
}

// RecomputeValue recalcula TotalValue a partir de la cantidad y el costo promedio.
func (r *InventoryRecord) RecomputeValue() {
	r.TotalValue = decimal.NewFromInt(r.Quantity).Mul(r.AverageCost)
}

// Deletable indica si el registro puede darse de baja (sin stock ni reservas).
func (r *InventoryRecord) Deletable() bool {
	return r.Quantity == 0 && r.ReservedQuantity == 0
}
