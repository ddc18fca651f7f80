package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferenceTypeTransfer referencia usada por el par TRANSFER_OUT/TRANSFER_IN.
const (
	ReferenceTypeTransfer = "TRANSFER"
	ReferenceTypeInitial  = "INITIAL"
)

// StockMovement es una entrada inmutable del ledger de inventario.
// Quantity siempre es positiva; el sentido lo da el tipo (o los snapshots en ADJUSTMENT).
type StockMovement struct {
	ID             string
	Sequence       int64 // orden total asignado por el almacenamiento
	ProductID      string
	LocationID     string
	Type           MovementType
	Quantity       int64
	QuantityBefore int64
	QuantityAfter  int64
	UnitCost       *decimal.Decimal
	TotalCost      decimal.Decimal
	ReferenceID    string
	ReferenceType  string
	Notes          string
	CreatedAt      time.Time
	CreatedBy      string
}

// SignedQuantity devuelve el cambio con signo que este movimiento aplicó a la cantidad en mano.
func (m *StockMovement) SignedQuantity() int64 {
	switch m.Type.Direction() {
	case DirectionIn:
		return m.Quantity
	case DirectionOut:
		return -m.Quantity
	default:
		return m.QuantityAfter - m.QuantityBefore
	}
}
