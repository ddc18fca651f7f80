package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ReferenceKey identifica una operación ya aplicada para idempotencia. Una referencia de ajuste
// corresponde a un único movimiento, sin importar el par producto/ubicación ni el tipo.
type ReferenceKey struct {
	ReferenceID   string
	ReferenceType string
}

// MovementFilter filtros de consulta del historial.
type MovementFilter struct {
	ProductID  string
	LocationID string
	Types      []entity.MovementType
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// StockMovementRepository puerto del ledger de movimientos. Solo inserta y lee: no hay Update ni Delete.
type StockMovementRepository interface {
	// Append persiste el movimiento tal cual (QuantityBefore/After los calcula el llamador).
	// Asigna ID, Sequence y CreatedAt cuando vienen vacíos.
	Append(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)

	// FindByReference devuelve el primer movimiento registrado con la referencia,
	// o domain.ErrNotFound si la operación no fue aplicada.
	FindByReference(ctx context.Context, key ReferenceKey) (*entity.StockMovement, error)
	ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.StockMovement, error)

	// Query lista el historial (más reciente primero) y el total sin paginar.
	Query(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, int, error)

	// ListForReplay devuelve todos los movimientos del par en orden de secuencia ascendente.
	ListForReplay(ctx context.Context, productID, locationID string) ([]*entity.StockMovement, error)
}
