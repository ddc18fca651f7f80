package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit. Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		records repository.InventoryRecordRepository,
		movements repository.StockMovementRepository,
	) error) error
}

// ReferenceCache atajo opcional de idempotencia: recuerda qué movimiento produjo una referencia.
// El ledger sigue siendo la fuente de verdad; un fallo de la caché nunca hace fallar la operación.
type ReferenceCache interface {
	Get(ctx context.Context, key repository.ReferenceKey) (movementID string, ok bool, err error)
	Put(ctx context.Context, key repository.ReferenceKey, movementID string) error
}

// Recorder recibe métricas de las operaciones de escritura.
type Recorder interface {
	ObserveOperation(op, outcome string, elapsed time.Duration)
	IncRetry(op string)
	IncReplay(op string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, time.Duration) {}
func (nopRecorder) IncRetry(string)                                {}
func (nopRecorder) IncReplay(string)                               {}
