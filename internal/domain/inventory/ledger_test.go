package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

func mov(t entity.MovementType, qty, before, after int64) *entity.StockMovement {
	return &entity.StockMovement{Type: t, Quantity: qty, QuantityBefore: before, QuantityAfter: after}
}

// ──────────────────────────────────────────────────────────────────────────────
// Replay y continuidad de snapshots
// ──────────────────────────────────────────────────────────────────────────────

func TestReplay_SumaConSigno(t *testing.T) {
	movs := []*entity.StockMovement{
		mov(entity.MovementTypeIN, 100, 0, 100),
		mov(entity.MovementTypeOUT, 30, 100, 70),
		mov(entity.MovementTypeTRANSFEROUT, 20, 70, 50),
		mov(entity.MovementTypeADJUSTMENT, 5, 50, 45),
		mov(entity.MovementTypeRETURN, 2, 45, 47),
	}
	assert.Equal(t, int64(47), inventory.Replay(movs))
	assert.Equal(t, -1, inventory.ChainBroken(movs))
}

func TestReplay_Vacio(t *testing.T) {
	assert.Equal(t, int64(0), inventory.Replay(nil))
	assert.Equal(t, -1, inventory.ChainBroken(nil))
}

func TestChainBroken_DetectaSaltoEntreMovimientos(t *testing.T) {
	movs := []*entity.StockMovement{
		mov(entity.MovementTypeIN, 10, 0, 10),
		mov(entity.MovementTypeOUT, 3, 12, 9),
	}
	assert.Equal(t, 1, inventory.ChainBroken(movs))
}

func TestChainBroken_DetectaSnapshotIncoherente(t *testing.T) {
	movs := []*entity.StockMovement{
		mov(entity.MovementTypeIN, 10, 0, 11),
	}
	assert.Equal(t, 0, inventory.ChainBroken(movs))
}
