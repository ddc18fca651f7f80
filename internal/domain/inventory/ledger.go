package inventory

import "github.com/jhoicas/stock-ledger/internal/domain/entity"

// Replay suma con signo los movimientos (ya ordenados por secuencia) y devuelve la cantidad resultante.
func Replay(movements []*entity.StockMovement) int64 {
	var qty int64
	for _, m := range movements {
		qty += m.SignedQuantity()
	}
	return qty
}

// ChainBroken devuelve el índice del primer movimiento cuyo QuantityBefore no coincide con el
// QuantityAfter del anterior, o -1 si la cadena de snapshots es continua.
func ChainBroken(movements []*entity.StockMovement) int {
	var prev int64
	for i, m := range movements {
		if m.QuantityBefore != prev {
			return i
		}
		if m.QuantityBefore+m.SignedQuantity() != m.QuantityAfter {
			return i
		}
		prev = m.QuantityAfter
	}
	return -1
}
