package inventory

import "github.com/jhoicas/stock-ledger/internal/domain/entity"

// StockStatus clasificación de un registro para listados.
type StockStatus string

const (
	StatusInStock     StockStatus = "in_stock"
	StatusLowStock    StockStatus = "low_stock"
	StatusOutOfStock  StockStatus = "out_of_stock"
	StatusOverstocked StockStatus = "overstocked"
)

// Valid indica si s es un estado conocido.
func (s StockStatus) Valid() bool {
	switch s {
	case StatusInStock, StatusLowStock, StatusOutOfStock, StatusOverstocked:
		return true
	}
	return false
}

// EffectiveMinStock mínimo del registro, si no el del producto, si no 0.
func EffectiveMinStock(record *entity.InventoryRecord, product *entity.Product) int64 {
	if record.MinStockLevel != nil {
		return *record.MinStockLevel
	}
	if product != nil && product.MinStockLevel != nil {
		return *product.MinStockLevel
	}
	return 0
}

// EffectiveMaxStock máximo del registro o del producto; nil si ninguno lo define.
func EffectiveMaxStock(record *entity.InventoryRecord, product *entity.Product) *int64 {
	if record.MaxStockLevel != nil {
		return record.MaxStockLevel
	}
	if product != nil {
		return product.MaxStockLevel
	}
	return nil
}

// Classify es una función pura: no consulta ni modifica estado.
// Un registro en cero siempre es out_of_stock, sin importar el mínimo.
// Cantidades negativas (política que permite stock negativo) también cuentan como agotado.
func Classify(record *entity.InventoryRecord, product *entity.Product) StockStatus {
	qty := record.Quantity
	if qty <= 0 {
		return StatusOutOfStock
	}
	if qty <= EffectiveMinStock(record, product) {
		return StatusLowStock
	}
	if hi := EffectiveMaxStock(record, product); hi != nil && qty > *hi {
		return StatusOverstocked
	}
	return StatusInStock
}
