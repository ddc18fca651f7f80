package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

func i64(v int64) *int64 { return &v }

// ──────────────────────────────────────────────────────────────────────────────
// Classify: bajo mínimo, agotado, sobre máximo y en stock
// ──────────────────────────────────────────────────────────────────────────────

func TestClassify_BajoMinimoEsLowStock(t *testing.T) {
	r := &entity.InventoryRecord{Quantity: 5, MinStockLevel: i64(10)}
	assert.Equal(t, inventory.StatusLowStock, inventory.Classify(r, nil))
}

func TestClassify_CeroEsOutOfStockSinImportarMinimo(t *testing.T) {
	for _, lo := range []*int64{nil, i64(0), i64(10)} {
		r := &entity.InventoryRecord{Quantity: 0, MinStockLevel: lo}
		assert.Equal(t, inventory.StatusOutOfStock, inventory.Classify(r, nil))
	}
}

func TestClassify_NegativoEsOutOfStock(t *testing.T) {
	r := &entity.InventoryRecord{Quantity: -3}
	assert.Equal(t, inventory.StatusOutOfStock, inventory.Classify(r, nil))
}

func TestClassify_IgualAlMinimoEsLowStock(t *testing.T) {
	r := &entity.InventoryRecord{Quantity: 10, MinStockLevel: i64(10)}
	assert.Equal(t, inventory.StatusLowStock, inventory.Classify(r, nil))
}

func TestClassify_SobreMaximoEsOverstocked(t *testing.T) {
	r := &entity.InventoryRecord{Quantity: 101, MinStockLevel: i64(10), MaxStockLevel: i64(100)}
	assert.Equal(t, inventory.StatusOverstocked, inventory.Classify(r, nil))

	r.Quantity = 100
	assert.Equal(t, inventory.StatusInStock, inventory.Classify(r, nil), "el máximo es inclusivo")
}

func TestClassify_UsaUmbralesDelProducto(t *testing.T) {
	p := &entity.Product{MinStockLevel: i64(20), MaxStockLevel: i64(50)}
	r := &entity.InventoryRecord{Quantity: 15}
	assert.Equal(t, inventory.StatusLowStock, inventory.Classify(r, p))

	r.Quantity = 60
	assert.Equal(t, inventory.StatusOverstocked, inventory.Classify(r, p))

	// El override del registro gana sobre el producto
	r.MaxStockLevel = i64(80)
	assert.Equal(t, inventory.StatusInStock, inventory.Classify(r, p))
}

func TestClassify_SinUmbralesEsInStock(t *testing.T) {
	r := &entity.InventoryRecord{Quantity: 1}
	assert.Equal(t, inventory.StatusInStock, inventory.Classify(r, nil))
}

func TestEffectiveLevels(t *testing.T) {
	p := &entity.Product{MinStockLevel: i64(7)}
	r := &entity.InventoryRecord{}

	assert.Equal(t, int64(7), inventory.EffectiveMinStock(r, p))
	assert.Equal(t, int64(0), inventory.EffectiveMinStock(r, nil))
	assert.Nil(t, inventory.EffectiveMaxStock(r, p))

	r.MinStockLevel = i64(3)
	r.MaxStockLevel = i64(9)
	assert.Equal(t, int64(3), inventory.EffectiveMinStock(r, p))
	assert.Equal(t, int64(9), *inventory.EffectiveMaxStock(r, p))
}

func TestStockStatus_Valid(t *testing.T) {
	assert.True(t, inventory.StatusOverstocked.Valid())
	assert.False(t, inventory.StockStatus("agotado").Valid())
}
