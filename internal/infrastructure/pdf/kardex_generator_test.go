package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":        "0",
		"999":      "999",
		"25000":    "25.000",
		"1000000":  "1.000.000",
		"-1000000": "-1.000.000",
		"-15":      "-15",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(in), "formatMoney(%q)", in)
	}
}

func TestReference(t *testing.T) {
	assert.Equal(t, "TRANSFER t-1", reference(&entity.StockMovement{ReferenceID: "t-1", ReferenceType: "TRANSFER"}))
	assert.Equal(t, "PO-9", reference(&entity.StockMovement{ReferenceID: "PO-9"}))
	assert.Equal(t, "conteo", reference(&entity.StockMovement{Notes: "conteo"}))
	assert.Equal(t, "—", reference(&entity.StockMovement{}))
}

func TestRenderKardex_GeneraPDF(t *testing.T) {
	cost := decimal.NewFromInt(1200)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	report := inventory.KardexReport{
		GeneratedAt: now,
		Movements: []*entity.StockMovement{
			{Type: entity.MovementTypeIN, LocationID: "A", Quantity: 10, QuantityBefore: 0, QuantityAfter: 10, UnitCost: &cost, CreatedAt: now},
			{Type: entity.MovementTypeOUT, LocationID: "A", Quantity: 4, QuantityBefore: 10, QuantityAfter: 6, ReferenceID: "SO-1", CreatedAt: now},
		},
		Total:    3,
		UnitsIn:  10,
		UnitsOut: 4,
	}

	doc, err := NewKardexGenerator("test").RenderKardex(context.Background(), report)
	require.NoError(t, err)
	require.NotEmpty(t, doc)
	assert.Equal(t, "%PDF", string(doc[:4]), "el documento debe ser un PDF")
}

func TestRenderKardex_SinMovimientos(t *testing.T) {
	doc, err := NewKardexGenerator("").RenderKardex(context.Background(), inventory.KardexReport{GeneratedAt: time.Now()})
	require.NoError(t, err)
	assert.NotEmpty(t, doc)
}
