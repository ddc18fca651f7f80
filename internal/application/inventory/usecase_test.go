package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Alta
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_RegistraMovimientoDeApertura(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	v, err := f.uc.Create(context.Background(), inventory.CreateInput{
		ProductID: prodA, LocationID: locA, Quantity: 100, Zone: "A", WarehouseLocation: "P3-E2",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(100), v.Record.Quantity)
	assert.Equal(t, int64(1), v.Record.Version)
	assert.Equal(t, domaininv.StatusInStock, v.Status)
	assert.Equal(t, "Arroz 1kg", v.Product.Name)

	movs := f.movementsOf(t, prodA, locA)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeIN, movs[0].Type)
	assert.Equal(t, entity.ReferenceTypeInitial, movs[0].ReferenceType)
	assert.Equal(t, int64(0), movs[0].QuantityBefore)
	f.assertReplay(t, v.Record.ID)
}

func TestCreate_SinCantidadNoGeneraMovimiento(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	rec := f.seed(t, prodB, locA, 0)
	assert.Empty(t, f.movementsOf(t, prodB, locA))
	f.assertReplay(t, rec.ID)
}

func TestCreate_Errores(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.seed(t, prodA, locA, 1)
	ctx := context.Background()

	cases := []struct {
		name string
		in   inventory.CreateInput
		want error
	}{
		{"duplicado", inventory.CreateInput{ProductID: prodA, LocationID: locA}, domain.ErrAlreadyExists},
		{"producto inexistente", inventory.CreateInput{ProductID: "nada", LocationID: locA}, domain.ErrProductNotFound},
		{"ubicación inactiva", inventory.CreateInput{ProductID: prodA, LocationID: locX}, domain.ErrLocationNotFound},
		{"cantidad negativa", inventory.CreateInput{ProductID: prodA, LocationID: locB, Quantity: -1}, domain.ErrInvalidQuantity},
		{"mínimo mayor que máximo", inventory.CreateInput{ProductID: prodA, LocationID: locB, MinStockLevel: i64(10), MaxStockLevel: i64(5)}, domain.ErrInvalidInput},
		{"sin ubicación", inventory.CreateInput{ProductID: prodA}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Create(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Edición y baja
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_CambiaUmbralesSinTocarCantidad(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	rec := f.seed(t, prodA, locA, 5, func(in *inventory.CreateInput) {
		in.MaxStockLevel = i64(50)
	})
	ctx := context.Background()
	zone := "B"

	v, err := f.uc.Update(ctx, rec.ID, inventory.UpdateInput{MinStockLevel: i64(2), ClearMax: true, Zone: &zone})
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Record.Quantity)
	assert.Equal(t, int64(2), *v.Record.MinStockLevel)
	assert.Nil(t, v.Record.MaxStockLevel, "vuelve al máximo del producto")
	assert.Equal(t, "B", v.Record.Zone)
	assert.Equal(t, domaininv.StatusInStock, v.Status)

	v, err = f.uc.Update(ctx, rec.ID, inventory.UpdateInput{ClearMin: true})
	require.NoError(t, err)
	assert.Equal(t, domaininv.StatusLowStock, v.Status, "mínimo del producto: 10")

	_, err = f.uc.Update(ctx, rec.ID, inventory.UpdateInput{MinStockLevel: i64(600)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.Update(ctx, "no-existe", inventory.UpdateInput{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_RequiereCantidadCero(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	rec := f.seed(t, prodA, locA, 3)
	ctx := context.Background()

	assert.ErrorIs(t, f.uc.Delete(ctx, rec.ID), domain.ErrConflict)

	_, err := f.processor.Adjust(ctx, inventory.AdjustInput{RecordID: rec.ID, Type: entity.MovementTypeOUT, Quantity: 3})
	require.NoError(t, err)
	require.NoError(t, f.uc.Delete(ctx, rec.ID))

	_, err = f.uc.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.uc.Delete(ctx, rec.ID), domain.ErrNotFound)

	// El par queda libre para un registro nuevo; el historial se conserva
	again := f.seed(t, prodA, locA, 4)
	assert.NotEqual(t, rec.ID, again.ID)
	assert.Len(t, f.movementsOf(t, prodA, locA), 3)
}

func TestDelete_RegistroVacioSinReservas(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	rec := f.seed(t, prodA, locA, 0)
	ctx := context.Background()

	_, err := f.uc.Reserve(ctx, rec.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	require.NoError(t, f.uc.Delete(ctx, rec.ID))
}

// ──────────────────────────────────────────────────────────────────────────────
// Reservas
// ──────────────────────────────────────────────────────────────────────────────

func TestReservas_CicloCompleto(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	rec := f.seed(t, prodA, locA, 100)
	ctx := context.Background()

	v, err := f.uc.Reserve(ctx, rec.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(100), v.Record.Quantity)
	assert.Equal(t, int64(70), v.Record.AvailableQuantity())

	_, err = f.uc.Reserve(ctx, rec.ID, 71)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, err = f.uc.Release(ctx, rec.ID, 40)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.uc.Reserve(ctx, rec.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	assert.ErrorIs(t, f.uc.Delete(ctx, rec.ID), domain.ErrConflict)

	v, err = f.uc.Release(ctx, rec.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.Record.ReservedQuantity)
	assert.Len(t, f.movementsOf(t, prodA, locA), 1, "las reservas no escriben en el ledger")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestList_FiltraPorEstado(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()
	f.seed(t, prodA, locA, 5)   // bajo el mínimo del producto (10)
	f.seed(t, prodA, locB, 0)   // agotado
	f.seed(t, prodA, locC, 600) // sobre el máximo (500)
	f.seed(t, prodB, locA, 3)   // sin umbrales: en stock

	out, err := f.uc.List(ctx, inventory.ListInput{})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Total)

	for status, want := range map[domaininv.StockStatus]int{
		domaininv.StatusLowStock:    1,
		domaininv.StatusOutOfStock:  1,
		domaininv.StatusOverstocked: 1,
		domaininv.StatusInStock:     1,
	} {
		out, err := f.uc.List(ctx, inventory.ListInput{Status: status})
		require.NoError(t, err)
		assert.Equal(t, want, out.Total, string(status))
		for _, item := range out.Items {
			assert.Equal(t, status, item.Status)
		}
	}

	out, err = f.uc.List(ctx, inventory.ListInput{Filter: repository.RecordFilter{LocationID: locA}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)

	out, err = f.uc.List(ctx, inventory.ListInput{Filter: repository.RecordFilter{Search: "frijol"}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)

	out, err = f.uc.List(ctx, inventory.ListInput{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, 4, out.Total)

	_, err = f.uc.List(ctx, inventory.ListInput{Status: "vencido"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMovements_FiltrosYOrden(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()
	rec := f.seed(t, prodA, locA, 10)
	for _, q := range []int64{1, 2, 3} {
		_, err := f.processor.Adjust(ctx, inventory.AdjustInput{RecordID: rec.ID, Type: entity.MovementTypeOUT, Quantity: q})
		require.NoError(t, err)
	}

	list, total, err := f.uc.Movements(ctx, repository.MovementFilter{ProductID: prodA, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].Quantity, "más reciente primero")
	assert.Greater(t, list[0].Sequence, list[1].Sequence)

	_, _, err = f.uc.Movements(ctx, repository.MovementFilter{Types: []entity.MovementType{"NADA"}})
	assert.ErrorIs(t, err, domain.ErrInvalidMovementType)

	from := time.Now().Add(time.Hour)
	to := time.Now()
	_, _, err = f.uc.Movements(ctx, repository.MovementFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalizeMovementFilter_Limites(t *testing.T) {
	got, err := inventory.NormalizeMovementFilter(repository.MovementFilter{Offset: -4})
	require.NoError(t, err)
	assert.Equal(t, 50, got.Limit)
	assert.Equal(t, 0, got.Offset)

	got, err = inventory.NormalizeMovementFilter(repository.MovementFilter{Limit: 10_000})
	require.NoError(t, err)
	assert.Equal(t, 500, got.Limit)
}

func TestReconcile_DetectaDesajuste(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()
	rec := f.seed(t, prodA, locA, 10)

	// Se altera la cantidad materializada sin pasar por el ledger
	_, err := f.db.ExecContext(ctx, `UPDATE inventory_records SET quantity = 99 WHERE id = ?`, rec.ID)
	require.NoError(t, err)

	res, err := f.uc.Reconcile(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, res.Consistent)
	assert.Equal(t, int64(99), res.RecordQuantity)
	assert.Equal(t, int64(10), res.LedgerQuantity)
	assert.Equal(t, -1, res.BrokenAt)
}

func TestExportKardex_TotalesPorSentido(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()
	rec := f.seed(t, prodA, locA, 20)
	_, err := f.processor.Adjust(ctx, inventory.AdjustInput{RecordID: rec.ID, Type: entity.MovementTypeOUT, Quantity: 8})
	require.NoError(t, err)
	_, err = f.processor.Adjust(ctx, inventory.AdjustInput{RecordID: rec.ID, Type: entity.MovementTypeADJUSTMENT, Quantity: -2})
	require.NoError(t, err)

	renderer := &captureRenderer{}
	doc, report, err := f.uc.ExportKardex(ctx, repository.MovementFilter{ProductID: prodA}, renderer)
	require.NoError(t, err)

	assert.Equal(t, "%PDF-fake", string(doc))
	assert.Equal(t, int64(20), report.UnitsIn)
	assert.Equal(t, int64(10), report.UnitsOut)
	assert.Equal(t, 3, report.Total)
	assert.False(t, report.Truncated())
	assert.Len(t, renderer.report.Movements, 3)
}
