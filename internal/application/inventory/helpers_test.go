package inventory_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlite"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: núcleo completo sobre SQLite en un directorio temporal
// ──────────────────────────────────────────────────────────────────────────────

const (
	prodA = "prod-a"
	prodB = "prod-b"
	locA  = "loc-a"
	locB  = "loc-b"
	locC  = "loc-c"
	locX  = "loc-inactiva"
)

type fixture struct {
	db        *sql.DB
	runner    inventory.TxRunner
	processor *inventory.AdjustmentProcessor
	transfers *inventory.TransferCoordinator
	uc        *inventory.InventoryUseCase
	records   *sqlite.InventoryRecordRepo
	movements *sqlite.StockMovementRepo
}

type fixtureOpts struct {
	policy *inventory.Policy
	// wrap permite envolver el TxRunner real (inyección de fallos).
	wrap func(inventory.TxRunner) inventory.TxRunner
	opts []inventory.Option
}

func testPolicy() inventory.Policy {
	p := inventory.DefaultPolicy()
	p.MaxRetries = 10
	p.InitialBackoff = time.Millisecond
	p.MaxBackoff = 5 * time.Millisecond
	return p
}

func newFixture(t *testing.T, fo fixtureOpts) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "inventory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	products := sqlite.NewProductRepository(db)
	locations := sqlite.NewLocationRepository(db)
	require.NoError(t, products.Save(ctx, &entity.Product{
		ID: prodA, SKU: "SKU-A", Name: "Arroz 1kg", Category: "granos",
		MinStockLevel: i64(10), MaxStockLevel: i64(500),
		UnitCost: decimal.RequireFromString("2.50"), Active: true,
	}))
	require.NoError(t, products.Save(ctx, &entity.Product{
		ID: prodB, SKU: "SKU-B", Name: "Frijol 500g", Category: "granos",
		UnitCost: decimal.RequireFromString("1.20"), Active: true,
	}))
	for _, l := range []*entity.Location{
		{ID: locA, Name: "Bodega central", Active: true},
		{ID: locB, Name: "Sucursal norte", Active: true},
		{ID: locC, Name: "Sucursal sur", Active: true},
		{ID: locX, Name: "Bodega cerrada", Active: false},
	} {
		require.NoError(t, locations.Save(ctx, l))
	}

	policy := testPolicy()
	if fo.policy != nil {
		policy = *fo.policy
	}
	var runner inventory.TxRunner = sqlite.NewTxRunner(db)
	if fo.wrap != nil {
		runner = fo.wrap(runner)
	}
	records := sqlite.NewInventoryRecordRepository(db)
	movements := sqlite.NewStockMovementRepository(db)
	processor := inventory.NewAdjustmentProcessor(runner, policy, zerolog.Nop(), fo.opts...)
	return &fixture{
		db:        db,
		runner:    runner,
		processor: processor,
		transfers: inventory.NewTransferCoordinator(processor, products, locations),
		uc:        inventory.NewInventoryUseCase(processor, records, movements, products, locations),
		records:   records,
		movements: movements,
	}
}

// seed crea el registro del par con la cantidad inicial indicada.
func (f *fixture) seed(t *testing.T, productID, locationID string, qty int64, opts ...func(*inventory.CreateInput)) *entity.InventoryRecord {
	t.Helper()
	in := inventory.CreateInput{ProductID: productID, LocationID: locationID, Quantity: qty, CreatedBy: "tester"}
	for _, o := range opts {
		o(&in)
	}
	v, err := f.uc.Create(context.Background(), in)
	require.NoError(t, err)
	return v.Record
}

func (f *fixture) quantity(t *testing.T, productID, locationID string) int64 {
	t.Helper()
	r, err := f.records.GetByProductAndLocation(context.Background(), productID, locationID)
	require.NoError(t, err)
	return r.Quantity
}

// assertReplay comprueba que el ledger del par reproduce la cantidad materializada.
func (f *fixture) assertReplay(t *testing.T, recordID string) {
	t.Helper()
	rec, err := f.uc.Reconcile(context.Background(), recordID)
	require.NoError(t, err)
	require.True(t, rec.Consistent, "registro %s: cantidad %d, ledger %d, ruptura en %d",
		recordID, rec.RecordQuantity, rec.LedgerQuantity, rec.BrokenAt)
}

func (f *fixture) movementsOf(t *testing.T, productID, locationID string, types ...entity.MovementType) []*entity.StockMovement {
	t.Helper()
	list, _, err := f.uc.Movements(context.Background(), repository.MovementFilter{
		ProductID: productID, LocationID: locationID, Types: types, Limit: 500,
	})
	require.NoError(t, err)
	return list
}

func i64(v int64) *int64 { return &v }

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

var errInjected = errors.New("fallo inyectado")

// failingRunner envuelve un TxRunner real y hace fallar el Append del tipo indicado,
// simulando una caída entre el débito y el crédito de un traslado.
type failingRunner struct {
	inner  inventory.TxRunner
	failOn entity.MovementType
}

func (r failingRunner) Run(ctx context.Context, fn func(
	records repository.InventoryRecordRepository,
	movements repository.StockMovementRepository,
) error) error {
	return r.inner.Run(ctx, func(
		records repository.InventoryRecordRepository,
		movements repository.StockMovementRepository,
	) error {
		return fn(records, failingMovements{StockMovementRepository: movements, failOn: r.failOn})
	})
}

type failingMovements struct {
	repository.StockMovementRepository
	failOn entity.MovementType
}

func (m failingMovements) Append(ctx context.Context, mov *entity.StockMovement) error {
	if mov.Type == m.failOn {
		return errInjected
	}
	return m.StockMovementRepository.Append(ctx, mov)
}

// flakyRunner devuelve el error indicado las primeras `failures` veces y luego delega.
type flakyRunner struct {
	mu       sync.Mutex
	inner    inventory.TxRunner
	err      error
	failures int
	calls    int
}

func (r *flakyRunner) Run(ctx context.Context, fn func(
	records repository.InventoryRecordRepository,
	movements repository.StockMovementRepository,
) error) error {
	r.mu.Lock()
	r.calls++
	fail := r.calls <= r.failures
	r.mu.Unlock()
	if fail {
		return r.err
	}
	return r.inner.Run(ctx, fn)
}

func (r *flakyRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// countingRecorder cuenta reintentos y repeticiones por operación.
type countingRecorder struct {
	mu       sync.Mutex
	retries  map[string]int
	replays  map[string]int
	outcomes map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{retries: map[string]int{}, replays: map[string]int{}, outcomes: map[string]int{}}
}

func (r *countingRecorder) ObserveOperation(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[op+":"+outcome]++
}

func (r *countingRecorder) IncRetry(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries[op]++
}

func (r *countingRecorder) IncReplay(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replays[op]++
}

// memoryCache caché de referencias en memoria.
type memoryCache struct {
	mu   sync.Mutex
	data map[repository.ReferenceKey]string
	gets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[repository.ReferenceKey]string{}}
}

func (c *memoryCache) Get(_ context.Context, key repository.ReferenceKey) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	id, ok := c.data[key]
	return id, ok, nil
}

func (c *memoryCache) Put(_ context.Context, key repository.ReferenceKey, movementID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = movementID
	return nil
}

// captureRenderer guarda el reporte recibido.
type captureRenderer struct {
	report inventory.KardexReport
}

func (r *captureRenderer) RenderKardex(_ context.Context, report inventory.KardexReport) ([]byte, error) {
	r.report = report
	return []byte("%PDF-fake"), nil
}
