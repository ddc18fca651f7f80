package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const opAdjust = "adjust"

// AdjustmentProcessor aplica un cambio de cantidad a un único registro y lo deja en el ledger,
// como una sola unidad atómica: bloqueo de fila (SELECT FOR UPDATE), control de versión y Commit/Rollback.
type AdjustmentProcessor struct {
	txRunner TxRunner
	policy   Policy
	log      zerolog.Logger
	cache    ReferenceCache
	metrics  Recorder
	now      func() time.Time
}

// Option configura colaboradores opcionales del procesador.
type Option func(*AdjustmentProcessor)

// WithReferenceCache activa el atajo de idempotencia (p. ej. Redis).
func WithReferenceCache(c ReferenceCache) Option {
	return func(p *AdjustmentProcessor) { p.cache = c }
}

// WithRecorder registra métricas de las operaciones.
func WithRecorder(r Recorder) Option {
	return func(p *AdjustmentProcessor) {
		if r != nil {
			p.metrics = r
		}
	}
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(p *AdjustmentProcessor) { p.now = now }
}

// NewAdjustmentProcessor construye el procesador.
func NewAdjustmentProcessor(txRunner TxRunner, policy Policy, log zerolog.Logger, opts ...Option) *AdjustmentProcessor {
	p := &AdjustmentProcessor{
		txRunner: txRunner,
		policy:   policy,
		log:      log,
		metrics:  nopRecorder{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// AdjustInput entrada de adjustStock. El registro se identifica por RecordID o por (ProductID, LocationID).
//
// Quantity es siempre positiva salvo en ADJUSTMENT, donde es el delta con signo ya resuelto por el
// llamador. Alternativamente, en ADJUSTMENT se puede enviar NewQuantity (conteo físico) y el delta se
// calcula bajo el bloqueo.
type AdjustInput struct {
	RecordID      string
	ProductID     string
	LocationID    string
	Type          entity.MovementType
	Quantity      int64
	NewQuantity   *int64
	UnitCost      *decimal.Decimal
	Notes         string
	ReferenceID   string
	ReferenceType string
	CreatedBy     string
	AllowNegative bool
}

// AdjustResult movimiento registrado y estado del registro tras aplicarlo.
// Replayed indica que la referencia ya existía y se devolvió el resultado original.
type AdjustResult struct {
	Movement *entity.StockMovement
	Record   *entity.InventoryRecord
	Replayed bool
}

// change cambio ya validado que apply escribe sobre un registro bloqueado.
type change struct {
	Type          entity.MovementType
	Delta         int64
	UnitCost      *decimal.Decimal
	Notes         string
	ReferenceID   string
	ReferenceType string
	CreatedBy     string
	AllowNegative bool
	StockCheck    bool
}

func (in AdjustInput) validate() error {
	if in.RecordID == "" && (in.ProductID == "" || in.LocationID == "") {
		return domain.ErrInvalidInput
	}
	if !in.Type.IsKnown() || !in.Type.IsManual() {
		return domain.ErrInvalidMovementType
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return domain.ErrInvalidInput
	}
	if in.Type.Direction() == entity.DirectionEither {
		if in.NewQuantity != nil {
			if *in.NewQuantity < 0 || in.Quantity != 0 {
				return domain.ErrInvalidQuantity
			}
			return nil
		}
		if in.Quantity == 0 {
			return domain.ErrInvalidQuantity
		}
		return nil
	}
	if in.NewQuantity != nil || in.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}

// delta resuelve el cambio con signo a partir de la cantidad actual (ya bloqueada).
func (in AdjustInput) delta(current int64) (int64, error) {
	switch in.Type.Direction() {
	case entity.DirectionIn:
		return in.Quantity, nil
	case entity.DirectionOut:
		return -in.Quantity, nil
	}
	if in.NewQuantity != nil {
		d := *in.NewQuantity - current
		if d == 0 {
			return 0, domain.ErrInvalidQuantity
		}
		return d, nil
	}
	return in.Quantity, nil
}

func (in AdjustInput) referenceKey() repository.ReferenceKey {
	return repository.ReferenceKey{ReferenceID: in.ReferenceID, ReferenceType: in.ReferenceType}
}

// sameOperation indica si el movimiento ya registrado con la referencia corresponde a esta
// misma solicitud sobre el registro dado. Un conteo físico se compara por la cantidad resultante.
func (in AdjustInput) sameOperation(prev *entity.StockMovement, record *entity.InventoryRecord) bool {
	if prev.ProductID != record.ProductID || prev.LocationID != record.LocationID || prev.Type != in.Type {
		return false
	}
	if in.NewQuantity != nil {
		return prev.QuantityAfter == *in.NewQuantity
	}
	if in.Type.Direction() == entity.DirectionEither {
		return prev.SignedQuantity() == in.Quantity
	}
	return prev.Quantity == in.Quantity
}

// Adjust aplica un ajuste (IN, OUT, ADJUSTMENT, RETURN, DAMAGED, ...) a un registro existente.
// Reintenta internamente ante ErrConcurrentModification; ErrInsufficientStock y errores de validación
// se devuelven sin reintentar y sin modificar el estado.
func (p *AdjustmentProcessor) Adjust(ctx context.Context, in AdjustInput) (*AdjustResult, error) {
	start := time.Now()
	if err := in.validate(); err != nil {
		p.metrics.ObserveOperation(opAdjust, outcome(err), time.Since(start))
		return nil, err
	}

	if res, ok := p.replayFromCache(ctx, in); ok {
		p.metrics.IncReplay(opAdjust)
		p.metrics.ObserveOperation(opAdjust, "replayed", time.Since(start))
		return res, nil
	}

	var result *AdjustResult
	err := retry(ctx, p.policy, opAdjust, p.log, p.metrics, func() error {
		return p.txRunner.Run(ctx, func(
			records repository.InventoryRecordRepository,
			movements repository.StockMovementRepository,
		) error {
			res, err := p.adjustInTx(ctx, records, movements, in)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
	})
	p.metrics.ObserveOperation(opAdjust, outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	if result.Replayed {
		p.metrics.IncReplay(opAdjust)
		p.log.Info().
			Str("reference_id", in.ReferenceID).
			Str("movement_id", result.Movement.ID).
			Msg("ajuste repetido, se devuelve el movimiento original")
	} else {
		p.log.Info().
			Str("product_id", result.Record.ProductID).
			Str("location_id", result.Record.LocationID).
			Str("type", result.Movement.Type.String()).
			Int64("quantity", result.Movement.Quantity).
			Int64("after", result.Movement.QuantityAfter).
			Msg("ajuste de inventario registrado")
	}
	if in.ReferenceID != "" && p.cache != nil {
		if err := p.cache.Put(ctx, in.referenceKey(), result.Movement.ID); err != nil {
			p.log.Warn().Err(err).Msg("no se pudo guardar la referencia en caché")
		}
	}
	return result, nil
}

// adjustInTx bloquea el registro, resuelve la idempotencia y aplica el cambio.
func (p *AdjustmentProcessor) adjustInTx(
	ctx context.Context,
	records repository.InventoryRecordRepository,
	movements repository.StockMovementRepository,
	in AdjustInput,
) (*AdjustResult, error) {
	id := in.RecordID
	if id == "" {
		r, err := records.GetByProductAndLocation(ctx, in.ProductID, in.LocationID)
		if err != nil {
			return nil, err
		}
		id = r.ID
	}
	// Bloquea la fila (SELECT FOR UPDATE) para serializar los cambios del registro
	record, err := records.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.ReferenceID != "" {
		prev, err := movements.FindByReference(ctx, in.referenceKey())
		switch {
		case err == nil:
			if !in.sameOperation(prev, record) {
				return nil, fmt.Errorf("referencia %s reutilizada en otra operación: %w", in.ReferenceID, domain.ErrConflict)
			}
			return &AdjustResult{Movement: prev, Record: record, Replayed: true}, nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}

	d, err := in.delta(record.Quantity)
	if err != nil {
		return nil, err
	}
	mov, err := p.apply(ctx, records, movements, record, change{
		Type:          in.Type,
		Delta:         d,
		UnitCost:      in.UnitCost,
		Notes:         in.Notes,
		ReferenceID:   in.ReferenceID,
		ReferenceType: in.ReferenceType,
		CreatedBy:     in.CreatedBy,
		AllowNegative: in.AllowNegative,
		StockCheck:    in.NewQuantity != nil,
	})
	if err != nil {
		return nil, err
	}
	return &AdjustResult{Movement: mov, Record: record}, nil
}

// apply escribe un cambio sobre un registro ya bloqueado: actualiza cantidad, costo y valor,
// persiste el registro y agrega el movimiento con sus snapshots. Lo usan el ajuste y el traslado.
func (p *AdjustmentProcessor) apply(
	ctx context.Context,
	records repository.InventoryRecordRepository,
	movements repository.StockMovementRepository,
	record *entity.InventoryRecord,
	c change,
) (*entity.StockMovement, error) {
	before := record.Quantity
	after := before + c.Delta
	qty := abs(c.Delta)
	if !(c.AllowNegative || p.policy.AllowNegativeStock) {
		// Las salidas solo consumen lo disponible; un conteo físico puede bajar de lo reservado.
		if c.Type.Direction() == entity.DirectionOut && record.AvailableQuantity() < qty {
			return nil, domain.ErrInsufficientStock
		}
		if after < 0 {
			return nil, domain.ErrInsufficientStock
		}
	}
	now := p.now()

	// Costo promedio móvil: solo las entradas con costo unitario lo modifican
	if c.Delta > 0 && c.UnitCost != nil {
		record.AverageCost = domaininv.CostCalculator(
			decimal.NewFromInt(before), record.AverageCost,
			decimal.NewFromInt(qty), *c.UnitCost,
		)
	}
	if c.Delta > 0 && c.Type.Direction() == entity.DirectionIn {
		record.LastRestocked = &now
	}
	if c.StockCheck {
		record.LastStockCheck = &now
	}
	record.Quantity = after
	record.UpdatedAt = now
	record.RecomputeValue()
	if err := records.Update(ctx, record); err != nil {
		return nil, err
	}

	unitCost := record.AverageCost
	if c.UnitCost != nil {
		unitCost = *c.UnitCost
	}
	mov := &entity.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      record.ProductID,
		LocationID:     record.LocationID,
		Type:           c.Type,
		Quantity:       qty,
		QuantityBefore: before,
		QuantityAfter:  after,
		UnitCost:       c.UnitCost,
		TotalCost:      unitCost.Mul(decimal.NewFromInt(qty)),
		ReferenceID:    c.ReferenceID,
		ReferenceType:  c.ReferenceType,
		Notes:          c.Notes,
		CreatedAt:      now,
		CreatedBy:      c.CreatedBy,
	}
	if err := movements.Append(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// replayFromCache resuelve una referencia repetida sin abrir transacción.
func (p *AdjustmentProcessor) replayFromCache(ctx context.Context, in AdjustInput) (*AdjustResult, bool) {
	if p.cache == nil || in.ReferenceID == "" {
		return nil, false
	}
	movID, ok, err := p.cache.Get(ctx, in.referenceKey())
	if err != nil {
		p.log.Warn().Err(err).Msg("caché de referencias no disponible")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var res *AdjustResult
	err = p.txRunner.Run(ctx, func(
		records repository.InventoryRecordRepository,
		movements repository.StockMovementRepository,
	) error {
		mov, err := movements.GetByID(ctx, movID)
		if err != nil {
			return err
		}
		var rec *entity.InventoryRecord
		if in.RecordID != "" {
			rec, err = records.GetByID(ctx, in.RecordID)
		} else {
			rec, err = records.GetByProductAndLocation(ctx, in.ProductID, in.LocationID)
		}
		if err != nil {
			return err
		}
		if !in.sameOperation(mov, rec) {
			return domain.ErrConflict
		}
		res = &AdjustResult{Movement: mov, Record: rec, Replayed: true}
		return nil
	})
	if err != nil {
		// Ante cualquier duda se cae al camino transaccional, que es el que decide.
		return nil, false
	}
	return res, true
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// outcome etiqueta de métrica para el resultado de una operación.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidMovementType),
		errors.Is(err, domain.ErrSameLocation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrLocationNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	default:
		return "error"
	}
}
