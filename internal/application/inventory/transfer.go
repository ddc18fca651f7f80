package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const opTransfer = "transfer"

// TransferCoordinator mueve stock de un producto entre dos ubicaciones como una operación indivisible.
// Se apoya en el AdjustmentProcessor: débito TRANSFER_OUT en origen y crédito TRANSFER_IN en destino,
// ambos dentro de la misma transacción.
type TransferCoordinator struct {
	processor    *AdjustmentProcessor
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
}

// NewTransferCoordinator construye el coordinador.
func NewTransferCoordinator(
	processor *AdjustmentProcessor,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
) *TransferCoordinator {
	return &TransferCoordinator{
		processor:    processor,
		productRepo:  productRepo,
		locationRepo: locationRepo,
	}
}

// TransferInput entrada de transferStock. ReferenceID, si viene, es el id del traslado
// y sirve de clave de idempotencia.
type TransferInput struct {
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       int64
	Notes          string
	ReferenceID    string
	CreatedBy      string
}

// TransferResult par de movimientos enlazados y los registros resultantes.
type TransferResult struct {
	TransferID  string
	Out         *entity.StockMovement
	In          *entity.StockMovement
	Source      *entity.InventoryRecord
	Destination *entity.InventoryRecord
	Replayed    bool
}

// Transfer valida, bloquea ambos registros en orden determinista (id ascendente) y registra el par
// de movimientos. Si algo falla después del débito, el Rollback deshace todo: nunca queda un débito
// sin su crédito.
func (c *TransferCoordinator) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	p := c.processor
	start := time.Now()
	res, err := c.transfer(ctx, in)
	p.metrics.ObserveOperation(opTransfer, outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	if res.Replayed {
		p.metrics.IncReplay(opTransfer)
		p.log.Info().Str("transfer_id", res.TransferID).Msg("traslado repetido, se devuelve el resultado original")
		return res, nil
	}
	p.log.Info().
		Str("transfer_id", res.TransferID).
		Str("product_id", in.ProductID).
		Str("from", in.FromLocationID).
		Str("to", in.ToLocationID).
		Int64("quantity", in.Quantity).
		Msg("traslado de inventario registrado")
	return res, nil
}

func (c *TransferCoordinator) transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	// Validaciones previas a cualquier bloqueo
	if in.ProductID == "" || in.FromLocationID == "" || in.ToLocationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if in.FromLocationID == in.ToLocationID {
		return nil, domain.ErrSameLocation
	}
	if _, err := c.productRepo.GetByID(ctx, in.ProductID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	for _, id := range []string{in.FromLocationID, in.ToLocationID} {
		loc, err := c.locationRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrLocationNotFound
			}
			return nil, err
		}
		if !loc.Active {
			return nil, domain.ErrLocationNotFound
		}
	}

	transferID := in.ReferenceID
	if transferID == "" {
		transferID = uuid.New().String()
	}

	p := c.processor
	var result *TransferResult
	err := retry(ctx, p.policy, opTransfer, p.log, p.metrics, func() error {
		return p.txRunner.Run(ctx, func(
			records repository.InventoryRecordRepository,
			movements repository.StockMovementRepository,
		) error {
			res, err := c.transferInTx(ctx, records, movements, in, transferID)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *TransferCoordinator) transferInTx(
	ctx context.Context,
	records repository.InventoryRecordRepository,
	movements repository.StockMovementRepository,
	in TransferInput,
	transferID string,
) (*TransferResult, error) {
	source, err := records.GetByProductAndLocation(ctx, in.ProductID, in.FromLocationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Sin registro en origen no hay nada disponible para trasladar
			return nil, domain.ErrInsufficientStock
		}
		return nil, err
	}
	dest, err := records.GetByProductAndLocation(ctx, in.ProductID, in.ToLocationID)
	if errors.Is(err, domain.ErrNotFound) {
		dest, err = c.createEmpty(ctx, records, in.ProductID, in.ToLocationID)
	}
	if err != nil {
		return nil, err
	}

	// Orden de bloqueo por id, independiente del rol origen/destino, para evitar deadlocks
	// entre traslados cruzados A→B y B→A.
	ids := []string{source.ID, dest.ID}
	sort.Strings(ids)
	locked := make(map[string]*entity.InventoryRecord, 2)
	for _, id := range ids {
		r, err := records.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = r
	}
	source, dest = locked[source.ID], locked[dest.ID]

	// La idempotencia se resuelve con ambos registros bloqueados: dos reintentos simultáneos
	// del mismo traslado quedan serializados y el segundo encuentra el par ya registrado.
	if in.ReferenceID != "" {
		if res, err := c.replay(ctx, movements, in, transferID, source, dest); res != nil || err != nil {
			return res, err
		}
	}

	// Lo reservado nunca se traslada
	if source.AvailableQuantity() < in.Quantity {
		return nil, domain.ErrInsufficientStock
	}
	unitCost := source.AverageCost

	p := c.processor
	out, err := p.apply(ctx, records, movements, source, change{
		Type:          entity.MovementTypeTRANSFEROUT,
		Delta:         -in.Quantity,
		Notes:         in.Notes,
		ReferenceID:   transferID,
		ReferenceType: entity.ReferenceTypeTransfer,
		CreatedBy:     in.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	inMov, err := p.apply(ctx, records, movements, dest, change{
		Type:          entity.MovementTypeTRANSFERIN,
		Delta:         in.Quantity,
		UnitCost:      costOrNil(unitCost),
		Notes:         in.Notes,
		ReferenceID:   transferID,
		ReferenceType: entity.ReferenceTypeTransfer,
		CreatedBy:     in.CreatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("crédito en destino: %w", err)
	}
	return &TransferResult{
		TransferID:  transferID,
		Out:         out,
		In:          inMov,
		Source:      source,
		Destination: dest,
	}, nil
}

// replay devuelve el resultado original si el traslado ya fue aplicado (nil, nil si no).
func (c *TransferCoordinator) replay(
	ctx context.Context,
	movements repository.StockMovementRepository,
	in TransferInput,
	transferID string,
	source, dest *entity.InventoryRecord,
) (*TransferResult, error) {
	prev, err := movements.ListByReference(ctx, entity.ReferenceTypeTransfer, transferID)
	if err != nil {
		return nil, err
	}
	if len(prev) == 0 {
		return nil, nil
	}
	res := &TransferResult{TransferID: transferID, Source: source, Destination: dest, Replayed: true}
	for _, m := range prev {
		switch m.Type {
		case entity.MovementTypeTRANSFEROUT:
			res.Out = m
		case entity.MovementTypeTRANSFERIN:
			res.In = m
		}
	}
	if res.Out == nil || res.In == nil ||
		res.Out.ProductID != in.ProductID ||
		res.Out.LocationID != in.FromLocationID ||
		res.In.LocationID != in.ToLocationID ||
		res.Out.Quantity != in.Quantity {
		return nil, fmt.Errorf("referencia de traslado %s reutilizada: %w", transferID, domain.ErrConflict)
	}
	return res, nil
}

// createEmpty crea el registro de destino con cantidad 0 dentro de la misma transacción.
// Si otra transacción lo creó en paralelo se reporta conflicto para reintentar y encontrarlo.
func (c *TransferCoordinator) createEmpty(
	ctx context.Context,
	records repository.InventoryRecordRepository,
	productID, locationID string,
) (*entity.InventoryRecord, error) {
	now := c.processor.now()
	r := &entity.InventoryRecord{
		ID:          uuid.New().String(),
		ProductID:   productID,
		LocationID:  locationID,
		AverageCost: decimal.Zero,
		TotalValue:  decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := records.Create(ctx, r); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrConcurrentModification
		}
		return nil, err
	}
	return r, nil
}

func costOrNil(d decimal.Decimal) *decimal.Decimal {
	if d.IsZero() {
		return nil
	}
	return &d
}
