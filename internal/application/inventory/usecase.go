package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const (
	// Lote al filtrar por estado: el estado es derivado y no se filtra en SQL.
	statusScanBatch       = 500
	defaultMovementsLimit = 50
	maxMovementsLimit     = 500
)

// InventoryUseCase operaciones de alta, baja, consulta y reservas sobre los registros de inventario.
// Los cambios de cantidad pasan por el AdjustmentProcessor y el TransferCoordinator.
type InventoryUseCase struct {
	processor    *AdjustmentProcessor
	recordRepo   repository.InventoryRecordRepository
	movementRepo repository.StockMovementRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
}

// NewInventoryUseCase construye el caso de uso. Los repositorios de lectura trabajan sobre el pool.
func NewInventoryUseCase(
	processor *AdjustmentProcessor,
	recordRepo repository.InventoryRecordRepository,
	movementRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
) *InventoryUseCase {
	return &InventoryUseCase{
		processor:    processor,
		recordRepo:   recordRepo,
		movementRepo: movementRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
	}
}

// RecordView registro con su producto y estado calculado, para respuestas.
type RecordView struct {
	Record  *entity.InventoryRecord
	Product *entity.Product
	Status  domaininv.StockStatus
}

func newView(r *entity.InventoryRecord, p *entity.Product) RecordView {
	return RecordView{Record: r, Product: p, Status: domaininv.Classify(r, p)}
}

// CreateInput entrada de createInventory.
type CreateInput struct {
	ProductID         string
	LocationID        string
	Quantity          int64
	MinStockLevel     *int64
	MaxStockLevel     *int64
	WarehouseLocation string
	Zone              string
	UnitCost          *decimal.Decimal
	CreatedBy         string
}

// Create da de alta el registro del par producto/ubicación. Si la cantidad inicial es mayor a cero
// se registra el movimiento de apertura (IN, referencia INITIAL) para que el ledger la explique.
func (uc *InventoryUseCase) Create(ctx context.Context, in CreateInput) (*RecordView, error) {
	if in.ProductID == "" || in.LocationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := validateLevels(in.MinStockLevel, in.MaxStockLevel); err != nil {
		return nil, err
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.product(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if err := uc.checkLocation(ctx, in.LocationID); err != nil {
		return nil, err
	}

	unitCost := product.UnitCost
	if in.UnitCost != nil {
		unitCost = *in.UnitCost
	}
	p := uc.processor
	var record *entity.InventoryRecord
	err = p.txRunner.Run(ctx, func(
		records repository.InventoryRecordRepository,
		movements repository.StockMovementRepository,
	) error {
		if _, err := records.GetByProductAndLocation(ctx, in.ProductID, in.LocationID); err == nil {
			return domain.ErrAlreadyExists
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		now := p.now()
		record = &entity.InventoryRecord{
			ID:                uuid.New().String(),
			ProductID:         in.ProductID,
			LocationID:        in.LocationID,
			MinStockLevel:     in.MinStockLevel,
			MaxStockLevel:     in.MaxStockLevel,
			WarehouseLocation: in.WarehouseLocation,
			Zone:              in.Zone,
			AverageCost:       decimal.Zero,
			TotalValue:        decimal.Zero,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := records.Create(ctx, record); err != nil {
			return err
		}
		if in.Quantity == 0 {
			return nil
		}
		_, err := p.apply(ctx, records, movements, record, change{
			Type:          entity.MovementTypeIN,
			Delta:         in.Quantity,
			UnitCost:      costOrNil(unitCost),
			Notes:         "stock inicial",
			ReferenceID:   record.ID,
			ReferenceType: entity.ReferenceTypeInitial,
			CreatedBy:     in.CreatedBy,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	p.log.Info().
		Str("id", record.ID).
		Str("product_id", record.ProductID).
		Str("location_id", record.LocationID).
		Int64("quantity", record.Quantity).
		Msg("inventario creado")
	v := newView(record, product)
	return &v, nil
}

// UpdateInput campos editables de updateInventory. Nil = sin cambio.
// ClearMin/ClearMax eliminan el override y vuelven al valor por defecto del producto.
type UpdateInput struct {
	MinStockLevel     *int64
	MaxStockLevel     *int64
	ClearMin          bool
	ClearMax          bool
	WarehouseLocation *string
	Zone              *string
}

// Update modifica umbrales y ubicación física; nunca toca la cantidad.
func (uc *InventoryUseCase) Update(ctx context.Context, id string, in UpdateInput) (*RecordView, error) {
	p := uc.processor
	var record *entity.InventoryRecord
	err := retry(ctx, p.policy, "update", p.log, p.metrics, func() error {
		return p.txRunner.Run(ctx, func(
			records repository.InventoryRecordRepository,
			_ repository.StockMovementRepository,
		) error {
			r, err := records.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if in.ClearMin {
				r.MinStockLevel = nil
			} else if in.MinStockLevel != nil {
				r.MinStockLevel = in.MinStockLevel
			}
			if in.ClearMax {
				r.MaxStockLevel = nil
			} else if in.MaxStockLevel != nil {
				r.MaxStockLevel = in.MaxStockLevel
			}
			if err := validateLevels(r.MinStockLevel, r.MaxStockLevel); err != nil {
				return err
			}
			if in.WarehouseLocation != nil {
				r.WarehouseLocation = *in.WarehouseLocation
			}
			if in.Zone != nil {
				r.Zone = *in.Zone
			}
			r.UpdatedAt = p.now()
			if err := records.Update(ctx, r); err != nil {
				return err
			}
			record = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	product, err := uc.product(ctx, record.ProductID)
	if err != nil {
		return nil, err
	}
	v := newView(record, product)
	return &v, nil
}

// Delete da de baja (soft delete) un registro sin stock ni reservas; ErrConflict en caso contrario.
func (uc *InventoryUseCase) Delete(ctx context.Context, id string) error {
	p := uc.processor
	return retry(ctx, p.policy, "delete", p.log, p.metrics, func() error {
		return p.txRunner.Run(ctx, func(
			records repository.InventoryRecordRepository,
			_ repository.StockMovementRepository,
		) error {
			r, err := records.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if !r.Deletable() {
				return fmt.Errorf("cantidad %d, reservada %d: %w", r.Quantity, r.ReservedQuantity, domain.ErrConflict)
			}
			now := p.now()
			r.DeletedAt = &now
			r.UpdatedAt = now
			return records.SoftDelete(ctx, r)
		})
	})
}

// Get obtiene un registro con su estado.
func (uc *InventoryUseCase) Get(ctx context.Context, id string) (*RecordView, error) {
	r, err := uc.recordRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product, err := uc.product(ctx, r.ProductID)
	if err != nil {
		return nil, err
	}
	v := newView(r, product)
	return &v, nil
}

// View clasifica un registro ya leído, p. ej. el devuelto por un ajuste o un traslado.
// Si el producto no está en el catálogo se clasifica solo con los umbrales del registro.
func (uc *InventoryUseCase) View(ctx context.Context, r *entity.InventoryRecord) (*RecordView, error) {
	product, err := uc.productRepo.GetByID(ctx, r.ProductID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	v := newView(r, product)
	return &v, nil
}

// GetByProductAndLocation obtiene el registro del par.
func (uc *InventoryUseCase) GetByProductAndLocation(ctx context.Context, productID, locationID string) (*RecordView, error) {
	r, err := uc.recordRepo.GetByProductAndLocation(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	product, err := uc.product(ctx, r.ProductID)
	if err != nil {
		return nil, err
	}
	v := newView(r, product)
	return &v, nil
}

// ListInput filtros y paginación de listInventory. Page empieza en 1.
type ListInput struct {
	Filter   repository.RecordFilter
	Status   domaininv.StockStatus
	Page     int
	PageSize int
}

// ListOutput página de registros y total.
type ListOutput struct {
	Items    []RecordView
	Total    int
	Page     int
	PageSize int
}

// List lista registros. Sin filtro de estado pagina en el repositorio; con filtro de estado
// recorre los registros que cumplen los demás filtros, los clasifica y pagina en memoria.
func (uc *InventoryUseCase) List(ctx context.Context, in ListInput) (*ListOutput, error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.PageSize <= 0 {
		in.PageSize = 20
	}
	if in.PageSize > 100 {
		in.PageSize = 100
	}
	offset := (in.Page - 1) * in.PageSize
	out := &ListOutput{Page: in.Page, PageSize: in.PageSize, Items: []RecordView{}}

	if in.Status == "" {
		rows, total, err := uc.recordRepo.List(ctx, in.Filter, in.PageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out.Items = append(out.Items, newView(row.Record, row.Product))
		}
		out.Total = total
		return out, nil
	}

	matched := 0
	for scan := 0; ; scan += statusScanBatch {
		rows, total, err := uc.recordRepo.List(ctx, in.Filter, statusScanBatch, scan)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			v := newView(row.Record, row.Product)
			if v.Status != in.Status {
				continue
			}
			if matched >= offset && len(out.Items) < in.PageSize {
				out.Items = append(out.Items, v)
			}
			matched++
		}
		if len(rows) < statusScanBatch || scan+statusScanBatch >= total {
			break
		}
	}
	out.Total = matched
	return out, nil
}

// NormalizeMovementFilter valida el filtro del historial y aplica los límites de paginación.
func NormalizeMovementFilter(filter repository.MovementFilter) (repository.MovementFilter, error) {
	for _, t := range filter.Types {
		if !t.IsKnown() {
			return filter, domain.ErrInvalidMovementType
		}
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return filter, domain.ErrInvalidInput
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultMovementsLimit
	}
	if filter.Limit > maxMovementsLimit {
		filter.Limit = maxMovementsLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter, nil
}

// Movements consulta el historial (solo lectura).
func (uc *InventoryUseCase) Movements(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, int, error) {
	filter, err := NormalizeMovementFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	return uc.movementRepo.Query(ctx, filter)
}

// Reserve aparta cantidad disponible para una venta o retención pendiente.
// No genera movimiento: la cantidad en mano no cambia, solo la disponible.
func (uc *InventoryUseCase) Reserve(ctx context.Context, id string, quantity int64) (*RecordView, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return uc.changeReservation(ctx, "reserve", id, quantity)
}

// Release libera una reserva previa.
func (uc *InventoryUseCase) Release(ctx context.Context, id string, quantity int64) (*RecordView, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return uc.changeReservation(ctx, "release", id, -quantity)
}

func (uc *InventoryUseCase) changeReservation(ctx context.Context, op, id string, delta int64) (*RecordView, error) {
	p := uc.processor
	var record *entity.InventoryRecord
	err := retry(ctx, p.policy, op, p.log, p.metrics, func() error {
		return p.txRunner.Run(ctx, func(
			records repository.InventoryRecordRepository,
			_ repository.StockMovementRepository,
		) error {
			r, err := records.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if delta > 0 && r.AvailableQuantity() < delta {
				return domain.ErrInsufficientStock
			}
			if delta < 0 && r.ReservedQuantity < -delta {
				return domain.ErrInvalidQuantity
			}
			r.ReservedQuantity += delta
			r.UpdatedAt = p.now()
			if err := records.Update(ctx, r); err != nil {
				return err
			}
			record = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	product, err := uc.product(ctx, record.ProductID)
	if err != nil {
		return nil, err
	}
	v := newView(record, product)
	return &v, nil
}

// Reconciliation resultado de reproducir el ledger de un registro.
type Reconciliation struct {
	RecordID       string
	RecordQuantity int64
	LedgerQuantity int64
	MovementCount  int
	// BrokenAt índice del primer movimiento cuyo snapshot no encadena con el anterior (-1 si ninguno).
	BrokenAt   int
	Consistent bool
	CheckedAt  time.Time
}

// Reconcile compara la cantidad materializada con la suma del ledger del par producto/ubicación.
func (uc *InventoryUseCase) Reconcile(ctx context.Context, id string) (*Reconciliation, error) {
	r, err := uc.recordRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	movs, err := uc.movementRepo.ListForReplay(ctx, r.ProductID, r.LocationID)
	if err != nil {
		return nil, err
	}
	res := &Reconciliation{
		RecordID:       r.ID,
		RecordQuantity: r.Quantity,
		LedgerQuantity: domaininv.Replay(movs),
		MovementCount:  len(movs),
		BrokenAt:       domaininv.ChainBroken(movs),
		CheckedAt:      uc.processor.now(),
	}
	res.Consistent = res.RecordQuantity == res.LedgerQuantity && res.BrokenAt == -1
	if !res.Consistent {
		uc.processor.log.Error().
			Str("id", r.ID).
			Int64("record_quantity", res.RecordQuantity).
			Int64("ledger_quantity", res.LedgerQuantity).
			Int("broken_at", res.BrokenAt).
			Msg("inventario no coincide con el ledger")
	}
	return res, nil
}

func (uc *InventoryUseCase) product(ctx context.Context, id string) (*entity.Product, error) {
	p, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (uc *InventoryUseCase) checkLocation(ctx context.Context, id string) error {
	loc, err := uc.locationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrLocationNotFound
		}
		return err
	}
	if !loc.Active {
		return domain.ErrLocationNotFound
	}
	return nil
}

func validateLevels(lo, hi *int64) error {
	if lo != nil && *lo < 0 {
		return domain.ErrInvalidInput
	}
	if hi != nil && *hi < 0 {
		return domain.ErrInvalidInput
	}
	if lo != nil && hi != nil && *lo > *hi {
		return domain.ErrInvalidInput
	}
	return nil
}
