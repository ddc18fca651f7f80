package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.InventoryRecordRepository = (*InventoryRecordRepo)(nil)

const recordColumns = `r.id, r.product_id, r.location_id, r.quantity, r.reserved_quantity,
	r.min_stock_level, r.max_stock_level, r.warehouse_location, r.zone,
	r.average_cost, r.total_value, r.version, r.last_restocked, r.last_stock_check,
	r.created_at, r.updated_at, r.deleted_at`

// InventoryRecordRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryRecordRepo struct {
	q Querier
}

// NewInventoryRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRecordRepository(q Querier) *InventoryRecordRepo {
	return &InventoryRecordRepo{q: q}
}

// GetByID obtiene un registro vivo por ID.
func (r *InventoryRecordRepo) GetByID(ctx context.Context, id string) (*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records r WHERE r.id = $1 AND r.deleted_at IS NULL`
	return r.getOne(ctx, query, id)
}

// GetByProductAndLocation obtiene el registro vivo del par producto/ubicación.
func (r *InventoryRecordRepo) GetByProductAndLocation(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records r
		WHERE r.product_id = $1 AND r.location_id = $2 AND r.deleted_at IS NULL`
	return r.getOne(ctx, query, productID, locationID)
}

// GetForUpdate obtiene el registro y bloquea la fila (SELECT FOR UPDATE). Solo tiene efecto dentro de una tx.
func (r *InventoryRecordRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records r
		WHERE r.id = $1 AND r.deleted_at IS NULL FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *InventoryRecordRepo) getOne(ctx context.Context, query string, args ...any) (*entity.InventoryRecord, error) {
	rec, err := scanRecord(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isRetryable(err) {
			return nil, domain.ErrConcurrentModification
		}
		return nil, fmt.Errorf("get inventory record: %w", err)
	}
	return rec, nil
}

// Create inserta un registro nuevo.
func (r *InventoryRecordRepo) Create(ctx context.Context, rec *entity.InventoryRecord) error {
	query := `
		INSERT INTO inventory_records (id, product_id, location_id, quantity, reserved_quantity,
			min_stock_level, max_stock_level, warehouse_location, zone, average_cost, total_value,
			version, last_restocked, last_stock_check, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.ProductID, rec.LocationID, rec.Quantity, rec.ReservedQuantity,
		rec.MinStockLevel, rec.MaxStockLevel, rec.WarehouseLocation, rec.Zone,
		rec.AverageCost, rec.TotalValue, rec.Version, rec.LastRestocked, rec.LastStockCheck,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if mapped := mapWriteError(err, domain.ErrAlreadyExists); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert inventory record: %w", err)
	}
	return nil
}

// Update persiste el registro con control optimista de versión.
func (r *InventoryRecordRepo) Update(ctx context.Context, rec *entity.InventoryRecord) error {
	query := `
		UPDATE inventory_records SET
			quantity = $1, reserved_quantity = $2, min_stock_level = $3, max_stock_level = $4,
			warehouse_location = $5, zone = $6, average_cost = $7, total_value = $8,
			last_restocked = $9, last_stock_check = $10, updated_at = $11, version = version + 1
		WHERE id = $12 AND version = $13 AND deleted_at IS NULL`
	tag, err := r.q.Exec(ctx, query,
		rec.Quantity, rec.ReservedQuantity, rec.MinStockLevel, rec.MaxStockLevel,
		rec.WarehouseLocation, rec.Zone, rec.AverageCost, rec.TotalValue,
		rec.LastRestocked, rec.LastStockCheck, rec.UpdatedAt, rec.ID, rec.Version,
	)
	if err != nil {
		if mapped := mapWriteError(err, nil); mapped != err {
			return mapped
		}
		return fmt.Errorf("update inventory record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	rec.Version++
	return nil
}

// SoftDelete marca deleted_at con el mismo control de versión que Update.
func (r *InventoryRecordRepo) SoftDelete(ctx context.Context, rec *entity.InventoryRecord) error {
	query := `
		UPDATE inventory_records SET deleted_at = $1, updated_at = $1, version = version + 1
		WHERE id = $2 AND version = $3 AND deleted_at IS NULL`
	tag, err := r.q.Exec(ctx, query, rec.DeletedAt, rec.ID, rec.Version)
	if err != nil {
		if mapped := mapWriteError(err, nil); mapped != err {
			return mapped
		}
		return fmt.Errorf("soft delete inventory record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	rec.Version++
	return nil
}

// List lista registros vivos con su producto (LEFT JOIN: el catálogo es externo y puede faltar).
func (r *InventoryRecordRepo) List(ctx context.Context, filter repository.RecordFilter, limit, offset int) ([]repository.RecordWithProduct, int, error) {
	where := []string{"r.deleted_at IS NULL"}
	args := []any{}
	pos := 1
	if filter.LocationID != "" {
		where = append(where, fmt.Sprintf("r.location_id = $%d", pos))
		args = append(args, filter.LocationID)
		pos++
	}
	if filter.ProductID != "" {
		where = append(where, fmt.Sprintf("r.product_id = $%d", pos))
		args = append(args, filter.ProductID)
		pos++
	}
	if filter.Category != "" {
		where = append(where, fmt.Sprintf("p.category = $%d", pos))
		args = append(args, filter.Category)
		pos++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(p.name ILIKE $%d OR p.sku ILIKE $%d)", pos, pos))
		args = append(args, "%"+filter.Search+"%")
		pos++
	}
	from := ` FROM inventory_records r LEFT JOIN products p ON p.id = r.product_id WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inventory records: %w", err)
	}

	query := `SELECT ` + recordColumns + `,
		p.id, p.sku, p.name, p.category, p.min_stock_level, p.max_stock_level, p.unit_cost, p.active` +
		from + fmt.Sprintf(" ORDER BY p.name, r.location_id, r.id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list inventory records: %w", err)
	}
	defer rows.Close()

	var list []repository.RecordWithProduct
	for rows.Next() {
		var rec entity.InventoryRecord
		var (
			pID, pSKU, pName, pCategory *string
			pMin, pMax                  *int64
			pCost                       *decimal.Decimal
			pActive                     *bool
		)
		dest := append(recordDest(&rec), &pID, &pSKU, &pName, &pCategory, &pMin, &pMax, &pCost, &pActive)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("scan inventory record: %w", err)
		}
		item := repository.RecordWithProduct{Record: &rec}
		if pID != nil {
			item.Product = &entity.Product{
				ID:            *pID,
				SKU:           deref(pSKU),
				Name:          deref(pName),
				Category:      deref(pCategory),
				MinStockLevel: pMin,
				MaxStockLevel: pMax,
				Active:        pActive != nil && *pActive,
			}
			if pCost != nil {
				item.Product.UnitCost = *pCost
			}
		}
		list = append(list, item)
	}
	return list, total, rows.Err()
}

func recordDest(rec *entity.InventoryRecord) []any {
	return []any{
		&rec.ID, &rec.ProductID, &rec.LocationID, &rec.Quantity, &rec.ReservedQuantity,
		&rec.MinStockLevel, &rec.MaxStockLevel, &rec.WarehouseLocation, &rec.Zone,
		&rec.AverageCost, &rec.TotalValue, &rec.Version, &rec.LastRestocked, &rec.LastStockCheck,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.DeletedAt,
	}
}

func scanRecord(row pgx.Row) (*entity.InventoryRecord, error) {
	var rec entity.InventoryRecord
	if err := row.Scan(recordDest(&rec)...); err != nil {
		return nil, err
	}
	return &rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
