package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

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

// InventoryRecordRepo registros de inventario sobre SQLite (usable con db o tx).
type InventoryRecordRepo struct {
	q querier
}

// NewInventoryRecordRepository construye el adaptador.
func NewInventoryRecordRepository(q querier) *InventoryRecordRepo {
	return &InventoryRecordRepo{q: q}
}

// GetByID obtiene un registro vivo por ID.
func (r *InventoryRecordRepo) GetByID(ctx context.Context, id string) (*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records r WHERE r.id = ? AND r.deleted_at IS NULL`
	return r.getOne(ctx, query, id)
}

// GetByProductAndLocation obtiene el registro vivo del par producto/ubicación.
func (r *InventoryRecordRepo) GetByProductAndLocation(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records r
		WHERE r.product_id = ? AND r.location_id = ? AND r.deleted_at IS NULL`
	return r.getOne(ctx, query, productID, locationID)
}

// GetForUpdate en SQLite no necesita cláusula de bloqueo: la tx (BEGIN IMMEDIATE) ya tiene el de escritura.
func (r *InventoryRecordRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *InventoryRecordRepo) getOne(ctx context.Context, query string, args ...any) (*entity.InventoryRecord, error) {
	var rec entity.InventoryRecord
	scan := newRecordScan(&rec)
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(scan.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isBusy(err) {
			return nil, domain.ErrConcurrentModification
		}
		return nil, fmt.Errorf("get inventory record: %w", err)
	}
	scan.apply()
	return &rec, nil
}

// Create inserta un registro nuevo.
func (r *InventoryRecordRepo) Create(ctx context.Context, rec *entity.InventoryRecord) error {
	query := `
		INSERT INTO inventory_records (id, product_id, location_id, quantity, reserved_quantity,
			min_stock_level, max_stock_level, warehouse_location, zone, average_cost, total_value,
			version, last_restocked, last_stock_check, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.q.ExecContext(ctx, query,
		rec.ID, rec.ProductID, rec.LocationID, rec.Quantity, rec.ReservedQuantity,
		nullInt(rec.MinStockLevel), nullInt(rec.MaxStockLevel), rec.WarehouseLocation, rec.Zone,
		rec.AverageCost.String(), rec.TotalValue.String(), rec.Version,
		nullNanos(rec.LastRestocked), nullNanos(rec.LastStockCheck),
		toNanos(rec.CreatedAt), toNanos(rec.UpdatedAt),
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
			quantity = ?, reserved_quantity = ?, min_stock_level = ?, max_stock_level = ?,
			warehouse_location = ?, zone = ?, average_cost = ?, total_value = ?,
			last_restocked = ?, last_stock_check = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ? AND deleted_at IS NULL`
	res, err := r.q.ExecContext(ctx, query,
		rec.Quantity, rec.ReservedQuantity, nullInt(rec.MinStockLevel), nullInt(rec.MaxStockLevel),
		rec.WarehouseLocation, rec.Zone, rec.AverageCost.String(), rec.TotalValue.String(),
		nullNanos(rec.LastRestocked), nullNanos(rec.LastStockCheck), toNanos(rec.UpdatedAt),
		rec.ID, rec.Version,
	)
	if err != nil {
		if mapped := mapWriteError(err, nil); mapped != err {
			return mapped
		}
		return fmt.Errorf("update inventory record: %w", err)
	}
	return r.bumpVersion(res, rec)
}

// SoftDelete marca deleted_at con el mismo control de versión que Update.
func (r *InventoryRecordRepo) SoftDelete(ctx context.Context, rec *entity.InventoryRecord) error {
	if rec.DeletedAt == nil {
		return domain.ErrInvalidInput
	}
	query := `
		UPDATE inventory_records SET deleted_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ? AND deleted_at IS NULL`
	ts := toNanos(*rec.DeletedAt)
	res, err := r.q.ExecContext(ctx, query, ts, ts, rec.ID, rec.Version)
	if err != nil {
		if mapped := mapWriteError(err, nil); mapped != err {
			return mapped
		}
		return fmt.Errorf("soft delete inventory record: %w", err)
	}
	return r.bumpVersion(res, rec)
}

func (r *InventoryRecordRepo) bumpVersion(res sql.Result, rec *entity.InventoryRecord) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrConcurrentModification
	}
	rec.Version++
	return nil
}

// List lista registros vivos con su producto (LEFT JOIN: el catálogo puede no tener la fila).
func (r *InventoryRecordRepo) List(ctx context.Context, filter repository.RecordFilter, limit, offset int) ([]repository.RecordWithProduct, int, error) {
	where := []string{"r.deleted_at IS NULL"}
	var args []any
	if filter.LocationID != "" {
		where = append(where, "r.location_id = ?")
		args = append(args, filter.LocationID)
	}
	if filter.ProductID != "" {
		where = append(where, "r.product_id = ?")
		args = append(args, filter.ProductID)
	}
	if filter.Category != "" {
		where = append(where, "p.category = ?")
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		// LIKE de SQLite ya es insensible a mayúsculas para ASCII.
		where = append(where, "(p.name LIKE ? OR p.sku LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	from := ` FROM inventory_records r LEFT JOIN products p ON p.id = r.product_id WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inventory records: %w", err)
	}

	query := `SELECT ` + recordColumns + `,
		p.id, p.sku, p.name, p.category, p.min_stock_level, p.max_stock_level, p.unit_cost, p.active` +
		from + ` ORDER BY p.name, r.location_id, r.id LIMIT ? OFFSET ?`
	rows, err := r.q.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list inventory records: %w", err)
	}
	defer rows.Close()

	var list []repository.RecordWithProduct
	for rows.Next() {
		var rec entity.InventoryRecord
		scan := newRecordScan(&rec)
		var (
			pID, pSKU, pName, pCategory, pCost sql.NullString
			pMin, pMax                         sql.NullInt64
			pActive                            sql.NullBool
		)
		dest := append(scan.dest(), &pID, &pSKU, &pName, &pCategory, &pMin, &pMax, &pCost, &pActive)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("scan inventory record: %w", err)
		}
		scan.apply()
		item := repository.RecordWithProduct{Record: &rec}
		if pID.Valid {
			item.Product = &entity.Product{
				ID:            pID.String,
				SKU:           pSKU.String,
				Name:          pName.String,
				Category:      pCategory.String,
				MinStockLevel: int64Ptr(pMin),
				MaxStockLevel: int64Ptr(pMax),
				UnitCost:      parseDecimal(pCost.String),
				Active:        pActive.Bool,
			}
		}
		list = append(list, item)
	}
	return list, total, rows.Err()
}

// recordScan adapta las columnas de SQLite (enteros para fechas, texto para importes) a la entidad.
type recordScan struct {
	rec                           *entity.InventoryRecord
	minLevel, maxLevel            sql.NullInt64
	avg, total                    string
	restocked, checked, deletedAt sql.NullInt64
	createdAt, updatedAt          int64
}

func newRecordScan(rec *entity.InventoryRecord) *recordScan {
	return &recordScan{rec: rec}
}

func (s *recordScan) dest() []any {
	r := s.rec
	return []any{
		&r.ID, &r.ProductID, &r.LocationID, &r.Quantity, &r.ReservedQuantity,
		&s.minLevel, &s.maxLevel, &r.WarehouseLocation, &r.Zone,
		&s.avg, &s.total, &r.Version, &s.restocked, &s.checked,
		&s.createdAt, &s.updatedAt, &s.deletedAt,
	}
}

func (s *recordScan) apply() {
	r := s.rec
	r.MinStockLevel = int64Ptr(s.minLevel)
	r.MaxStockLevel = int64Ptr(s.maxLevel)
	r.AverageCost = parseDecimal(s.avg)
	r.TotalValue = parseDecimal(s.total)
	r.LastRestocked = timePtr(s.restocked)
	r.LastStockCheck = timePtr(s.checked)
	r.DeletedAt = timePtr(s.deletedAt)
	r.CreatedAt = fromNanos(s.createdAt)
	r.UpdatedAt = fromNanos(s.updatedAt)
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
