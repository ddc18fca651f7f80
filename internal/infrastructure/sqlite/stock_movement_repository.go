package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `seq, id, product_id, location_id, movement_type, quantity, quantity_before, quantity_after,
	unit_cost, total_cost, reference_id, reference_type, notes, created_at, created_by`

// StockMovementRepo ledger de movimientos sobre SQLite. Solo INSERT y SELECT.
type StockMovementRepo struct {
	q querier
}

// NewStockMovementRepository construye el adaptador.
func NewStockMovementRepository(q querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append inserta el movimiento; la secuencia es el rowid AUTOINCREMENT.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	var unitCost any
	if m.UnitCost != nil {
		unitCost = m.UnitCost.String()
	}
	query := `
		INSERT INTO stock_movements (id, product_id, location_id, movement_type, quantity, quantity_before,
			quantity_after, unit_cost, total_cost, reference_id, reference_type, notes, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.q.ExecContext(ctx, query,
		m.ID, m.ProductID, m.LocationID, string(m.Type), m.Quantity, m.QuantityBefore,
		m.QuantityAfter, unitCost, m.TotalCost.String(), nullString(m.ReferenceID), m.ReferenceType,
		m.Notes, toNanos(m.CreatedAt), nullString(m.CreatedBy),
	)
	if err != nil {
		if mapped := mapWriteError(err, nil); mapped != err {
			return mapped
		}
		return fmt.Errorf("append stock movement: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	m.Sequence = seq
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// FindByReference busca la operación ya aplicada para la clave de idempotencia.
func (r *StockMovementRepo) FindByReference(ctx context.Context, key repository.ReferenceKey) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE reference_id = ? AND reference_type = ?
		ORDER BY seq LIMIT 1`
	return r.getOne(ctx, query, key.ReferenceID, key.ReferenceType)
}

func (r *StockMovementRepo) getOne(ctx context.Context, query string, args ...any) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// ListByReference lista los movimientos de una referencia.
func (r *StockMovementRepo) ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE reference_type = ? AND reference_id = ? ORDER BY seq`
	return r.list(ctx, query, referenceType, referenceID)
}

// Query lista el historial filtrado, más reciente primero, con el total sin paginar.
func (r *StockMovementRepo) Query(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, int, error) {
	var where []string
	var args []any
	if f.ProductID != "" {
		where = append(where, "product_id = ?")
		args = append(args, f.ProductID)
	}
	if f.LocationID != "" {
		where = append(where, "location_id = ?")
		args = append(args, f.LocationID)
	}
	if len(f.Types) > 0 {
		marks := make([]string, len(f.Types))
		for i, t := range f.Types {
			marks[i] = "?"
			args = append(args, string(t))
		}
		where = append(where, "movement_type IN ("+strings.Join(marks, ", ")+")")
	}
	if f.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, toNanos(*f.From))
	}
	if f.To != nil {
		where = append(where, "created_at <= ?")
		args = append(args, toNanos(*f.To))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM stock_movements`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock movements: %w", err)
	}
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + cond +
		` ORDER BY created_at DESC, seq DESC LIMIT ? OFFSET ?`
	list, err := r.list(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListForReplay devuelve el historial completo del par en orden de secuencia.
func (r *StockMovementRepo) ListForReplay(ctx context.Context, productID, locationID string) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE product_id = ? AND location_id = ? ORDER BY seq`
	return r.list(ctx, query, productID, locationID)
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovement(row rowScanner) (*entity.StockMovement, error) {
	var (
		m                      entity.StockMovement
		movementType           string
		unitCost               sql.NullString
		totalCost              string
		referenceID, createdBy sql.NullString
		createdAt              int64
	)
	if err := row.Scan(
		&m.Sequence, &m.ID, &m.ProductID, &m.LocationID, &movementType, &m.Quantity,
		&m.QuantityBefore, &m.QuantityAfter, &unitCost, &totalCost,
		&referenceID, &m.ReferenceType, &m.Notes, &createdAt, &createdBy,
	); err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(movementType)
	if unitCost.Valid {
		d := parseDecimal(unitCost.String)
		m.UnitCost = &d
	}
	m.TotalCost = parseDecimal(totalCost)
	m.ReferenceID = referenceID.String
	m.CreatedBy = createdBy.String
	m.CreatedAt = fromNanos(createdAt)
	return &m, nil
}
