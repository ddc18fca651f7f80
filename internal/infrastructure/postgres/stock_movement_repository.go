package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `seq, id, product_id, location_id, movement_type, quantity, quantity_before, quantity_after,
	unit_cost, total_cost, reference_id, reference_type, notes, created_at, created_by`

// StockMovementRepo ledger de movimientos sobre PostgreSQL. Solo INSERT y SELECT.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append inserta el movimiento; la secuencia la asigna la base (BIGSERIAL).
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO stock_movements (id, product_id, location_id, movement_type, quantity, quantity_before,
			quantity_after, unit_cost, total_cost, reference_id, reference_type, notes, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ProductID, m.LocationID, string(m.Type), m.Quantity, m.QuantityBefore,
		m.QuantityAfter, m.UnitCost, m.TotalCost, nullIfEmpty(m.ReferenceID), m.ReferenceType,
		m.Notes, m.CreatedAt, nullIfEmpty(m.CreatedBy),
	).Scan(&m.Sequence)
	if err != nil {
		if mapped := mapWriteError(err, nil); mapped != err {
			return mapped
		}
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// FindByReference busca la operación ya aplicada para la clave de idempotencia.
func (r *StockMovementRepo) FindByReference(ctx context.Context, key repository.ReferenceKey) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE reference_id = $1 AND reference_type = $2
		ORDER BY seq LIMIT 1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, key.ReferenceID, key.ReferenceType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find stock movement by reference: %w", err)
	}
	return m, nil
}

// ListByReference lista los movimientos de una referencia (p. ej. ambos lados de un traslado).
func (r *StockMovementRepo) ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE reference_type = $1 AND reference_id = $2 ORDER BY seq`
	return r.list(ctx, query, referenceType, referenceID)
}

// Query lista el historial filtrado, más reciente primero, con el total sin paginar.
func (r *StockMovementRepo) Query(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, int, error) {
	var where []string
	var args []any
	pos := 1
	add := func(cond string, v any) {
		where = append(where, fmt.Sprintf(cond, pos))
		args = append(args, v)
		pos++
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.LocationID != "" {
		add("location_id = $%d", f.LocationID)
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		add("movement_type = ANY($%d)", types)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock movements: %w", err)
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements` + cond +
		fmt.Sprintf(" ORDER BY created_at DESC, seq DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)
	list, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListForReplay devuelve el historial completo del par en orden de secuencia.
func (r *StockMovementRepo) ListForReplay(ctx context.Context, productID, locationID string) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE product_id = $1 AND location_id = $2 ORDER BY seq`
	return r.list(ctx, query, productID, locationID)
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
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

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var movementType string
	var referenceID, createdBy *string
	if err := row.Scan(
		&m.Sequence, &m.ID, &m.ProductID, &m.LocationID, &movementType, &m.Quantity,
		&m.QuantityBefore, &m.QuantityAfter, &m.UnitCost, &m.TotalCost,
		&referenceID, &m.ReferenceType, &m.Notes, &m.CreatedAt, &createdBy,
	); err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(movementType)
	m.ReferenceID = deref(referenceID)
	m.CreatedBy = deref(createdBy)
	return &m, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
