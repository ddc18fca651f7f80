package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.ProductRepository  = (*ProductRepo)(nil)
	_ repository.LocationRepository = (*LocationRepo)(nil)
)

// ProductRepo catálogo de productos. Save existe para cargar datos en despliegues embebidos y tests.
type ProductRepo struct {
	q querier
}

// NewProductRepository construye el adaptador.
func NewProductRepository(q querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT id, sku, name, category, min_stock_level, max_stock_level, unit_cost, active
		FROM products WHERE id = ?`
	var (
		p          entity.Product
		minL, maxL sql.NullInt64
		cost       string
	)
	err := r.q.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &minL, &maxL, &cost, &p.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p.MinStockLevel = int64Ptr(minL)
	p.MaxStockLevel = int64Ptr(maxL)
	p.UnitCost = parseDecimal(cost)
	return &p, nil
}

// Save inserta o reemplaza un producto.
func (r *ProductRepo) Save(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, sku, name, category, min_stock_level, max_stock_level, unit_cost, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			sku = excluded.sku, name = excluded.name, category = excluded.category,
			min_stock_level = excluded.min_stock_level, max_stock_level = excluded.max_stock_level,
			unit_cost = excluded.unit_cost, active = excluded.active`
	_, err := r.q.ExecContext(ctx, query, p.ID, p.SKU, p.Name, p.Category,
		nullInt(p.MinStockLevel), nullInt(p.MaxStockLevel), p.UnitCost.String(), p.Active)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

// LocationRepo registro de ubicaciones.
type LocationRepo struct {
	q querier
}

// NewLocationRepository construye el adaptador.
func NewLocationRepository(q querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// GetByID obtiene una ubicación por ID.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	var l entity.Location
	err := r.q.QueryRowContext(ctx, `SELECT id, name, active FROM locations WHERE id = ?`, id).Scan(&l.ID, &l.Name, &l.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// Save inserta o reemplaza una ubicación.
func (r *LocationRepo) Save(ctx context.Context, l *entity.Location) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO locations (id, name, active) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, active = excluded.active`,
		l.ID, l.Name, l.Active)
	if err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	return nil
}
