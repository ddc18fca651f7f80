package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductRepository lectura del catálogo de productos (propiedad de otro subsistema).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}

// LocationRepository lectura del registro de ubicaciones.
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
}
