package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// RecordFilter filtros de listado de inventario. Los vacíos no filtran.
// Search compara contra nombre y SKU del producto (join con el catálogo).
type RecordFilter struct {
	LocationID string
	ProductID  string
	Category   string
	Search     string
}

// RecordWithProduct fila de listado: el registro junto al producto que lo define
// (necesario para clasificar con los mínimos/máximos por defecto).
type RecordWithProduct struct {
	Record  *entity.InventoryRecord
	Product *entity.Product
}

// InventoryRecordRepository puerto del almacén de registros de inventario (DIP).
// Los métodos devuelven domain.ErrNotFound cuando no hay registro vivo (no eliminado).
type InventoryRecordRepository interface {
	GetByID(ctx context.Context, id string) (*entity.InventoryRecord, error)
	GetByProductAndLocation(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error)

	// GetForUpdate obtiene el registro y bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryRecord, error)

	// Create inserta un registro nuevo; domain.ErrAlreadyExists si el par ya tiene registro vivo.
	Create(ctx context.Context, record *entity.InventoryRecord) error

	// Update persiste el registro si su Version no cambió desde la lectura y la incrementa;
	// domain.ErrConcurrentModification en caso contrario.
	Update(ctx context.Context, record *entity.InventoryRecord) error

	// SoftDelete marca el registro como eliminado con el mismo control de versión que Update.
	SoftDelete(ctx context.Context, record *entity.InventoryRecord) error

	// List devuelve una página y el total de filas que cumplen el filtro.
	List(ctx context.Context, filter RecordFilter, limit, offset int) ([]RecordWithProduct, int, error)
}
