package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInventoryRequest body para POST /api/inventory.
type CreateInventoryRequest struct {
	ProductID         string           `json:"product_id" validate:"required,max=64"`
	LocationID        string           `json:"location_id" validate:"required,max=64"`
	Quantity          int64            `json:"quantity"`
	MinStockLevel     *int64           `json:"min_stock_level,omitempty"`
	MaxStockLevel     *int64           `json:"max_stock_level,omitempty"`
	WarehouseLocation string           `json:"warehouse_location,omitempty" validate:"max=100"`
	Zone              string           `json:"zone,omitempty" validate:"max=50"`
	UnitCost          *decimal.Decimal `json:"unit_cost,omitempty"`
}

// UpdateInventoryRequest body para PATCH /api/inventory/:id. La cantidad no se edita aquí.
type UpdateInventoryRequest struct {
	MinStockLevel      *int64  `json:"min_stock_level,omitempty"`
	MaxStockLevel      *int64  `json:"max_stock_level,omitempty"`
	ClearMinStockLevel bool    `json:"clear_min_stock_level,omitempty"`
	ClearMaxStockLevel bool    `json:"clear_max_stock_level,omitempty"`
	WarehouseLocation  *string `json:"warehouse_location,omitempty" validate:"omitempty,max=100"`
	Zone               *string `json:"zone,omitempty" validate:"omitempty,max=50"`
}

// AdjustStockRequest body para POST /api/inventory/adjust y /api/inventory/:id/adjust.
// En ADJUSTMENT, quantity es el delta con signo o se envía new_quantity (conteo físico).
type AdjustStockRequest struct {
	ProductID     string           `json:"product_id,omitempty" validate:"max=64"`
	LocationID    string           `json:"location_id,omitempty" validate:"max=64"`
	Type          string           `json:"type" validate:"required,max=32"`
	Quantity      int64            `json:"quantity"`
	NewQuantity   *int64           `json:"new_quantity,omitempty"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	Notes         string           `json:"notes,omitempty" validate:"max=500"`
	ReferenceID   string           `json:"reference_id,omitempty" validate:"max=100"`
	ReferenceType string           `json:"reference_type,omitempty" validate:"max=50"`
	AllowNegative bool             `json:"allow_negative,omitempty"`
}

// TransferStockRequest body para POST /api/inventory/transfer.
type TransferStockRequest struct {
	ProductID      string `json:"product_id" validate:"required,max=64"`
	FromLocationID string `json:"from_location_id" validate:"required,max=64"`
	ToLocationID   string `json:"to_location_id" validate:"required,max=64"`
	Quantity       int64  `json:"quantity"`
	Notes          string `json:"notes,omitempty" validate:"max=500"`
	ReferenceID    string `json:"reference_id,omitempty" validate:"max=100"`
}

// ReservationRequest body para POST /api/inventory/:id/reserve y /release.
type ReservationRequest struct {
	Quantity int64 `json:"quantity"`
}

// InventoryResponse registro de inventario con su estado derivado.
type InventoryResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	LocationID        string          `json:"location_id"`
	SKU               string          `json:"sku,omitempty"`
	ProductName       string          `json:"product_name,omitempty"`
	Quantity          int64           `json:"quantity"`
	ReservedQuantity  int64           `json:"reserved_quantity"`
	AvailableQuantity int64           `json:"available_quantity"`
	MinStockLevel     *int64          `json:"min_stock_level"`
	MaxStockLevel     *int64          `json:"max_stock_level"`
	EffectiveMinStock int64           `json:"effective_min_stock"`
	EffectiveMaxStock *int64          `json:"effective_max_stock"`
	WarehouseLocation string          `json:"warehouse_location,omitempty"`
	Zone              string          `json:"zone,omitempty"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	TotalValue        decimal.Decimal `json:"total_value"`
	Status            string          `json:"status"`
	Version           int64           `json:"version"`
	LastRestocked     *time.Time      `json:"last_restocked,omitempty"`
	LastStockCheck    *time.Time      `json:"last_stock_check,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// InventoryListResponse página de registros.
type InventoryListResponse struct {
	Items []InventoryResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// MovementResponse entrada del ledger.
type MovementResponse struct {
	ID             string           `json:"id"`
	Sequence       int64            `json:"sequence"`
	ProductID      string           `json:"product_id"`
	LocationID     string           `json:"location_id"`
	Type           string           `json:"type"`
	Quantity       int64            `json:"quantity"`
	SignedQuantity int64            `json:"signed_quantity"`
	QuantityBefore int64            `json:"quantity_before"`
	QuantityAfter  int64            `json:"quantity_after"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalCost      decimal.Decimal  `json:"total_cost"`
	ReferenceID    string           `json:"reference_id,omitempty"`
	ReferenceType  string           `json:"reference_type,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	CreatedBy      string           `json:"created_by,omitempty"`
}

// MovementListResponse página del historial.
type MovementListResponse struct {
	Items  []MovementResponse `json:"items"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
	Total  int                `json:"total"`
}

// AdjustStockResponse resultado de adjustStock. Replayed indica que la referencia ya estaba aplicada.
type AdjustStockResponse struct {
	Movement  MovementResponse  `json:"movement"`
	Inventory InventoryResponse `json:"inventory"`
	Replayed  bool              `json:"replayed"`
}

// TransferStockResponse par de movimientos del traslado y los registros resultantes.
type TransferStockResponse struct {
	TransferID  string            `json:"transfer_id"`
	Out         MovementResponse  `json:"out"`
	In          MovementResponse  `json:"in"`
	Source      InventoryResponse `json:"source"`
	Destination InventoryResponse `json:"destination"`
	Replayed    bool              `json:"replayed"`
}

// ReconciliationResponse comparación entre la cantidad materializada y el ledger.
type ReconciliationResponse struct {
	RecordID       string    `json:"record_id"`
	RecordQuantity int64     `json:"record_quantity"`
	LedgerQuantity int64     `json:"ledger_quantity"`
	MovementCount  int       `json:"movement_count"`
	BrokenAt       *int      `json:"broken_at,omitempty"`
	Consistent     bool      `json:"consistent"`
	CheckedAt      time.Time `json:"checked_at"`
}
