package dto

import (
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// FromRecord arma la respuesta de un registro. product puede ser nil si el catálogo no lo tiene.
func FromRecord(r *entity.InventoryRecord, product *entity.Product, status domaininv.StockStatus) InventoryResponse {
	resp := InventoryResponse{
		ID:                r.ID,
		ProductID:         r.ProductID,
		LocationID:        r.LocationID,
		Quantity:          r.Quantity,
		ReservedQuantity:  r.ReservedQuantity,
		AvailableQuantity: r.AvailableQuantity(),
		MinStockLevel:     r.MinStockLevel,
		MaxStockLevel:     r.MaxStockLevel,
		EffectiveMinStock: domaininv.EffectiveMinStock(r, product),
		EffectiveMaxStock: domaininv.EffectiveMaxStock(r, product),
		WarehouseLocation: r.WarehouseLocation,
		Zone:              r.Zone,
		AverageCost:       r.AverageCost,
		TotalValue:        r.TotalValue,
		Status:            string(status),
		Version:           r.Version,
		LastRestocked:     r.LastRestocked,
		LastStockCheck:    r.LastStockCheck,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if product != nil {
		resp.SKU = product.SKU
		resp.ProductName = product.Name
	}
	return resp
}

// FromMovement arma la respuesta de una entrada del ledger.
func FromMovement(m *entity.StockMovement) MovementResponse {
	if m == nil {
		return MovementResponse{}
	}
	return MovementResponse{
		ID:             m.ID,
		Sequence:       m.Sequence,
		ProductID:      m.ProductID,
		LocationID:     m.LocationID,
		Type:           m.Type.String(),
		Quantity:       m.Quantity,
		SignedQuantity: m.SignedQuantity(),
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		UnitCost:       m.UnitCost,
		TotalCost:      m.TotalCost,
		ReferenceID:    m.ReferenceID,
		ReferenceType:  m.ReferenceType,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		CreatedBy:      m.CreatedBy,
	}
}

// FromMovements convierte una lista del ledger; nunca devuelve nil.
func FromMovements(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, FromMovement(m))
	}
	return out
}
