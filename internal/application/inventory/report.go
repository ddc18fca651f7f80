package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// KardexReport contenido del reporte de movimientos (kardex) listo para renderizar.
type KardexReport struct {
	GeneratedAt time.Time
	Filter      repository.MovementFilter
	Movements   []*entity.StockMovement
	Total       int // filas que cumplen el filtro, aunque el reporte traiga menos
	UnitsIn     int64
	UnitsOut    int64
}

// Truncated indica que el reporte no incluye todos los movimientos del filtro.
func (r KardexReport) Truncated() bool { return r.Total > len(r.Movements) }

// KardexRenderer convierte el reporte a un documento (PDF).
type KardexRenderer interface {
	RenderKardex(ctx context.Context, report KardexReport) ([]byte, error)
}

// ExportKardex arma el reporte del historial filtrado y lo entrega al renderer.
func (uc *InventoryUseCase) ExportKardex(ctx context.Context, filter repository.MovementFilter, renderer KardexRenderer) ([]byte, *KardexReport, error) {
	if filter.Limit <= 0 {
		filter.Limit = maxMovementsLimit
	}
	movs, total, err := uc.Movements(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	report := KardexReport{
		GeneratedAt: uc.processor.now(),
		Filter:      filter,
		Movements:   movs,
		Total:       total,
	}
	for _, m := range movs {
		if s := m.SignedQuantity(); s >= 0 {
			report.UnitsIn += s
		} else {
			report.UnitsOut -= s
		}
	}
	doc, err := renderer.RenderKardex(ctx, report)
	if err != nil {
		return nil, nil, err
	}
	return doc, &report, nil
}
