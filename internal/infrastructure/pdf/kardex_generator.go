// Package pdf genera el kardex (historial de movimientos de inventario) en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + filtros     │  Fecha de generación         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Tipo | Ubicación | Cant. | Antes | Después   │
//	│         | Costo unit. | Referencia                           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Entradas / Salidas / Neto                          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ inventory.KardexRenderer = (*KardexGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorOut     = &props.Color{Red: 160, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// KardexGenerator implementa inventory.KardexRenderer usando Maroto v2.
type KardexGenerator struct {
	author string
}

// NewKardexGenerator construye el generador; author va a los metadatos del PDF.
func NewKardexGenerator(author string) *KardexGenerator {
	return &KardexGenerator{author: author}
}

// RenderKardex genera el PDF y devuelve sus bytes.
func (g *KardexGenerator) RenderKardex(_ context.Context, report inventory.KardexReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Kardex de inventario", true).
		WithAuthor(nonEmpty(g.author, "stock-ledger"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	if len(report.Movements) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos para el filtro indicado.", props.Text{
				Size: 8, Align: align.Center, Top: 2, Color: colorGray,
			}),
		)))
	}
	m.AddRows(movementRows(report.Movements)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(report))
	if report.Truncated() {
		m.AddRows(row.New(6).Add(col.New(12).Add(
			text.New(fmt.Sprintf("Se muestran %d de %d movimientos. Acote el filtro para ver el resto.",
				len(report.Movements), report.Total), props.Text{Size: 7, Top: 1, Color: colorGray}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar kardex: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título y filtros aplicados (izq), fecha de generación (der).
func headerRow(report inventory.KardexReport) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("KARDEX DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(describeFilter(report), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(report.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 7,
			}),
		),
	)
}

func describeFilter(report inventory.KardexReport) string {
	f := report.Filter
	parts := []string{
		"Producto: " + nonEmpty(f.ProductID, "todos"),
		"Ubicación: " + nonEmpty(f.LocationID, "todas"),
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = t.String()
		}
		parts = append(parts, "Tipos: "+strings.Join(types, ","))
	}
	if f.From != nil {
		parts = append(parts, "Desde: "+f.From.Format("02/01/2006"))
	}
	if f.To != nil {
		parts = append(parts, "Hasta: "+f.To.Format("02/01/2006"))
	}
	return strings.Join(parts, "   |   ")
}

// tableHeaderRow: cabecera de la tabla de movimientos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 2, align.Left),
		h("Ubicación", 2, align.Left),
		h("Cant.", 1, align.Right),
		h("Antes", 1, align.Right),
		h("Después", 1, align.Right),
		h("Costo unit.", 1, align.Right),
		h("Referencia", 2, align.Left),
	)
}

// movementRows: una fila por movimiento; las salidas van en rojo con signo negativo.
func movementRows(movs []*entity.StockMovement) []core.Row {
	rows := make([]core.Row, 0, len(movs))
	for _, mv := range movs {
		signed := mv.SignedQuantity()
		qtyProps := props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1}
		if signed < 0 {
			qtyProps.Color = colorOut
		}
		cost := "—"
		if mv.UnitCost != nil {
			cost = "$" + formatMoney(mv.UnitCost.StringFixed(0))
		}
		cell := func(s string, a align.Type) core.Component {
			return text.New(s, props.Text{Size: 7.5, Align: a, Top: 1, Left: 1, Right: 1})
		}
		rows = append(rows, row.New(6).Add(
			col.New(2).Add(cell(mv.CreatedAt.Format("02/01/06 15:04"), align.Left)),
			col.New(2).Add(cell(mv.Type.String(), align.Left)),
			col.New(2).Add(cell(mv.LocationID, align.Left)),
			col.New(1).Add(text.New(strconv.FormatInt(signed, 10), qtyProps)),
			col.New(1).Add(cell(strconv.FormatInt(mv.QuantityBefore, 10), align.Right)),
			col.New(1).Add(cell(strconv.FormatInt(mv.QuantityAfter, 10), align.Right)),
			col.New(1).Add(cell(cost, align.Right)),
			col.New(2).Add(cell(reference(mv), align.Left)),
		))
	}
	return rows
}

// totalsRow: entradas, salidas y neto del reporte.
func totalsRow(report inventory.KardexReport) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 8, Align: align.Right, Right: 1})
	}
	return row.New(14).Add(
		col.New(6),
		col.New(3).Add(
			label("Entradas:"),
			label("Salidas:"),
			label("Neto:"),
		),
		col.New(3).Add(
			value(formatMoney(strconv.FormatInt(report.UnitsIn, 10))),
			value(formatMoney(strconv.FormatInt(report.UnitsOut, 10))),
			value(strconv.FormatInt(report.UnitsIn-report.UnitsOut, 10)),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func reference(mv *entity.StockMovement) string {
	if mv.ReferenceID == "" {
		return nonEmpty(mv.Notes, "—")
	}
	if mv.ReferenceType == "" {
		return mv.ReferenceID
	}
	return mv.ReferenceType + " " + mv.ReferenceID
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "-1000000" → "-1.000.000"
func formatMoney(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
