// Package pdf genera el reporte PDF de convenios próximos a vencer.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + ventana  │  Fecha de generación            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: total por prioridad                                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Convenio | Empresa | Fecha fin | Días | Prioridad    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: leyenda                                             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"time"

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

	"github.com/jhoicas/Convenios-api/internal/application/dto"
	"github.com/jhoicas/Convenios-api/internal/application/ports"
	"github.com/jhoicas/Convenios-api/internal/domain/entity"
)

var _ ports.ExpirationReportGenerator = (*MarotoReportGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorRowAlt  = &props.Color{Red: 240, Green: 244, Blue: 248}

	priorityColors = map[string]*props.Color{
		entity.PriorityUrgente: {Red: 190, Green: 30, Blue: 45},
		entity.PriorityAlta:    {Red: 220, Green: 110, Blue: 0},
		entity.PriorityMedia:   {Red: 160, Green: 130, Blue: 0},
		entity.PriorityBaja:    colorGray,
	}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator implementa ports.ExpirationReportGenerator usando Maroto v2.
type MarotoReportGenerator struct {
	institution string
	loc         *time.Location
}

// NewMarotoReportGenerator construye el generador. loc define cómo se muestran las fechas.
func NewMarotoReportGenerator(institution string, loc *time.Location) *MarotoReportGenerator {
	if loc == nil {
		loc = time.Local
	}
	return &MarotoReportGenerator{institution: institution, loc: loc}
}

// GenerateExpirationReport genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateExpirationReport(_ context.Context, report *dto.ExpirationReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("pdf: reporte nil")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Convenios próximos a vencer", true).
		WithAuthor(g.institution, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(report.Items))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	if len(report.Items) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New(fmt.Sprintf("No hay convenios aprobados que venzan en los próximos %d días.", report.WindowDays),
				props.Text{Size: 9, Align: align.Center, Top: 3, Color: colorGray}),
		)))
	}
	m.AddRows(g.tableDetailRows(report.Items)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título e institución (izq) y fecha de generación (der).
func (g *MarotoReportGenerator) headerRow(report *dto.ExpirationReport) core.Row {
	return row.New(18).Add(
		col.New(8).Add(
			text.New("CONVENIOS PRÓXIMOS A VENCER", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(g.institution, "Coordinación de prácticas"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New(fmt.Sprintf("Ventana: %d días", report.WindowDays), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2,
			}),
			text.New("Generado: "+report.GeneratedAt.In(g.loc).Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

// summaryRow: cantidad de convenios por prioridad.
func summaryRow(items []dto.ExpirationReportItem) core.Row {
	counts := map[string]int{}
	for _, it := range items {
		counts[it.Priority]++
	}
	cell := func(label, priority string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 1, Color: priorityColors[priority]}),
			text.New(strconv.Itoa(counts[priority]), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Center, Top: 6}),
		)
	}
	return row.New(14).Add(
		cell("URGENTE", entity.PriorityUrgente),
		cell("ALTA", entity.PriorityAlta),
		cell("MEDIA", entity.PriorityMedia),
		cell("BAJA", entity.PriorityBaja),
	)
}

// tableHeaderRow: cabecera de la tabla con fondo azul.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Convenio", 4, align.Left),
		h("Empresa", 3, align.Left),
		h("Fecha fin", 2, align.Center),
		h("Días", 1, align.Center),
		h("Prioridad", 2, align.Center),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableDetailRows: una fila por convenio, filas alternas sombreadas.
func (g *MarotoReportGenerator) tableDetailRows(items []dto.ExpirationReportItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for i, it := range items {
		r := row.New(7).Add(
			col.New(4).Add(text.New(it.ConvenioName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(it.CompanyName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(it.EndDate.In(g.loc).Format("02/01/2006"), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(strconv.Itoa(it.DaysRemaining), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(it.Priority, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 1, Color: priorityColors[it.Priority],
			})),
		)
		if i%2 == 1 {
			r = r.WithStyle(&props.Cell{BackgroundColor: colorRowAlt})
		}
		result = append(result, r)
	}
	return result
}

func footerRow() core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(
			"Los convenios vencidos se marcan automáticamente como VENCIDO en el barrido diario. "+
				"Renueve el convenio antes de la fecha fin para no interrumpir las prácticas en curso.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
