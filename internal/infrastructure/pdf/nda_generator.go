// Package pdf genera el acuerdo de confidencialidad (NDA) que se emite a cada
// oportunidad.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor              │  NDA v<n> + Fecha            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PARTES: Inversor + email / Emitido por                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLÁUSULAS numeradas                                        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FIRMAS: Inversor │ Contraparte          + QR de referencia │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
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

	"github.com/jhoicas/leadflow-api/internal/application/ports"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// clauses texto base del acuerdo.
var clauses = []string{
	"Información Confidencial. Toda información financiera, técnica, catastral o comercial que las partes intercambien sobre la oportunidad se considera confidencial.",
	"Uso restringido. La Información Confidencial solo podrá usarse para evaluar la inversión y no podrá divulgarse a terceros sin autorización escrita.",
	"Vigencia. Las obligaciones de este acuerdo se mantienen durante dos (2) años desde su firma, aun si la oportunidad no se concreta.",
	"Devolución. A solicitud de la contraparte, el receptor devolverá o destruirá la Información Confidencial y sus copias.",
	"Versiones. Este documento reemplaza cualquier versión anterior del acuerdo emitida para la misma oportunidad.",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// NdaGenerator implementa ports.NdaRenderer usando Maroto v2.
type NdaGenerator struct {
	issuer string
}

var _ ports.NdaRenderer = (*NdaGenerator)(nil)

// NewNdaGenerator issuer es el nombre de la contraparte que emite el acuerdo.
func NewNdaGenerator(issuer string) *NdaGenerator {
	return &NdaGenerator{issuer: nonEmpty(issuer, "LeadFlow")}
}

// RenderNda genera el PDF y devuelve sus bytes.
func (g *NdaGenerator) RenderNda(doc ports.NdaDocument) ([]byte, error) {
	if doc.OpportunityID == "" || doc.Version <= 0 {
		return nil, fmt.Errorf("pdf: nda sin oportunidad o versión")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).WithRightMargin(15).
		WithTopMargin(12).WithBottomMargin(12).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 10}).
		WithTitle(fmt.Sprintf("Acuerdo de confidencialidad v%d", doc.Version), true).
		WithAuthor(g.issuer, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(g.partiesRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	for _, r := range clauseRows() {
		m.AddRows(r)
	}
	m.AddRows(line.NewRow(6))
	m.AddRows(g.signatureRow(doc))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *NdaGenerator) headerRow(doc ports.NdaDocument) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(g.issuer, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("Acuerdo de confidencialidad", props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("NDA", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("Versión %d", doc.Version), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7}),
			text.New("Fecha: "+doc.IssuedAt.Format("02/01/2006"), props.Text{Size: 8, Align: align.Right, Top: 14, Color: colorGray}),
		),
	)
}

func (g *NdaGenerator) partiesRow(doc ports.NdaDocument) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New("INVERSOR", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(doc.LeadName, "-"), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(nonEmpty(doc.LeadEmail, "-"), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("EMITIDO POR", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(doc.IssuedBy, "-"), props.Text{Size: 9, Align: align.Right, Top: 6}),
			text.New("Oportunidad "+doc.OpportunityID, props.Text{Size: 7, Align: align.Right, Top: 12, Color: colorGray}),
		),
	)
}

func clauseRows() []core.Row {
	rows := make([]core.Row, 0, len(clauses))
	for i, c := range clauses {
		rows = append(rows, row.New(14).Add(col.New(12).Add(
			text.New(fmt.Sprintf("%d. %s", i+1, c), props.Text{Size: 9, Top: 2, Align: align.Left}),
		)))
	}
	return rows
}

func (g *NdaGenerator) signatureRow(doc ports.NdaDocument) core.Row {
	sign := func(label string) core.Col {
		return col.New(4).Add(
			text.New("______________________________", props.Text{Size: 9, Align: align.Center, Top: 14}),
			text.New(label, props.Text{Size: 8, Align: align.Center, Top: 20, Color: colorGray}),
		)
	}
	return row.New(34).Add(
		sign("Firma del inversor"),
		sign("Firma de "+g.issuer),
		col.New(4).Add(code.NewQr(reference(doc), props.Rect{Percent: 80, Center: true})),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// reference identificador impreso en el QR para cotejar la copia firmada.
func reference(doc ports.NdaDocument) string {
	return fmt.Sprintf("nda:%s:v%d", doc.OpportunityID, doc.Version)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
