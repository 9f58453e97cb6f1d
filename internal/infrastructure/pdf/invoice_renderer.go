// Package pdf genera el documento PDF de la factura con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: FACTURA + estado     │  N° Factura + fechas         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FACTURAR A: cliente / empresa / dirección / email          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Descripción | Horas/Cant | Tarifa | Importe          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Impuesto / Descuento / Total / Saldo    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  NOTAS Y CONDICIONES                                         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/timebill-api/internal/application/documents"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// InvoiceRenderer implementa documents.Renderer.
type InvoiceRenderer struct {
	author string
}

// NewInvoiceRenderer author aparece en los metadatos del PDF.
func NewInvoiceRenderer(author string) *InvoiceRenderer {
	if author == "" {
		author = "timebill"
	}
	return &InvoiceRenderer{author: author}
}

// Render genera el PDF. La fecha de creación del documento es la de la factura,
// así el mismo snapshot produce el mismo archivo.
func (g *InvoiceRenderer) Render(snap documents.InvoiceSnapshot) ([]byte, error) {
	inv := snap.Invoice
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+inv.InvoiceNumber, true).
		WithAuthor(g.author, true).
		WithCreationDate(inv.CreatedAt.UTC()).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(&inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(billToRow(&snap.Client))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableItemRows(snap.Items, inv.Currency)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(snap))

	if inv.Notes != "" || inv.Terms != "" {
		m.AddRows(line.NewRow(3))
		m.AddRows(footerRows(&inv)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(inv *entity.Invoice) core.Row {
	return row.New(20).Add(
		col.New(7).Add(
			text.New("FACTURA", props.Text{
				Style: fontstyle.Bold, Size: 16, Color: colorPrimary, Top: 1,
			}),
			text.New("Estado: "+strings.ToUpper(inv.Status), props.Text{
				Size: 8, Top: 10, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(inv.InvoiceNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New("Emisión: "+inv.IssueDate.Format("2006-01-02"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New("Vencimiento: "+inv.DueDate.Format("2006-01-02"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func billToRow(c *entity.Client) core.Row {
	return row.New(20).Add(
		col.New(12).Add(
			text.New("FACTURAR A", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(c.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("%s   |   %s   |   %s",
				nonEmpty(c.Company, "-"),
				nonEmpty(c.Address, "-"),
				nonEmpty(c.Email, "-"),
			), props.Text{Size: 8, Top: 13, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Descripción", 6, align.Left),
		h("Cant./Horas", 2, align.Right),
		h("Tarifa", 2, align.Right),
		h("Importe", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func tableItemRows(items []entity.InvoiceItem, currency string) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(6).Add(text.New(it.Description, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(it.Quantity.String(), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(money(it.Rate, currency), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(money(it.Amount, currency), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalsRow(snap documents.InvoiceSnapshot) core.Row {
	inv := snap.Invoice
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	grand := func(s string, top float64) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: top,
		})
	}

	return row.New(36).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", 0),
			label("Impuesto ("+inv.TaxRate.String()+"%):", 5),
			label("Descuento ("+inv.DiscountRate.String()+"%):", 10),
			label("TOTAL:", 16),
			label("Pagado:", 23),
			label("Saldo:", 29),
		),
		col.New(3).Add(
			value(money(inv.Subtotal, inv.Currency), 0),
			value(money(inv.Tax, inv.Currency), 5),
			value("-"+money(inv.Discount, inv.Currency), 10),
			grand(money(inv.Total, inv.Currency), 16),
			value(money(snap.AmountPaid, inv.Currency), 23),
			grand(money(snap.Balance, inv.Currency), 29),
		),
	)
}

func footerRows(inv *entity.Invoice) []core.Row {
	var rows []core.Row
	if inv.Notes != "" {
		rows = append(rows,
			row.New(6).Add(col.New(12).Add(text.New("NOTAS", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}))),
			row.New(10).Add(col.New(12).Add(text.New(inv.Notes, props.Text{Size: 8, Color: colorGray, Top: 1}))),
		)
	}
	if inv.Terms != "" {
		rows = append(rows,
			row.New(6).Add(col.New(12).Add(text.New("CONDICIONES", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}))),
			row.New(10).Add(col.New(12).Add(text.New(inv.Terms, props.Text{Size: 8, Color: colorGray, Top: 1}))),
		)
	}
	return rows
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// money separador de miles con coma y dos decimales. Ej: 1234567.5 → "1,234,567.50 USD"
func money(d decimal.Decimal, currency string) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "." + frac
	if neg {
		out = "-" + out
	}
	if currency != "" {
		out += " " + currency
	}
	return out
}

var _ documents.Renderer = (*InvoiceRenderer)(nil)
