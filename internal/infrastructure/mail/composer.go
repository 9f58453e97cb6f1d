package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/timebill-api/internal/application/documents"
)

//go:embed templates/*.html
var templatesFS embed.FS

// TemplateComposer arma el correo de factura con html/template.
type TemplateComposer struct {
	tmpl *template.Template
}

// NewTemplateComposer carga las plantillas embebidas.
func NewTemplateComposer() (*TemplateComposer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal, currency string) string { return d.StringFixed(2) + " " + currency },
		"date":  func(t time.Time) string { return t.Format("2006-01-02") },
		"stamp": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04 MST") },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mail: plantillas: %w", err)
	}
	return &TemplateComposer{tmpl: tmpl}, nil
}

type invoiceEmailData struct {
	documents.InvoiceSnapshot
	DownloadURL string
	ExpiresAt   time.Time
}

// InvoiceEmail asunto y cuerpo del envío de factura.
func (c *TemplateComposer) InvoiceEmail(snap documents.InvoiceSnapshot, downloadURL string, expiresAt time.Time) (string, string, error) {
	var buf bytes.Buffer
	data := invoiceEmailData{InvoiceSnapshot: snap, DownloadURL: downloadURL, ExpiresAt: expiresAt}
	if err := c.tmpl.ExecuteTemplate(&buf, "invoice_email.html", data); err != nil {
		return "", "", fmt.Errorf("mail: render correo: %w", err)
	}
	subject := fmt.Sprintf("Factura %s: %s %s", snap.Invoice.InvoiceNumber, snap.Invoice.Total.StringFixed(2), snap.Invoice.Currency)
	return subject, buf.String(), nil
}

var _ documents.EmailComposer = (*TemplateComposer)(nil)
