package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Date fecha de calendario "2006-01-02" en JSON.
type Date struct{ time.Time }

const dateLayout = "2006-01-02"

// UnmarshalJSON acepta "2006-01-02" o RFC3339.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	d.Time = t.UTC().Truncate(24 * time.Hour)
	return nil
}

// MarshalJSON emite "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// InvoiceItemRequest línea manual.
type InvoiceItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

// CreateInvoiceRequest body para POST /api/invoices.
// Al menos Items o TimeEntryIDs debe producir una línea.
type CreateInvoiceRequest struct {
	ClientID     string               `json:"client_id"`
	IssueDate    Date                 `json:"issue_date"`
	DueDate      Date                 `json:"due_date"`
	Items        []InvoiceItemRequest `json:"items,omitempty"`
	TimeEntryIDs []string             `json:"time_entry_ids,omitempty"`
	TaxRate      decimal.Decimal      `json:"tax_rate"`      // porcentaje
	DiscountRate decimal.Decimal      `json:"discount_rate"` // porcentaje
	Currency     string               `json:"currency,omitempty"`
	Notes        string               `json:"notes,omitempty"`
	Terms        string               `json:"terms,omitempty"`
}

// UpdateInvoiceRequest body para PATCH /api/invoices/:id. Campos nil no se tocan.
// Si viene Items o TimeEntryIDs, las líneas se reconstruyen por completo.
// Status solo-estado: pasa por la tabla de transiciones.
type UpdateInvoiceRequest struct {
	IssueDate    *Date                 `json:"issue_date,omitempty"`
	DueDate      *Date                 `json:"due_date,omitempty"`
	Items        *[]InvoiceItemRequest `json:"items,omitempty"`
	TimeEntryIDs *[]string             `json:"time_entry_ids,omitempty"`
	TaxRate      *decimal.Decimal      `json:"tax_rate,omitempty"`
	DiscountRate *decimal.Decimal      `json:"discount_rate,omitempty"`
	Notes        *string               `json:"notes,omitempty"`
	Terms        *string               `json:"terms,omitempty"`
	Status       *string               `json:"status,omitempty"`
}

// TouchesContent indica si la petición modifica algo más que el estado.
func (r UpdateInvoiceRequest) TouchesContent() bool {
	return r.IssueDate != nil || r.DueDate != nil || r.Items != nil || r.TimeEntryIDs != nil ||
		r.TaxRate != nil || r.DiscountRate != nil || r.Notes != nil || r.Terms != nil
}

// TouchesItems indica si hay que reconstruir las líneas.
func (r UpdateInvoiceRequest) TouchesItems() bool {
	return r.Items != nil || r.TimeEntryIDs != nil
}

// ListInvoicesRequest query de GET /api/invoices.
type ListInvoicesRequest struct {
	PageRequest
	ClientID string `query:"client_id"`
	Status   string `query:"status"`
}

// InvoiceItemResponse línea en respuestas.
type InvoiceItemResponse struct {
	ID          string          `json:"id"`
	TimeEntryID *string         `json:"time_entry_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// PaymentResponse pago en respuestas.
type PaymentResponse struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
	Notes     string          `json:"notes,omitempty"`
}

// InvoiceResponse factura con líneas y pagos para GET /api/invoices/:id.
type InvoiceResponse struct {
	ID             string                `json:"id"`
	ClientID       string                `json:"client_id"`
	InvoiceNumber  string                `json:"invoice_number"`
	IssueDate      Date                  `json:"issue_date"`
	DueDate        Date                  `json:"due_date"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	TaxRate        decimal.Decimal       `json:"tax_rate"`
	Tax            decimal.Decimal       `json:"tax"`
	DiscountRate   decimal.Decimal       `json:"discount_rate"`
	Discount       decimal.Decimal       `json:"discount"`
	Total          decimal.Decimal       `json:"total"`
	AmountPaid     decimal.Decimal       `json:"amount_paid"`
	Balance        decimal.Decimal       `json:"balance"`
	Currency       string                `json:"currency"`
	Status         string                `json:"status"`
	PdfStatus      string                `json:"pdf_status"`
	PdfGeneratedAt *time.Time            `json:"pdf_generated_at,omitempty"`
	SentAt         *time.Time            `json:"sent_at,omitempty"`
	PaidAt         *time.Time            `json:"paid_at,omitempty"`
	Notes          string                `json:"notes,omitempty"`
	Terms          string                `json:"terms,omitempty"`
	Items          []InvoiceItemResponse `json:"items,omitempty"`
	Payments       []PaymentResponse     `json:"payments,omitempty"`
}

// InvoiceListResponse listado paginado (sin líneas).
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// RecordPaymentRequest body para POST /api/invoices/:id/payments.
// Amount nil = saldo pendiente exacto.
type RecordPaymentRequest struct {
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Method    string           `json:"method,omitempty"`
	Reference string           `json:"reference,omitempty"`
	PaidAt    *time.Time       `json:"paid_at,omitempty"`
	Notes     string           `json:"notes,omitempty"`
}

// PaymentResultResponse resultado de registrar un pago.
type PaymentResultResponse struct {
	Payment    PaymentResponse `json:"payment"`
	Status     string          `json:"status"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Balance    decimal.Decimal `json:"balance"`
}

// DownloadLinkResponse enlace firmado al PDF.
type DownloadLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StatusTotalsResponse conteo y total por estado.
type StatusTotalsResponse struct {
	Status string          `json:"status"`
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// InvoiceStatsResponse GET /api/invoices/stats.
type InvoiceStatsResponse struct {
	From        *Date                  `json:"from,omitempty"`
	To          *Date                  `json:"to,omitempty"`
	ByStatus    []StatusTotalsResponse `json:"by_status"`
	Invoiced    decimal.Decimal        `json:"invoiced"`
	Paid        decimal.Decimal        `json:"paid"`
	Outstanding decimal.Decimal        `json:"outstanding"`
}

// ReconcileResult ajuste de agregados de un cliente.
type ReconcileResult struct {
	ClientID      string          `json:"client_id"`
	RevenueBefore decimal.Decimal `json:"revenue_before"`
	RevenueAfter  decimal.Decimal `json:"revenue_after"`
	PaidBefore    decimal.Decimal `json:"paid_before"`
	PaidAfter     decimal.Decimal `json:"paid_after"`
	Drifted       bool            `json:"drifted"`
}
