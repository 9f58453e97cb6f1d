package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la factura.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Estados del documento PDF.
const (
	PdfStatusNotGenerated = "not_generated"
	PdfStatusProcessing   = "processing"
	PdfStatusGenerated    = "generated"
	PdfStatusFailed       = "failed"
)

// invoiceTransitions tabla de transiciones permitidas. paid y cancelled son terminales.
var invoiceTransitions = map[string][]string{
	InvoiceStatusDraft:     {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:      {InvoiceStatusPaid, InvoiceStatusOverdue},
	InvoiceStatusOverdue:   {InvoiceStatusPaid},
	InvoiceStatusPaid:      {},
	InvoiceStatusCancelled: {},
}

// CanTransition informa si from → to está en la tabla.
func CanTransition(from, to string) bool {
	for _, s := range invoiceTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsValidInvoiceStatus informa si s es un estado conocido.
func IsValidInvoiceStatus(s string) bool {
	_, ok := invoiceTransitions[s]
	return ok
}

// Invoice cabecera de la factura. Subtotal, Tax, Discount y Total son derivados de los ítems.
type Invoice struct {
	ID             string
	OwnerID        string
	ClientID       string
	InvoiceNumber  string
	IssueDate      time.Time
	DueDate        time.Time
	Subtotal       decimal.Decimal
	TaxRate        decimal.Decimal // porcentaje 0-100
	Tax            decimal.Decimal
	DiscountRate   decimal.Decimal // porcentaje 0-100
	Discount       decimal.Decimal
	Total          decimal.Decimal
	Currency       string
	Status         string
	PdfStatus      string
	PdfKey         string
	PdfGeneratedAt *time.Time
	SentAt         *time.Time
	PaidAt         *time.Time
	Notes          string
	Terms          string
	DeletedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsDraft atajo para el único estado editable.
func (i *Invoice) IsDraft() bool { return i.Status == InvoiceStatusDraft }

// CountsAsRevenue indica si el total entra en el agregado total_revenue del cliente.
func (i *Invoice) CountsAsRevenue() bool {
	return i.DeletedAt == nil && i.Status != InvoiceStatusCancelled
}

// ApplyTotals recalcula tax, discount y total a partir del subtotal y los porcentajes.
// Redondeo a 2 decimales (half-up).
func (i *Invoice) ApplyTotals(subtotal decimal.Decimal) {
	hundred := decimal.NewFromInt(100)
	i.Subtotal = subtotal.Round(2)
	i.Tax = i.Subtotal.Mul(i.TaxRate).Div(hundred).Round(2)
	i.Discount = i.Subtotal.Mul(i.DiscountRate).Div(hundred).Round(2)
	i.Total = i.Subtotal.Add(i.Tax).Sub(i.Discount)
}

// InvoiceItem línea de factura. Amount = Quantity × Rate.
// TimeEntryID se informa cuando la línea proviene de un registro de tiempo.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	TimeEntryID *string
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
	Position    int
}

// NewInvoiceItem construye la línea calculando Amount.
func NewInvoiceItem(description string, quantity, rate decimal.Decimal) InvoiceItem {
	return InvoiceItem{
		Description: description,
		Quantity:    quantity,
		Rate:        rate,
		Amount:      quantity.Mul(rate).Round(2),
	}
}

// NewTimeInvoiceItem construye la línea de un registro de tiempo. Amount sale de
// minutos×tarifa/60 sin redondeo intermedio; Quantity (horas, 4 decimales) es solo informativa.
func NewTimeInvoiceItem(description string, minutes int, rate decimal.Decimal) InvoiceItem {
	return InvoiceItem{
		Description: description,
		Quantity:    decimal.NewFromInt(int64(minutes)).DivRound(decimal.NewFromInt(60), 4),
		Rate:        rate,
		Amount:      decimal.NewFromInt(int64(minutes)).Mul(rate).DivRound(decimal.NewFromInt(60), 2),
	}
}
