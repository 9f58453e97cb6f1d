package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment registro inmutable de un cobro contra una factura.
type Payment struct {
	ID        string
	InvoiceID string
	OwnerID   string
	Amount    decimal.Decimal
	Method    string
	Reference string
	PaidAt    time.Time
	Notes     string
	CreatedAt time.Time
}
