package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client cliente del freelancer. TotalRevenue y TotalPaid son contadores derivados
// (caché de consultas sobre facturas y pagos); ver billing.ReconcileUseCase.
type Client struct {
	ID           string
	OwnerID      string
	Name         string
	Email        string
	Company      string
	Address      string
	Currency     string
	TotalRevenue decimal.Decimal
	TotalPaid    decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Project proyecto de un cliente con su tarifa por hora.
type Project struct {
	ID         string
	OwnerID    string
	ClientID   string
	Name       string
	HourlyRate decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
