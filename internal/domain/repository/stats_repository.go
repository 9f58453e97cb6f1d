package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StatusTotals conteo y suma de totales para un estado.
type StatusTotals struct {
	Status string
	Count  int
	Total  decimal.Decimal
}

// InvoiceStats agregación de facturas de un usuario en un rango de fechas de emisión.
type InvoiceStats struct {
	ByStatus    []StatusTotals
	Invoiced    decimal.Decimal // suma de totales no cancelados
	Paid        decimal.Decimal // suma de pagos de esas facturas
	Outstanding decimal.Decimal // Invoiced - Paid, solo sent/overdue
}

// StatsRepository consultas de solo lectura.
type StatsRepository interface {
	InvoiceStats(ctx context.Context, ownerID string, from, to time.Time) (*InvoiceStats, error)
}
