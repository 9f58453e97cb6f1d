package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

// PaymentRepository puerto de persistencia para pagos (solo inserción y lectura).
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]entity.Payment, error)
	SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error)
}
