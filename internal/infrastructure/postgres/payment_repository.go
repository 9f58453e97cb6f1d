package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo pagos: solo inserción y lectura.
type PaymentRepo struct {
	q Querier
}

func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	if !p.Amount.IsPositive() {
		return domain.ErrInvalidInput
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now().UTC()
	_, err := r.q.Exec(ctx, `
		INSERT INTO payments (id, invoice_id, owner_id, amount, method, reference, paid_at, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.InvoiceID, p.OwnerID, p.Amount, p.Method, p.Reference, p.PaidAt, p.Notes, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]entity.Payment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, invoice_id, owner_id, amount, method, reference, paid_at, notes, created_at
		FROM payments WHERE invoice_id = $1 ORDER BY paid_at, created_at`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var out []entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.OwnerID, &p.Amount, &p.Method, &p.Reference, &p.PaidAt, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PaymentRepo) SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`, invoiceID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payments: %w", err)
	}
	return sum, nil
}
