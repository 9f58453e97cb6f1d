package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, owner_id, client_id, invoice_number, issue_date, due_date,
	subtotal, tax_rate, tax, discount_rate, discount, total, currency, status,
	pdf_status, pdf_key, pdf_generated_at, sent_at, paid_at, notes, terms,
	deleted_at, created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.OwnerID, inv.ClientID, inv.InvoiceNumber, inv.IssueDate, inv.DueDate,
		inv.Subtotal, inv.TaxRate, inv.Tax, inv.DiscountRate, inv.Discount, inv.Total, inv.Currency, inv.Status,
		inv.PdfStatus, nullIfEmpty(inv.PdfKey), inv.PdfGeneratedAt, inv.SentAt, inv.PaidAt, inv.Notes, inv.Terms,
		inv.DeletedAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, constraintInvoiceNumber) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID obtiene una factura no borrada. ownerID vacío omite el filtro de propietario.
func (r *InvoiceRepo) GetByID(ctx context.Context, ownerID, id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE id = $1 AND deleted_at IS NULL AND ($2::text = '' OR owner_id = $2)`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepo) List(ctx context.Context, ownerID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 1000
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE owner_id = $1 AND deleted_at IS NULL
		  AND ($2::text = '' OR client_id = $2)
		  AND ($3::text = '' OR status = $3)
		ORDER BY issue_date DESC, invoice_number DESC
		LIMIT $4 OFFSET $5`
	return r.list(ctx, query, ownerID, f.ClientID, f.Status, limit, f.Offset)
}

func (r *InvoiceRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM invoices WHERE owner_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return n, nil
}

// Update reescribe los campos editables y de estado. Los campos del PDF solo los tocan los workers.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	if !inv.Total.IsPositive() {
		return domain.ErrZeroTotal
	}
	inv.UpdatedAt = time.Now().UTC()
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET issue_date    = $2,
		    due_date      = $3,
		    subtotal      = $4,
		    tax_rate      = $5,
		    tax           = $6,
		    discount_rate = $7,
		    discount      = $8,
		    total         = $9,
		    currency      = $10,
		    status        = $11,
		    sent_at       = $12,
		    paid_at       = $13,
		    notes         = $14,
		    terms         = $15,
		    updated_at    = $16
		WHERE id = $1 AND deleted_at IS NULL`,
		inv.ID, inv.IssueDate, inv.DueDate, inv.Subtotal, inv.TaxRate, inv.Tax,
		inv.DiscountRate, inv.Discount, inv.Total, inv.Currency, inv.Status,
		inv.SentAt, inv.PaidAt, inv.Notes, inv.Terms, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *InvoiceRepo) UpdatePdfState(ctx context.Context, invoiceID string, s repository.PdfState) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET pdf_status       = $2,
		    pdf_key          = COALESCE($3, pdf_key),
		    pdf_generated_at = COALESCE($4, pdf_generated_at),
		    updated_at       = now()
		WHERE id = $1`,
		invoiceID, s.Status, nullIfEmpty(s.Key), s.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice pdf state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *InvoiceRepo) MarkSent(ctx context.Context, invoiceID string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET sent_at    = COALESCE(sent_at, $2),
		    status     = CASE WHEN status = 'draft' THEN 'sent' ELSE status END,
		    updated_at = now()
		WHERE id = $1`,
		invoiceID, at,
	)
	if err != nil {
		return fmt.Errorf("mark invoice sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *InvoiceRepo) SoftDelete(ctx context.Context, ownerID, id string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices SET deleted_at = $3, updated_at = now()
		WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL`,
		ownerID, id, at,
	)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *InvoiceRepo) ListOverdueCandidates(ctx context.Context, before time.Time, limit int) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE status = 'sent' AND deleted_at IS NULL AND due_date < $1
		ORDER BY due_date
		LIMIT $2`
	return r.list(ctx, query, before, limit)
}

func (r *InvoiceRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var out []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// CreateItems inserta las líneas en un solo batch.
func (r *InvoiceRepo) CreateItems(ctx context.Context, items []entity.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		batch.Queue(`
			INSERT INTO invoice_items (id, invoice_id, time_entry_id, description, quantity, rate, amount, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, it.InvoiceID, it.TimeEntryID, it.Description, it.Quantity, it.Rate, it.Amount, it.Position)
	}
	res := r.q.SendBatch(ctx, batch)
	defer res.Close()
	for range items {
		if _, err := res.Exec(); err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}
	return nil
}

func (r *InvoiceRepo) DeleteItems(ctx context.Context, invoiceID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return fmt.Errorf("delete invoice items: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) ListItems(ctx context.Context, invoiceID string) ([]entity.InvoiceItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, invoice_id, time_entry_id, description, quantity, rate, amount, position
		FROM invoice_items WHERE invoice_id = $1 ORDER BY position, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	var out []entity.InvoiceItem
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.TimeEntryID, &it.Description, &it.Quantity, &it.Rate, &it.Amount, &it.Position); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var pdfKey *string
	err := row.Scan(
		&inv.ID, &inv.OwnerID, &inv.ClientID, &inv.InvoiceNumber, &inv.IssueDate, &inv.DueDate,
		&inv.Subtotal, &inv.TaxRate, &inv.Tax, &inv.DiscountRate, &inv.Discount, &inv.Total, &inv.Currency, &inv.Status,
		&inv.PdfStatus, &pdfKey, &inv.PdfGeneratedAt, &inv.SentAt, &inv.PaidAt, &inv.Notes, &inv.Terms,
		&inv.DeletedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.PdfKey = derefStr(pdfKey)
	return &inv, nil
}
