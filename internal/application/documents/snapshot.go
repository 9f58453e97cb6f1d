package documents

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

// SnapshotLoader lee factura, cliente, líneas y pagos.
type SnapshotLoader struct {
	invoices repository.InvoiceRepository
	clients  repository.ClientRepository
	payments repository.PaymentRepository
}

// NewSnapshotLoader construye el cargador.
func NewSnapshotLoader(invoices repository.InvoiceRepository, clients repository.ClientRepository, payments repository.PaymentRepository) *SnapshotLoader {
	return &SnapshotLoader{invoices: invoices, clients: clients, payments: payments}
}

// Load devuelve domain.ErrNotFound si la factura o su cliente ya no existen.
func (l *SnapshotLoader) Load(ctx context.Context, ownerID, invoiceID string) (*InvoiceSnapshot, error) {
	inv, err := l.invoices.GetByID(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("snapshot: factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	client, err := l.clients.GetByID(ctx, inv.OwnerID, inv.ClientID)
	if err != nil {
		return nil, fmt.Errorf("snapshot: cliente: %w", err)
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	items, err := l.invoices.ListItems(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("snapshot: líneas: %w", err)
	}
	payments, err := l.payments.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("snapshot: pagos: %w", err)
	}
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	return &InvoiceSnapshot{
		Invoice:    *inv,
		Client:     *client,
		Items:      items,
		Payments:   payments,
		AmountPaid: paid,
		Balance:    inv.Total.Sub(paid),
	}, nil
}

