package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// InvoiceUseCase ciclo de vida de la factura y libro de pagos.
// Toda mutación corre dentro de TxRunner (SERIALIZABLE) releyendo la factura primero.
type InvoiceUseCase struct {
	tx       repository.TxRunner
	invoices repository.InvoiceRepository
	payments repository.PaymentRepository
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

// NewInvoiceUseCase construye el caso de uso. invoices y payments se usan solo para lecturas.
func NewInvoiceUseCase(tx repository.TxRunner, invoices repository.InvoiceRepository, payments repository.PaymentRepository, cfg Config, log *logger.Logger) *InvoiceUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceUseCase{
		tx:       tx,
		invoices: invoices,
		payments: payments,
		cfg:      cfg.withDefaults(),
		log:      log.Component("billing"),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (pruebas).
func (uc *InvoiceUseCase) WithClock(now func() time.Time) *InvoiceUseCase {
	uc.now = now
	return uc
}

// Create crea la factura en borrador con sus líneas, a partir de registros de tiempo, líneas manuales o ambos.
func (uc *InvoiceUseCase) Create(ctx context.Context, ownerID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if ownerID == "" || in.ClientID == "" || in.IssueDate.IsZero() || in.DueDate.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	if in.DueDate.Before(in.IssueDate.Time) {
		return nil, domain.ErrInvalidDateRange
	}
	if !validRate(in.TaxRate) || !validRate(in.DiscountRate) {
		return nil, domain.ErrInvalidInput
	}
	if err := validateManualItems(in.Items); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 && len(dedupe(in.TimeEntryIDs)) == 0 {
		return nil, domain.ErrEmptyInvoice
	}

	var inv *entity.Invoice
	var items []entity.InvoiceItem
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		// 1) Cliente del usuario
		client, err := repos.Clients.GetByID(ctx, ownerID, in.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return domain.ErrNotFound
		}

		// 2) Líneas: registros elegibles (todos o ninguno) + manuales
		var claimed []string
		items, claimed, err = buildLines(ctx, repos.TimeEntries, ownerID, in.Items, in.TimeEntryIDs)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.ErrEmptyInvoice
		}

		// 3) Totales
		inv = &entity.Invoice{
			ID:           uuid.New().String(),
			OwnerID:      ownerID,
			ClientID:     client.ID,
			IssueDate:    in.IssueDate.Time,
			DueDate:      in.DueDate.Time,
			TaxRate:      in.TaxRate,
			DiscountRate: in.DiscountRate,
			Currency:     uc.currency(in.Currency, client.Currency),
			Status:       entity.InvoiceStatusDraft,
			PdfStatus:    entity.PdfStatusNotGenerated,
			Notes:        in.Notes,
			Terms:        in.Terms,
		}
		inv.ApplyTotals(subtotalOf(items))
		if !inv.Total.IsPositive() {
			return domain.ErrZeroTotal
		}

		// 4) Consecutivo dentro de la misma transacción que el insert
		count, err := repos.Invoices.CountByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = fmt.Sprintf("%s-%05d", uc.cfg.InvoicePrefix, count+1)

		// 5) Persistencia: cabecera, líneas, registros consumidos y agregado del cliente
		if err := repos.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		for i := range items {
			items[i].ID = uuid.New().String()
			items[i].InvoiceID = inv.ID
		}
		if err := repos.Invoices.CreateItems(ctx, items); err != nil {
			return err
		}
		if len(claimed) > 0 {
			if err := repos.TimeEntries.MarkInvoiced(ctx, ownerID, inv.ID, claimed); err != nil {
				return err
			}
		}
		return repos.Clients.AddRevenue(ctx, client.ID, inv.Total)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("owner_id", ownerID).Str("invoice_id", inv.ID).Str("invoice_number", inv.InvoiceNumber).
		Str("total", inv.Total.StringFixed(2)).Msg("factura creada")
	return toInvoiceResponse(inv, items, nil), nil
}

// Update modifica una factura. Con solo Status pasa por la tabla de transiciones;
// cualquier otro campo exige borrador y, si toca líneas, las reconstruye por completo.
func (uc *InvoiceUseCase) Update(ctx context.Context, ownerID, invoiceID string, in dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if in.Status != nil {
		if in.TouchesContent() {
			return nil, domain.ErrInvalidInput
		}
		return uc.UpdateStatus(ctx, ownerID, invoiceID, *in.Status)
	}
	if !in.TouchesContent() {
		return uc.Get(ctx, ownerID, invoiceID)
	}
	if (in.TaxRate != nil && !validRate(*in.TaxRate)) || (in.DiscountRate != nil && !validRate(*in.DiscountRate)) {
		return nil, domain.ErrInvalidInput
	}
	if in.Items != nil {
		if err := validateManualItems(*in.Items); err != nil {
			return nil, err
		}
	}

	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		inv, err := repos.Invoices.GetByID(ctx, ownerID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if !inv.IsDraft() {
			return domain.NewStateError(domain.ErrInvoiceNotEditable, inv.Status, inv.PdfStatus)
		}
		oldTotal := inv.Total

		if in.IssueDate != nil {
			inv.IssueDate = in.IssueDate.Time
		}
		if in.DueDate != nil {
			inv.DueDate = in.DueDate.Time
		}
		if inv.DueDate.Before(inv.IssueDate) {
			return domain.ErrInvalidDateRange
		}
		if in.TaxRate != nil {
			inv.TaxRate = *in.TaxRate
		}
		if in.DiscountRate != nil {
			inv.DiscountRate = *in.DiscountRate
		}
		if in.Notes != nil {
			inv.Notes = *in.Notes
		}
		if in.Terms != nil {
			inv.Terms = *in.Terms
		}

		subtotal := inv.Subtotal
		if in.TouchesItems() {
			var manual []dto.InvoiceItemRequest
			var entryIDs []string
			if in.Items != nil {
				manual = *in.Items
			}
			if in.TimeEntryIDs != nil {
				entryIDs = *in.TimeEntryIDs
			}
			// borrar y reinsertar: se liberan los registros antes de volver a seleccionarlos
			if _, err := repos.TimeEntries.ReleaseByInvoice(ctx, ownerID, inv.ID); err != nil {
				return err
			}
			if err := repos.Invoices.DeleteItems(ctx, inv.ID); err != nil {
				return err
			}
			items, claimed, err := buildLines(ctx, repos.TimeEntries, ownerID, manual, entryIDs)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return domain.ErrEmptyInvoice
			}
			for i := range items {
				items[i].ID = uuid.New().String()
				items[i].InvoiceID = inv.ID
			}
			if err := repos.Invoices.CreateItems(ctx, items); err != nil {
				return err
			}
			if len(claimed) > 0 {
				if err := repos.TimeEntries.MarkInvoiced(ctx, ownerID, inv.ID, claimed); err != nil {
					return err
				}
			}
			subtotal = subtotalOf(items)
		}

		inv.ApplyTotals(subtotal)
		if !inv.Total.IsPositive() {
			return domain.ErrZeroTotal
		}
		if err := repos.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		if delta := inv.Total.Sub(oldTotal); !delta.IsZero() {
			return repos.Clients.AddRevenue(ctx, inv.ClientID, delta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.Get(ctx, ownerID, invoiceID)
}

// UpdateStatus aplica una transición de la tabla. paid se registra como pago del saldo
// pendiente para que el libro de pagos siga siendo la fuente de verdad.
func (uc *InvoiceUseCase) UpdateStatus(ctx context.Context, ownerID, invoiceID, status string) (*dto.InvoiceResponse, error) {
	if !entity.IsValidInvoiceStatus(status) {
		return nil, domain.ErrInvalidInput
	}

	if status == entity.InvoiceStatusPaid {
		cur, err := uc.invoices.GetByID(ctx, ownerID, invoiceID)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			return nil, domain.ErrNotFound
		}
		if !entity.CanTransition(cur.Status, status) {
			return nil, domain.ErrInvalidStatusTransition
		}
		if _, err := uc.MarkAsPaid(ctx, ownerID, invoiceID, dto.RecordPaymentRequest{Method: DefaultPaymentMethod}); err != nil {
			return nil, err
		}
		return uc.Get(ctx, ownerID, invoiceID)
	}

	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		inv, err := repos.Invoices.GetByID(ctx, ownerID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(inv.Status, status) {
			return domain.ErrInvalidStatusTransition
		}
		now := uc.now().UTC()
		inv.Status = status
		switch status {
		case entity.InvoiceStatusSent:
			if inv.SentAt == nil {
				inv.SentAt = &now
			}
		case entity.InvoiceStatusCancelled:
			if _, err := repos.TimeEntries.ReleaseByInvoice(ctx, ownerID, inv.ID); err != nil {
				return err
			}
			if err := repos.Clients.AddRevenue(ctx, inv.ClientID, inv.Total.Neg()); err != nil {
				return err
			}
		}
		return repos.Invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("owner_id", ownerID).Str("invoice_id", invoiceID).Str("status", status).Msg("estado de factura actualizado")
	return uc.Get(ctx, ownerID, invoiceID)
}

// Delete borrado lógico de una factura en borrador; libera sus registros de tiempo en la misma transacción.
func (uc *InvoiceUseCase) Delete(ctx context.Context, ownerID, invoiceID string) error {
	return uc.tx.Run(ctx, func(repos repository.Repositories) error {
		inv, err := repos.Invoices.GetByID(ctx, ownerID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if !inv.IsDraft() {
			return domain.NewStateError(domain.ErrInvoiceNotEditable, inv.Status, inv.PdfStatus)
		}
		if _, err := repos.TimeEntries.ReleaseByInvoice(ctx, ownerID, inv.ID); err != nil {
			return err
		}
		if err := repos.Invoices.SoftDelete(ctx, ownerID, inv.ID, uc.now().UTC()); err != nil {
			return err
		}
		return repos.Clients.AddRevenue(ctx, inv.ClientID, inv.Total.Neg())
	})
}

// Get factura con líneas, pagos y saldo.
func (uc *InvoiceUseCase) Get(ctx context.Context, ownerID, invoiceID string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoices.GetByID(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	items, err := uc.invoices.ListItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	payments, err := uc.payments.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, items, payments), nil
}

// List facturas del usuario (sin líneas), con importe pagado y saldo.
func (uc *InvoiceUseCase) List(ctx context.Context, ownerID string, in dto.ListInvoicesRequest) (*dto.InvoiceListResponse, error) {
	in.DefaultPage()
	if in.Status != "" && !entity.IsValidInvoiceStatus(in.Status) {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.invoices.List(ctx, ownerID, repository.InvoiceFilter{
		ClientID: in.ClientID,
		Status:   in.Status,
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.InvoiceListResponse{
		Items: make([]dto.InvoiceResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}
	for _, inv := range list {
		paid, err := uc.payments.SumByInvoice(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		r := toInvoiceResponse(inv, nil, nil)
		r.AmountPaid = paid
		r.Balance = inv.Total.Sub(paid)
		out.Items = append(out.Items, *r)
	}
	return out, nil
}

func (uc *InvoiceUseCase) currency(requested, client string) string {
	switch {
	case requested != "":
		return requested
	case client != "":
		return client
	default:
		return uc.cfg.DefaultCurrency
	}
}

// remaining saldo pendiente: total menos pagos registrados.
func remaining(total decimal.Decimal, payments []entity.Payment) (paid, balance decimal.Decimal) {
	paid = decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	return paid, total.Sub(paid)
}
