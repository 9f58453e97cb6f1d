package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

// MarkAsPaid registra un pago contra la factura. Sin Amount se cobra el saldo pendiente exacto.
// Lectura de pagos, validación, inserción, estado y agregado del cliente van en una sola
// transacción serializable: dos pagos parciales concurrentes no pueden creerse ambos el último.
func (uc *InvoiceUseCase) MarkAsPaid(ctx context.Context, ownerID, invoiceID string, in dto.RecordPaymentRequest) (*dto.PaymentResultResponse, error) {
	if in.Amount != nil {
		rounded := in.Amount.Round(2)
		if !rounded.IsPositive() {
			return nil, domain.ErrInvalidInput
		}
		in.Amount = &rounded
	}

	var (
		payment *entity.Payment
		inv     *entity.Invoice
		result  dto.PaymentResultResponse
	)
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		var err error
		inv, err = repos.Invoices.GetByID(ctx, ownerID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if inv.Status == entity.InvoiceStatusDraft || inv.Status == entity.InvoiceStatusCancelled {
			return domain.NewStateError(domain.ErrPaymentNotAllowed, inv.Status, inv.PdfStatus)
		}

		existing, err := repos.Payments.ListByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		paid, balance := remaining(inv.Total, existing)

		amount := balance
		if in.Amount != nil {
			amount = *in.Amount
		}
		if !amount.IsPositive() || amount.GreaterThan(balance) {
			return domain.ErrOverpayment
		}

		now := uc.now().UTC()
		paidAt := now
		if in.PaidAt != nil {
			paidAt = in.PaidAt.UTC()
		}
		method := in.Method
		if method == "" {
			method = DefaultPaymentMethod
		}
		payment = &entity.Payment{
			ID:        uuid.New().String(),
			InvoiceID: inv.ID,
			OwnerID:   ownerID,
			Amount:    amount,
			Method:    method,
			Reference: in.Reference,
			PaidAt:    paidAt,
			Notes:     in.Notes,
		}
		if err := repos.Payments.Create(ctx, payment); err != nil {
			return err
		}

		paid = paid.Add(amount)
		if paid.GreaterThanOrEqual(inv.Total) {
			inv.Status = entity.InvoiceStatusPaid
			inv.PaidAt = &paidAt
		}
		if err := repos.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		if err := repos.Clients.AddPaid(ctx, inv.ClientID, amount); err != nil {
			return err
		}

		result = dto.PaymentResultResponse{
			Status:     inv.Status,
			AmountPaid: paid,
			Balance:    inv.Total.Sub(paid),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Payment = toPaymentResponse(*payment)
	uc.log.Info().Str("owner_id", ownerID).Str("invoice_id", invoiceID).Str("amount", payment.Amount.StringFixed(2)).
		Str("status", result.Status).Msg("pago registrado")
	return &result, nil
}
