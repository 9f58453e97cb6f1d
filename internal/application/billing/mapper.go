package billing

import (
	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

func toInvoiceResponse(inv *entity.Invoice, items []entity.InvoiceItem, payments []entity.Payment) *dto.InvoiceResponse {
	paid, balance := remaining(inv.Total, payments)
	out := &dto.InvoiceResponse{
		ID:             inv.ID,
		ClientID:       inv.ClientID,
		InvoiceNumber:  inv.InvoiceNumber,
		IssueDate:      dto.Date{Time: inv.IssueDate},
		DueDate:        dto.Date{Time: inv.DueDate},
		Subtotal:       inv.Subtotal,
		TaxRate:        inv.TaxRate,
		Tax:            inv.Tax,
		DiscountRate:   inv.DiscountRate,
		Discount:       inv.Discount,
		Total:          inv.Total,
		AmountPaid:     paid,
		Balance:        balance,
		Currency:       inv.Currency,
		Status:         inv.Status,
		PdfStatus:      inv.PdfStatus,
		PdfGeneratedAt: inv.PdfGeneratedAt,
		SentAt:         inv.SentAt,
		PaidAt:         inv.PaidAt,
		Notes:          inv.Notes,
		Terms:          inv.Terms,
	}
	for _, it := range items {
		out.Items = append(out.Items, dto.InvoiceItemResponse{
			ID:          it.ID,
			TimeEntryID: it.TimeEntryID,
			Description: it.Description,
			Quantity:    it.Quantity,
			Rate:        it.Rate,
			Amount:      it.Amount,
		})
	}
	for _, p := range payments {
		out.Payments = append(out.Payments, toPaymentResponse(p))
	}
	return out
}

func toPaymentResponse(p entity.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:        p.ID,
		Amount:    p.Amount,
		Method:    p.Method,
		Reference: p.Reference,
		PaidAt:    p.PaidAt,
		Notes:     p.Notes,
	}
}
