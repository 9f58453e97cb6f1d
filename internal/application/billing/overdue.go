package billing

import (
	"context"
	"time"

	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

const overdueBatch = 200

// MarkOverdue pasa a overdue las facturas sent cuya fecha de vencimiento ya pasó (anterior a hoy).
// Devuelve cuántas cambiaron.
func (uc *InvoiceUseCase) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	today := now.UTC().Truncate(24 * time.Hour)
	seen := map[string]struct{}{}
	changed := 0
	for {
		candidates, err := uc.invoices.ListOverdueCandidates(ctx, today, overdueBatch)
		if err != nil {
			return changed, err
		}
		fresh := 0
		for _, c := range candidates {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			fresh++
			ok, err := uc.markOverdue(ctx, c.OwnerID, c.ID, today)
			if err != nil {
				uc.log.Error().Err(err).Str("invoice_id", c.ID).Msg("no se pudo marcar vencida")
				continue
			}
			if ok {
				changed++
			}
		}
		if fresh == 0 || len(candidates) < overdueBatch {
			break
		}
	}
	if changed > 0 {
		uc.log.Info().Int("count", changed).Msg("facturas marcadas como vencidas")
	}
	return changed, nil
}

func (uc *InvoiceUseCase) markOverdue(ctx context.Context, ownerID, invoiceID string, today time.Time) (bool, error) {
	changed := false
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		changed = false
		inv, err := repos.Invoices.GetByID(ctx, ownerID, invoiceID)
		if err != nil || inv == nil {
			return err
		}
		if !inv.DueDate.Before(today) || !entity.CanTransition(inv.Status, entity.InvoiceStatusOverdue) {
			return nil
		}
		inv.Status = entity.InvoiceStatusOverdue
		changed = true
		return repos.Invoices.Update(ctx, inv)
	})
	return changed, err
}
