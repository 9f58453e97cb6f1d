package billing

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

var hundred = decimal.NewFromInt(100)

// EligibleTimeEntries devuelve los registros pedidos si todos son facturables.
// Si falta alguno (ajeno, borrado, abierto, no facturable o ya facturado) falla la selección completa.
func EligibleTimeEntries(ctx context.Context, repo repository.TimeEntryRepository, ownerID string, ids []string) ([]*entity.TimeEntry, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	entries, err := repo.ListEligible(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	if len(entries) != len(ids) {
		return nil, domain.ErrInvalidSelection
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].StartedAt.Before(entries[j].StartedAt) })
	return entries, nil
}

// buildLines arma las líneas: primero las de registros de tiempo, luego las manuales.
// Devuelve también los ids de registros a marcar como facturados.
func buildLines(ctx context.Context, repo repository.TimeEntryRepository, ownerID string, manual []dto.InvoiceItemRequest, entryIDs []string) ([]entity.InvoiceItem, []string, error) {
	entries, err := EligibleTimeEntries(ctx, repo, ownerID, entryIDs)
	if err != nil {
		return nil, nil, err
	}

	items := make([]entity.InvoiceItem, 0, len(entries)+len(manual))
	claimed := make([]string, 0, len(entries))
	for _, e := range entries {
		desc := e.Description
		if desc == "" {
			desc = fmt.Sprintf("Tiempo registrado %s", e.StartedAt.Format("2006-01-02"))
		}
		item := entity.NewTimeInvoiceItem(desc, e.Minutes(), e.HourlyRate)
		id := e.ID
		item.TimeEntryID = &id
		items = append(items, item)
		claimed = append(claimed, e.ID)
	}
	for _, m := range manual {
		items = append(items, entity.NewInvoiceItem(m.Description, m.Quantity, m.Rate))
	}
	for i := range items {
		items[i].Position = i + 1
	}
	return items, claimed, nil
}

func subtotalOf(items []entity.InvoiceItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Amount)
	}
	return sum
}

func validateManualItems(items []dto.InvoiceItemRequest) error {
	for _, it := range items {
		if it.Description == "" || !it.Quantity.IsPositive() || it.Rate.IsNegative() {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

func validRate(r decimal.Decimal) bool {
	return !r.IsNegative() && r.LessThanOrEqual(hundred)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
