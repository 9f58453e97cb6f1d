package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

type statsRepo struct{ v *view }

func (r *statsRepo) InvoiceStats(ctx context.Context, ownerID string, from, to time.Time) (*repository.InvoiceStats, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	st := r.v.state()
	byStatus := map[string]*repository.StatusTotals{}
	out := &repository.InvoiceStats{Invoiced: decimal.Zero, Paid: decimal.Zero, Outstanding: decimal.Zero}
	for _, inv := range st.invoices {
		if inv.OwnerID != ownerID || inv.DeletedAt != nil {
			continue
		}
		if !from.IsZero() && inv.IssueDate.Before(from) {
			continue
		}
		if !to.IsZero() && inv.IssueDate.After(to) {
			continue
		}
		t, ok := byStatus[inv.Status]
		if !ok {
			t = &repository.StatusTotals{Status: inv.Status, Total: decimal.Zero}
			byStatus[inv.Status] = t
		}
		t.Count++
		t.Total = t.Total.Add(inv.Total)
		if inv.Status == entity.InvoiceStatusCancelled {
			continue
		}
		paid := sumPayments(st.payments[inv.ID])
		out.Invoiced = out.Invoiced.Add(inv.Total)
		out.Paid = out.Paid.Add(paid)
		if inv.Status == entity.InvoiceStatusSent || inv.Status == entity.InvoiceStatusOverdue {
			out.Outstanding = out.Outstanding.Add(inv.Total.Sub(paid))
		}
	}
	for _, t := range byStatus {
		out.ByStatus = append(out.ByStatus, *t)
	}
	sort.Slice(out.ByStatus, func(i, j int) bool { return out.ByStatus[i].Status < out.ByStatus[j].Status })
	return out, nil
}
