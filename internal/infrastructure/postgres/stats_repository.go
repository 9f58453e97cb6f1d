package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

// StatsRepo consultas de agregación de solo lectura.
type StatsRepo struct {
	q Querier
}

func NewStatsRepository(q Querier) *StatsRepo {
	return &StatsRepo{q: q}
}

// InvoiceStats from/to en cero significan rango abierto.
func (r *StatsRepo) InvoiceStats(ctx context.Context, ownerID string, from, to time.Time) (*repository.InvoiceStats, error) {
	var fromArg, toArg *time.Time
	if !from.IsZero() {
		fromArg = &from
	}
	if !to.IsZero() {
		toArg = &to
	}

	rows, err := r.q.Query(ctx, `
		WITH scoped AS (
			SELECT i.status, i.total,
			       COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.invoice_id = i.id), 0) AS paid
			FROM invoices i
			WHERE i.owner_id = $1 AND i.deleted_at IS NULL
			  AND ($2::date IS NULL OR i.issue_date >= $2::date)
			  AND ($3::date IS NULL OR i.issue_date <= $3::date)
		)
		SELECT status, count(*), SUM(total), SUM(paid)
		FROM scoped
		GROUP BY status
		ORDER BY status`,
		ownerID, fromArg, toArg,
	)
	if err != nil {
		return nil, fmt.Errorf("invoice stats: %w", err)
	}
	defer rows.Close()

	out := &repository.InvoiceStats{Invoiced: decimal.Zero, Paid: decimal.Zero, Outstanding: decimal.Zero}
	for rows.Next() {
		var t repository.StatusTotals
		var paid decimal.Decimal
		if err := rows.Scan(&t.Status, &t.Count, &t.Total, &paid); err != nil {
			return nil, fmt.Errorf("scan invoice stats: %w", err)
		}
		out.ByStatus = append(out.ByStatus, t)
		if t.Status == "cancelled" {
			continue
		}
		out.Invoiced = out.Invoiced.Add(t.Total)
		out.Paid = out.Paid.Add(paid)
		if t.Status == "sent" || t.Status == "overdue" {
			out.Outstanding = out.Outstanding.Add(t.Total.Sub(paid))
		}
	}
	return out, rows.Err()
}
