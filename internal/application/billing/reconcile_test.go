package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/timebill-api/internal/application/billing"
	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

func TestReconcile_FixesDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.sentInvoice(t)
	sixty := dec("60")
	_, err := f.uc.MarkAsPaid(ctx, owner, inv.ID, dto.RecordPaymentRequest{Amount: &sixty})
	require.NoError(t, err)

	// desviación artificial de los contadores
	require.NoError(t, f.store.Repositories().Clients.SetAggregates(ctx, clientID, repository.ClientAggregates{
		TotalRevenue: dec("999"), TotalPaid: dec("1"),
	}))

	uc := billing.NewReconcileUseCase(f.store, f.store.Repositories().Clients, nil)
	results, err := uc.ReconcileAll(ctx, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Drifted)
	assert.True(t, results[0].RevenueBefore.Equal(dec("999")))
	assert.True(t, results[0].RevenueAfter.Equal(dec("150")))
	assert.True(t, results[0].PaidAfter.Equal(dec("60")))

	c := f.client(t)
	assert.True(t, c.TotalRevenue.Equal(dec("150")))
	assert.True(t, c.TotalPaid.Equal(dec("60")))

	again, err := uc.ReconcileClient(ctx, owner, clientID)
	require.NoError(t, err)
	assert.False(t, again.Drifted)
}

func TestReconcile_IncrementalCountersMatchRecompute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.closedEntry(t, "e1", 60)

	a, err := f.uc.Create(ctx, owner, createReq([]string{"e1"}))
	require.NoError(t, err)
	b := f.sentInvoice(t)
	_, err = f.uc.MarkAsPaid(ctx, owner, b.ID, dto.RecordPaymentRequest{})
	require.NoError(t, err)
	c, err := f.uc.Create(ctx, owner, createReq(nil, manual("x", 1, 70)))
	require.NoError(t, err)
	_, err = f.uc.UpdateStatus(ctx, owner, c.ID, entity.InvoiceStatusCancelled)
	require.NoError(t, err)
	require.NoError(t, f.uc.Delete(ctx, owner, a.ID))

	res, err := billing.NewReconcileUseCase(f.store, f.store.Repositories().Clients, nil).ReconcileClient(ctx, owner, clientID)
	require.NoError(t, err)
	assert.False(t, res.Drifted, "revenue %s/%s paid %s/%s",
		res.RevenueBefore, res.RevenueAfter, res.PaidBefore, res.PaidAfter)
}

func TestMarkOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sent := f.sentInvoice(t)
	draftPast, err := f.uc.Create(ctx, owner, createReq(nil, manual("x", 1, 10)))
	require.NoError(t, err)

	// el día del vencimiento todavía no cuenta
	n, err := f.uc.MarkOverdue(ctx, due.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.uc.MarkOverdue(ctx, due.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.uc.Get(ctx, owner, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusOverdue, got.Status)
	d, err := f.uc.Get(ctx, owner, draftPast.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusDraft, d.Status)

	n, err = f.uc.MarkOverdue(ctx, due.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInvoiceStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sent := f.sentInvoice(t)
	sixty := dec("60")
	_, err := f.uc.MarkAsPaid(ctx, owner, sent.ID, dto.RecordPaymentRequest{Amount: &sixty})
	require.NoError(t, err)
	_, err = f.uc.Create(ctx, owner, createReq(nil, manual("x", 1, 40)))
	require.NoError(t, err)
	c, err := f.uc.Create(ctx, owner, createReq(nil, manual("y", 1, 500)))
	require.NoError(t, err)
	_, err = f.uc.UpdateStatus(ctx, owner, c.ID, entity.InvoiceStatusCancelled)
	require.NoError(t, err)

	uc := billing.NewStatsUseCase(f.store.Stats())
	stats, err := uc.InvoiceStats(ctx, owner, nil, nil)
	require.NoError(t, err)

	byStatus := map[string]dto.StatusTotalsResponse{}
	for _, s := range stats.ByStatus {
		byStatus[s.Status] = s
	}
	assert.Equal(t, 1, byStatus[entity.InvoiceStatusSent].Count)
	assert.Equal(t, 1, byStatus[entity.InvoiceStatusDraft].Count)
	assert.Equal(t, 1, byStatus[entity.InvoiceStatusCancelled].Count)
	assert.True(t, stats.Invoiced.Equal(dec("190")))
	assert.True(t, stats.Paid.Equal(dec("60")))
	assert.True(t, stats.Outstanding.Equal(dec("90")))

	from := dto.Date{Time: issue.AddDate(0, 1, 0)}
	empty, err := uc.InvoiceStats(ctx, owner, &from, nil)
	require.NoError(t, err)
	assert.Empty(t, empty.ByStatus)

	to := dto.Date{Time: issue.AddDate(0, -1, 0)}
	_, err = uc.InvoiceStats(ctx, owner, &from, &to)
	assert.Error(t, err)
}
