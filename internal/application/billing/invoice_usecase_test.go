package billing_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

func TestCreate_FromTimeEntry(t *testing.T) {
	f := newFixture(t)
	f.closedEntry(t, "e1", 90)

	inv, err := f.uc.Create(context.Background(), owner, createReq([]string{"e1"}))
	require.NoError(t, err)

	assert.Equal(t, "INV-00001", inv.InvoiceNumber)
	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, entity.PdfStatusNotGenerated, inv.PdfStatus)
	assert.True(t, inv.Subtotal.Equal(dec("150.00")), inv.Subtotal.String())
	assert.True(t, inv.Tax.IsZero())
	assert.True(t, inv.Discount.IsZero())
	assert.True(t, inv.Total.Equal(dec("150.00")))
	assert.Equal(t, "USD", inv.Currency)
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].Quantity.Equal(dec("1.5")))
	assert.True(t, inv.Items[0].Rate.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, inv.Items[0].TimeEntryID)

	e := f.entry(t, "e1")
	assert.True(t, e.Invoiced)
	require.NotNil(t, e.InvoiceID)
	assert.Equal(t, inv.ID, *e.InvoiceID)

	assert.True(t, f.client(t).TotalRevenue.Equal(dec("150")))
}

func TestCreate_TimeLineAmountUsesExactMinutes(t *testing.T) {
	cases := []struct {
		minutes  int
		rate     int64
		quantity string
		amount   string
	}{
		{7, 150, "0.1167", "17.50"},
		{1, 1000, "0.0167", "16.67"},
		{13, 250, "0.2167", "54.17"},
	}
	for _, tc := range cases {
		f := newFixture(t)
		f.closedEntryAt(t, "e1", tc.minutes, decimal.NewFromInt(tc.rate))

		inv, err := f.uc.Create(context.Background(), owner, createReq([]string{"e1"}))
		require.NoError(t, err)
		require.Len(t, inv.Items, 1)
		assert.True(t, inv.Items[0].Quantity.Equal(dec(tc.quantity)), inv.Items[0].Quantity.String())
		assert.True(t, inv.Items[0].Amount.Equal(dec(tc.amount)), "%d min @ %d/h: %s", tc.minutes, tc.rate, inv.Items[0].Amount)
		assert.True(t, inv.Subtotal.Equal(dec(tc.amount)), inv.Subtotal.String())
	}
}

func TestCreate_TotalsWithTaxAndDiscount(t *testing.T) {
	f := newFixture(t)
	f.closedEntry(t, "e1", 60)
	req := createReq([]string{"e1"}, manual("Hosting", 1, 100))
	req.TaxRate = decimal.NewFromInt(10)
	req.DiscountRate = decimal.NewFromInt(5)

	inv, err := f.uc.Create(context.Background(), owner, req)
	require.NoError(t, err)

	assert.True(t, inv.Subtotal.Equal(dec("200")))
	assert.True(t, inv.Tax.Equal(dec("20")))
	assert.True(t, inv.Discount.Equal(dec("10")))
	assert.True(t, inv.Total.Equal(inv.Subtotal.Add(inv.Tax).Sub(inv.Discount)))
	assert.True(t, inv.Total.Equal(dec("210")))
	require.Len(t, inv.Items, 2)
	assert.NotNil(t, inv.Items[0].TimeEntryID, "las líneas de tiempo van primero")
	assert.Nil(t, inv.Items[1].TimeEntryID)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bad := createReq(nil, manual("x", 1, 10))
	bad.DueDate = dto.Date{Time: issue.AddDate(0, 0, -1)}
	_, err := f.uc.Create(ctx, owner, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = f.uc.Create(ctx, owner, createReq(nil))
	assert.ErrorIs(t, err, domain.ErrEmptyInvoice)

	_, err = f.uc.Create(ctx, owner, createReq(nil, manual("gratis", 1, 0)))
	assert.ErrorIs(t, err, domain.ErrZeroTotal)

	full := createReq(nil, manual("x", 1, 10))
	full.DiscountRate = decimal.NewFromInt(100)
	_, err = f.uc.Create(ctx, owner, full)
	assert.ErrorIs(t, err, domain.ErrZeroTotal)

	other := createReq(nil, manual("x", 1, 10))
	other.ClientID = "nope"
	_, err = f.uc.Create(ctx, owner, other)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// nada persistió: el siguiente número sigue siendo el primero
	inv, err := f.uc.Create(ctx, owner, createReq(nil, manual("x", 1, 10)))
	require.NoError(t, err)
	assert.Equal(t, "INV-00001", inv.InvoiceNumber)
}

func TestCreate_InvalidSelectionIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	f.closedEntry(t, "ok", 30)
	start := issue
	f.store.SeedTimeEntry(entity.TimeEntry{ID: "running", OwnerID: owner, ProjectID: "p1", StartedAt: start, Billable: true})

	_, err := f.uc.Create(context.Background(), owner, createReq([]string{"ok", "running"}))
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
	assert.False(t, f.entry(t, "ok").Invoiced)

	_, err = f.uc.Create(context.Background(), owner, createReq([]string{"ok", "missing"}))
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)

	// ids repetidos cuentan una vez
	inv, err := f.uc.Create(context.Background(), owner, createReq([]string{"ok", "ok"}))
	require.NoError(t, err)
	assert.Len(t, inv.Items, 1)
}

func TestCreate_EntryCannotBeInvoicedTwice(t *testing.T) {
	f := newFixture(t)
	f.closedEntry(t, "e1", 30)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, owner, createReq([]string{"e1"}))
	require.NoError(t, err)
	_, err = f.uc.Create(ctx, owner, createReq([]string{"e1"}))
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
}

func TestCreate_ConcurrentNumbersAreDistinct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 25
	numbers := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inv, err := f.uc.Create(ctx, owner, createReq(nil, manual(fmt.Sprintf("línea %d", i), 1, 10)))
			if assert.NoError(t, err) {
				numbers[i] = inv.InvoiceNumber
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, num := range numbers {
		assert.False(t, seen[num], "número repetido %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen[fmt.Sprintf("INV-%05d", n)])
}

func TestUpdateStatus_TransitionTable(t *testing.T) {
	statuses := []string{
		entity.InvoiceStatusDraft, entity.InvoiceStatusSent, entity.InvoiceStatusPaid,
		entity.InvoiceStatusOverdue, entity.InvoiceStatusCancelled,
	}
	allowed := map[string]map[string]bool{
		entity.InvoiceStatusDraft:   {entity.InvoiceStatusSent: true, entity.InvoiceStatusCancelled: true},
		entity.InvoiceStatusSent:    {entity.InvoiceStatusPaid: true, entity.InvoiceStatusOverdue: true},
		entity.InvoiceStatusOverdue: {entity.InvoiceStatusPaid: true},
	}
	// camino para llegar a cada estado desde draft
	path := map[string][]string{
		entity.InvoiceStatusDraft:     nil,
		entity.InvoiceStatusSent:      {entity.InvoiceStatusSent},
		entity.InvoiceStatusPaid:      {entity.InvoiceStatusSent, entity.InvoiceStatusPaid},
		entity.InvoiceStatusOverdue:   {entity.InvoiceStatusSent, entity.InvoiceStatusOverdue},
		entity.InvoiceStatusCancelled: {entity.InvoiceStatusCancelled},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			t.Run(from+"->"+to, func(t *testing.T) {
				f := newFixture(t)
				ctx := context.Background()
				inv, err := f.uc.Create(ctx, owner, createReq(nil, manual("x", 1, 50)))
				require.NoError(t, err)
				for _, s := range path[from] {
					_, err := f.uc.UpdateStatus(ctx, owner, inv.ID, s)
					require.NoError(t, err)
				}

				got, err := f.uc.UpdateStatus(ctx, owner, inv.ID, to)
				if allowed[from][to] {
					require.NoError(t, err)
					assert.Equal(t, to, got.Status)
					assert.Equal(t, allowed[from][to], entity.CanTransition(from, to))
					return
				}
				assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
				assert.False(t, entity.CanTransition(from, to))
				cur, err := f.uc.Get(ctx, owner, inv.ID)
				require.NoError(t, err)
				assert.Equal(t, from, cur.Status)
			})
		}
	}
}

func TestUpdateStatus_PaidRecordsFullBalance(t *testing.T) {
	f := newFixture(t)
	inv := f.sentInvoice(t)

	got, err := f.uc.UpdateStatus(context.Background(), owner, inv.ID, entity.InvoiceStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, got.Status)
	require.Len(t, got.Payments, 1)
	assert.True(t, got.Payments[0].Amount.Equal(dec("150")))
	assert.Equal(t, "manual", got.Payments[0].Method)
	assert.True(t, got.Balance.IsZero())
}

func TestUpdateStatus_SentSetsSentAtOnce(t *testing.T) {
	f := newFixture(t)
	inv := f.sentInvoice(t)
	require.NotNil(t, inv.SentAt)
	assert.True(t, inv.SentAt.Equal(f.now))
}

func TestCancel_ReleasesEntriesAndRevenue(t *testing.T) {
	f := newFixture(t)
	f.closedEntry(t, "e1", 60)
	ctx := context.Background()

	inv, err := f.uc.Create(ctx, owner, createReq([]string{"e1"}))
	require.NoError(t, err)
	_, err = f.uc.UpdateStatus(ctx, owner, inv.ID, entity.InvoiceStatusCancelled)
	require.NoError(t, err)

	assert.False(t, f.entry(t, "e1").Invoiced)
	assert.True(t, f.client(t).TotalRevenue.IsZero())
}

func TestDelete_ReleasesEntries(t *testing.T) {
	f := newFixture(t)
	f.closedEntry(t, "e1", 60)
	f.closedEntry(t, "e2", 30)
	ctx := context.Background()

	inv, err := f.uc.Create(ctx, owner, createReq([]string{"e1", "e2"}))
	require.NoError(t, err)
	require.NoError(t, f.uc.Delete(ctx, owner, inv.ID))

	for _, id := range []string{"e1", "e2"} {
		e := f.entry(t, id)
		assert.False(t, e.Invoiced)
		assert.Nil(t, e.InvoiceID)
	}
	_, err = f.uc.Get(ctx, owner, inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, f.client(t).TotalRevenue.IsZero())

	// los registros vuelven al pool y el consecutivo no se reutiliza
	again, err := f.uc.Create(ctx, owner, createReq([]string{"e1", "e2"}))
	require.NoError(t, err)
	assert.Equal(t, "INV-00002", again.InvoiceNumber)
}

func TestDelete_OnlyDraft(t *testing.T) {
	f := newFixture(t)
	inv := f.sentInvoice(t)

	err := f.uc.Delete(context.Background(), owner, inv.ID)
	assert.ErrorIs(t, err, domain.ErrInvoiceNotEditable)
	var se *domain.StateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, entity.InvoiceStatusSent, se.Status)
	assert.True(t, f.entry(t, "e-sent").Invoiced)
}

func TestUpdate_RebuildsItems(t *testing.T) {
	f := newFixture(t)
	f.closedEntry(t, "e1", 60)
	f.closedEntry(t, "e2", 30)
	ctx := context.Background()

	inv, err := f.uc.Create(ctx, owner, createReq([]string{"e1"}))
	require.NoError(t, err)

	ids := []string{"e2"}
	items := []dto.InvoiceItemRequest{manual("Soporte", 2, 25)}
	notes := "gracias"
	got, err := f.uc.Update(ctx, owner, inv.ID, dto.UpdateInvoiceRequest{TimeEntryIDs: &ids, Items: &items, Notes: &notes})
	require.NoError(t, err)

	require.Len(t, got.Items, 2)
	assert.True(t, got.Subtotal.Equal(dec("100")), got.Subtotal.String())
	assert.True(t, got.Total.Equal(dec("100")))
	assert.Equal(t, "gracias", got.Notes)
	assert.False(t, f.entry(t, "e1").Invoiced)
	assert.True(t, f.entry(t, "e2").Invoiced)
	assert.True(t, f.client(t).TotalRevenue.Equal(dec("100")))
}

func TestUpdate_RatesRecomputeTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.uc.Create(ctx, owner, createReq(nil, manual("x", 1, 200)))
	require.NoError(t, err)

	tax := decimal.NewFromInt(19)
	got, err := f.uc.Update(ctx, owner, inv.ID, dto.UpdateInvoiceRequest{TaxRate: &tax})
	require.NoError(t, err)
	assert.True(t, got.Tax.Equal(dec("38")))
	assert.True(t, got.Total.Equal(dec("238")))
	assert.True(t, f.client(t).TotalRevenue.Equal(dec("238")))
}

func TestUpdate_FailedRebuildKeepsOriginal(t *testing.T) {
	f := newFixture(t)
	f.closedEntry(t, "e1", 60)
	ctx := context.Background()
	inv, err := f.uc.Create(ctx, owner, createReq([]string{"e1"}))
	require.NoError(t, err)

	ids := []string{"missing"}
	_, err = f.uc.Update(ctx, owner, inv.ID, dto.UpdateInvoiceRequest{TimeEntryIDs: &ids})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)

	cur, err := f.uc.Get(ctx, owner, inv.ID)
	require.NoError(t, err)
	assert.Len(t, cur.Items, 1)
	assert.True(t, f.entry(t, "e1").Invoiced)
}

func TestUpdate_NotEditableOutsideDraft(t *testing.T) {
	f := newFixture(t)
	inv := f.sentInvoice(t)
	notes := "tarde"

	_, err := f.uc.Update(context.Background(), owner, inv.ID, dto.UpdateInvoiceRequest{Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrInvoiceNotEditable)
	assert.True(t, domain.IsPrecondition(err))
}

func TestUpdate_StatusMixedWithContentRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.uc.Create(ctx, owner, createReq(nil, manual("x", 1, 10)))
	require.NoError(t, err)

	status := entity.InvoiceStatusSent
	notes := "n"
	_, err = f.uc.Update(ctx, owner, inv.ID, dto.UpdateInvoiceRequest{Status: &status, Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestList_FiltersAndBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sent := f.sentInvoice(t)
	_, err := f.uc.Create(ctx, owner, createReq(nil, manual("x", 1, 10)))
	require.NoError(t, err)
	amount := dec("60")
	_, err = f.uc.MarkAsPaid(ctx, owner, sent.ID, dto.RecordPaymentRequest{Amount: &amount})
	require.NoError(t, err)

	all, err := f.uc.List(ctx, owner, dto.ListInvoicesRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	onlySent, err := f.uc.List(ctx, owner, dto.ListInvoicesRequest{Status: entity.InvoiceStatusSent})
	require.NoError(t, err)
	require.Len(t, onlySent.Items, 1)
	assert.True(t, onlySent.Items[0].AmountPaid.Equal(dec("60")))
	assert.True(t, onlySent.Items[0].Balance.Equal(dec("90")))

	_, err = f.uc.List(ctx, owner, dto.ListInvoicesRequest{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGet_OtherOwnerIsNotFound(t *testing.T) {
	f := newFixture(t)
	inv, err := f.uc.Create(context.Background(), owner, createReq(nil, manual("x", 1, 10)))
	require.NoError(t, err)

	_, err = f.uc.Get(context.Background(), "intruso", inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
