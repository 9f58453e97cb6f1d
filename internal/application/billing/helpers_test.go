package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/timebill-api/internal/application/billing"
	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/infrastructure/memory"
)

const (
	owner    = "owner-1"
	clientID = "client-1"
)

var (
	issue = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	due   = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	store *memory.Store
	uc    *billing.InvoiceUseCase
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SeedClient(entity.Client{ID: clientID, OwnerID: owner, Name: "ACME", Email: "pagos@acme.test", Currency: "USD"})
	store.SeedProject(entity.Project{ID: "p1", OwnerID: owner, ClientID: clientID, Name: "Web", HourlyRate: decimal.NewFromInt(100)})
	f := &fixture{store: store, now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	repos := store.Repositories()
	f.uc = billing.NewInvoiceUseCase(store, repos.Invoices, repos.Payments, billing.Config{InvoicePrefix: "INV"}, nil).
		WithClock(func() time.Time { return f.now })
	return f
}

// closedEntry siembra un registro cerrado y facturable de minutes minutos a 100/h.
func (f *fixture) closedEntry(t *testing.T, id string, minutes int) {
	t.Helper()
	f.closedEntryAt(t, id, minutes, decimal.NewFromInt(100))
}

func (f *fixture) closedEntryAt(t *testing.T, id string, minutes int, rate decimal.Decimal) {
	t.Helper()
	start := issue.Add(9 * time.Hour)
	end := start.Add(time.Duration(minutes) * time.Minute)
	f.store.SeedTimeEntry(entity.TimeEntry{
		ID: id, OwnerID: owner, ProjectID: "p1", Description: "Desarrollo " + id,
		StartedAt: start, EndedAt: &end, DurationMinutes: &minutes,
		Billable: true, HourlyRate: rate,
	})
}

func (f *fixture) entry(t *testing.T, id string) *entity.TimeEntry {
	t.Helper()
	e, err := f.store.Repositories().TimeEntries.GetByID(context.Background(), owner, id)
	require.NoError(t, err)
	require.NotNil(t, e)
	return e
}

func (f *fixture) client(t *testing.T) *entity.Client {
	t.Helper()
	c, err := f.store.Repositories().Clients.GetByID(context.Background(), owner, clientID)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

func createReq(entryIDs []string, items ...dto.InvoiceItemRequest) dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		ClientID:     clientID,
		IssueDate:    dto.Date{Time: issue},
		DueDate:      dto.Date{Time: due},
		TimeEntryIDs: entryIDs,
		Items:        items,
	}
}

func manual(desc string, qty, rate int64) dto.InvoiceItemRequest {
	return dto.InvoiceItemRequest{Description: desc, Quantity: decimal.NewFromInt(qty), Rate: decimal.NewFromInt(rate)}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// sentInvoice crea una factura de 150.00 y la pasa a sent.
func (f *fixture) sentInvoice(t *testing.T) *dto.InvoiceResponse {
	t.Helper()
	ctx := context.Background()
	f.closedEntry(t, "e-sent", 90)
	inv, err := f.uc.Create(ctx, owner, createReq([]string{"e-sent"}))
	require.NoError(t, err)
	inv, err = f.uc.UpdateStatus(ctx, owner, inv.ID, entity.InvoiceStatusSent)
	require.NoError(t, err)
	return inv
}
