//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/timebill-api/internal/application/billing"
	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/application/timer"
	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/infrastructure/cache"
	"github.com/jhoicas/timebill-api/internal/infrastructure/postgres"
	"github.com/jhoicas/timebill-api/pkg/config"
)

const owner = "owner-1"

func newDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("timebill_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := postgres.NewMigrator(dsn, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `INSERT INTO clients (id, owner_id, name, email, currency) VALUES ('client-1', $1, 'ACME', 'pagos@acme.test', 'USD')`, owner)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO projects (id, owner_id, client_id, name, hourly_rate) VALUES ('p1', $1, 'client-1', 'Web', 100)`, owner)
	require.NoError(t, err)
	return pool
}

func TestPostgres_TimerAndInvoiceFlow(t *testing.T) {
	pool := newDB(t)
	ctx := context.Background()
	tx := postgres.NewTxRunner(pool, nil)
	repos := postgres.NewRepositories(pool)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := start
	timers := timer.NewUseCase(tx, repos.TimeEntries, cache.NewInMemoryTimerCache(time.Hour), nil).
		WithClock(func() time.Time { return clock })

	// dos arranques concurrentes: exactamente uno gana
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = timers.StartTimer(ctx, owner, dto.StartTimerRequest{ProjectID: "p1", Description: "Desarrollo"})
		}(i)
	}
	wg.Wait()
	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domain.ErrActiveTimerExists)
		}
	}
	require.Equal(t, 1, wins)

	running, err := repos.TimeEntries.GetRunning(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, running)

	clock = start.Add(90 * time.Minute)
	stopped, err := timers.StopTimer(ctx, owner, running.ID)
	require.NoError(t, err)
	require.NotNil(t, stopped.DurationMinutes)
	assert.Equal(t, 90, *stopped.DurationMinutes)

	invoices := billing.NewInvoiceUseCase(tx, repos.Invoices, repos.Payments, billing.Config{}, nil)
	inv, err := invoices.Create(ctx, owner, dto.CreateInvoiceRequest{
		ClientID:     "client-1",
		IssueDate:    dto.Date{Time: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		DueDate:      dto.Date{Time: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)},
		TimeEntryIDs: []string{running.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-00001", inv.InvoiceNumber)
	assert.True(t, decimal.NewFromInt(150).Equal(inv.Total))

	_, err = invoices.Create(ctx, owner, dto.CreateInvoiceRequest{
		ClientID:     "client-1",
		IssueDate:    dto.Date{Time: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		DueDate:      dto.Date{Time: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)},
		TimeEntryIDs: []string{running.ID},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)

	_, err = invoices.UpdateStatus(ctx, owner, inv.ID, entity.InvoiceStatusSent)
	require.NoError(t, err)

	// pagos concurrentes de 40 sobre 150: solo entran tres
	amount := decimal.NewFromInt(40)
	var accepted int
	var mu sync.Mutex
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := invoices.MarkAsPaid(ctx, owner, inv.ID, dto.RecordPaymentRequest{Amount: &amount}); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, accepted)

	paid, err := repos.Payments.SumByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(120).Equal(paid))

	client, err := repos.Clients.GetByID(ctx, owner, "client-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(client.TotalRevenue))
	assert.True(t, decimal.NewFromInt(120).Equal(client.TotalPaid))

	stats, err := postgres.NewStatsRepository(pool).InvoiceStats(ctx, owner, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(stats.Outstanding))
}

func TestPostgres_JobClaimSkipsLocked(t *testing.T) {
	pool := newDB(t)
	ctx := context.Background()
	jobs := postgres.NewJobRepository(pool)
	now := time.Now().UTC()

	for _, id := range []string{"j1", "j2", "j3"} {
		require.NoError(t, jobs.Enqueue(ctx, entity.NewDocumentJob(id, entity.JobRenderPDF, owner, "inv-1", 3, now.Add(-time.Second))))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[string]int{}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := jobs.Claim(ctx, now, now.Add(-time.Minute), 1)
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			for _, j := range claimed {
				seen[j.ID]++
				assert.Equal(t, 1, j.Attempts)
				assert.Equal(t, entity.JobStatusProcessing, j.Status)
			}
		}()
	}
	wg.Wait()
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}

	require.NoError(t, jobs.Retry(ctx, "j1", "boom", now.Add(time.Minute)))
	j, err := jobs.GetByID(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusRetry, j.Status)
	assert.Equal(t, "boom", j.LastError)
	assert.Nil(t, j.LockedAt)
}
