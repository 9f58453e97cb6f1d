package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/timebill-api/internal/domain/repository"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// maxTxAttempts intentos ante conflictos de serialización antes de rendirse.
const maxTxAttempts = 10

// TxRunner ejecuta callbacks dentro de una transacción SERIALIZABLE.
type TxRunner struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, log *logger.Logger) *TxRunner {
	if log == nil {
		log = logger.Nop()
	}
	return &TxRunner{pool: pool, log: log.Component("tx")}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Si PostgreSQL aborta por serialización (40001/40P01) se repite la transacción completa.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		r.log.Debug().Err(err).Int("attempt", attempt).Msg("conflicto de serialización, reintentando")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*attempt) * 5 * time.Millisecond):
		}
	}
	return err
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(repos repository.Repositories) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return err
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepositories repositorios sobre q (pool para autocommit, tx dentro de Run).
func NewRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		TimeEntries: NewTimeEntryRepository(q),
		Invoices:    NewInvoiceRepository(q),
		Payments:    NewPaymentRepository(q),
		Clients:     NewClientRepository(q),
		Projects:    NewProjectRepository(q),
		Jobs:        NewJobRepository(q),
	}
}

// errNoRows atajo para lecturas opcionales.
func errNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }
