package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

var _ repository.TimeEntryRepository = (*TimeEntryRepo)(nil)

const timeEntryColumns = `id, owner_id, project_id, task_id, invoice_id, description, started_at, ended_at,
	duration_minutes, billable, invoiced, hourly_rate, deleted_at, created_at, updated_at`

// condición de elegibilidad para facturar (ver entity.TimeEntry.IsEligible)
const eligibleWhere = `owner_id = $1 AND deleted_at IS NULL AND billable AND NOT invoiced
	AND ended_at IS NOT NULL AND duration_minutes IS NOT NULL`

// TimeEntryRepo implementación de TimeEntryRepository (usable con pool o tx).
type TimeEntryRepo struct {
	q Querier
}

// NewTimeEntryRepository construye el adaptador.
func NewTimeEntryRepository(q Querier) *TimeEntryRepo {
	return &TimeEntryRepo{q: q}
}

func (r *TimeEntryRepo) Create(ctx context.Context, e *entity.TimeEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	query := `
		INSERT INTO time_entries (` + timeEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.OwnerID, e.ProjectID, e.TaskID, e.InvoiceID, e.Description, e.StartedAt, e.EndedAt,
		e.DurationMinutes, e.Billable, e.Invoiced, e.HourlyRate, e.DeletedAt, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, constraintOneRunningTimer) {
			return domain.ErrActiveTimerExists
		}
		return fmt.Errorf("insert time entry: %w", err)
	}
	return nil
}

func (r *TimeEntryRepo) GetByID(ctx context.Context, ownerID, id string) (*entity.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL`
	e, err := scanTimeEntry(r.q.QueryRow(ctx, query, ownerID, id))
	if err != nil {
		if errNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get time entry: %w", err)
	}
	return e, nil
}

func (r *TimeEntryRepo) GetRunning(ctx context.Context, ownerID string) (*entity.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries
		WHERE owner_id = $1 AND ended_at IS NULL AND deleted_at IS NULL`
	e, err := scanTimeEntry(r.q.QueryRow(ctx, query, ownerID))
	if err != nil {
		if errNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get running time entry: %w", err)
	}
	return e, nil
}

// ListEligible bloquea las filas devueltas hasta el fin de la transacción.
func (r *TimeEntryRepo) ListEligible(ctx context.Context, ownerID string, ids []string) ([]*entity.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries
		WHERE ` + eligibleWhere + ` AND id = ANY($2)
		ORDER BY started_at
		FOR UPDATE`
	return r.list(ctx, query, ownerID, ids)
}

func (r *TimeEntryRepo) ListUnbilled(ctx context.Context, ownerID string, limit, offset int) ([]*entity.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries
		WHERE ` + eligibleWhere + `
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3`
	return r.list(ctx, query, ownerID, limit, offset)
}

func (r *TimeEntryRepo) list(ctx context.Context, query string, args ...any) ([]*entity.TimeEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()
	var out []*entity.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *TimeEntryRepo) Stop(ctx context.Context, e *entity.TimeEntry) error {
	e.UpdatedAt = time.Now().UTC()
	tag, err := r.q.Exec(ctx, `
		UPDATE time_entries
		SET ended_at = $3, duration_minutes = $4, updated_at = $5
		WHERE owner_id = $1 AND id = $2 AND ended_at IS NULL AND deleted_at IS NULL`,
		e.OwnerID, e.ID, e.EndedAt, e.DurationMinutes, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("stop time entry: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	cur, err := r.GetByID(ctx, e.OwnerID, e.ID)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.ErrNotFound
	}
	return domain.ErrTimerAlreadyStopped
}

func (r *TimeEntryRepo) MarkInvoiced(ctx context.Context, ownerID, invoiceID string, ids []string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE time_entries
		SET invoiced = TRUE, invoice_id = $2, updated_at = now()
		WHERE `+eligibleWhere+` AND id = ANY($3)`,
		ownerID, invoiceID, ids,
	)
	if err != nil {
		return fmt.Errorf("mark time entries invoiced: %w", err)
	}
	if int(tag.RowsAffected()) != len(ids) {
		return domain.ErrInvalidSelection
	}
	return nil
}

func (r *TimeEntryRepo) ReleaseByInvoice(ctx context.Context, ownerID, invoiceID string) (int, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE time_entries
		SET invoiced = FALSE, invoice_id = NULL, updated_at = now()
		WHERE owner_id = $1 AND invoice_id = $2`,
		ownerID, invoiceID,
	)
	if err != nil {
		return 0, fmt.Errorf("release time entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanTimeEntry(row pgx.Row) (*entity.TimeEntry, error) {
	var e entity.TimeEntry
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.ProjectID, &e.TaskID, &e.InvoiceID, &e.Description, &e.StartedAt, &e.EndedAt,
		&e.DurationMinutes, &e.Billable, &e.Invoiced, &e.HourlyRate, &e.DeletedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
