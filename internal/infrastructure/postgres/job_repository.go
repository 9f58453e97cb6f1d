package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

var _ repository.JobRepository = (*JobRepo)(nil)

const jobColumns = `id, type, owner_id, invoice_id, status, attempts, max_attempts, last_error, run_at, locked_at, created_at, updated_at`

// JobRepo cola durable sobre la tabla document_jobs.
type JobRepo struct {
	q Querier
}

func NewJobRepository(q Querier) *JobRepo {
	return &JobRepo{q: q}
}

func (r *JobRepo) Enqueue(ctx context.Context, j *entity.DocumentJob) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO document_jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		j.ID, string(j.Type), j.OwnerID, j.InvoiceID, j.Status, j.Attempts, j.MaxAttempts,
		j.LastError, j.RunAt, j.LockedAt, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Claim usa FOR UPDATE SKIP LOCKED: varios workers reclaman en paralelo sin pisarse.
func (r *JobRepo) Claim(ctx context.Context, now, staleBefore time.Time, limit int) ([]*entity.DocumentJob, error) {
	if limit <= 0 {
		limit = 1
	}
	rows, err := r.q.Query(ctx, `
		UPDATE document_jobs
		SET status = 'processing', attempts = attempts + 1, locked_at = $1, updated_at = $1
		WHERE id IN (
			SELECT id FROM document_jobs
			WHERE (status IN ('pending', 'retry') AND run_at <= $1)
			   OR (status = 'processing' AND locked_at < $2)
			ORDER BY run_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns,
		now, staleBefore, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}
	defer rows.Close()
	var out []*entity.DocumentJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *JobRepo) Complete(ctx context.Context, id string, at time.Time) error {
	return r.finish(ctx, id, entity.JobStatusDone, "", nil, at)
}

func (r *JobRepo) Retry(ctx context.Context, id, lastError string, runAt time.Time) error {
	return r.finish(ctx, id, entity.JobStatusRetry, lastError, &runAt, time.Now().UTC())
}

func (r *JobRepo) Dead(ctx context.Context, id, lastError string, at time.Time) error {
	return r.finish(ctx, id, entity.JobStatusDead, lastError, nil, at)
}

func (r *JobRepo) finish(ctx context.Context, id, status, lastError string, runAt *time.Time, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE document_jobs
		SET status = $2, last_error = $3, run_at = COALESCE($4, run_at), locked_at = NULL, updated_at = $5
		WHERE id = $1`,
		id, status, lastError, runAt, at,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *JobRepo) GetByID(ctx context.Context, id string) (*entity.DocumentJob, error) {
	j, err := scanJob(r.q.QueryRow(ctx, `SELECT `+jobColumns+` FROM document_jobs WHERE id = $1`, id))
	if err != nil {
		if errNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func scanJob(row pgx.Row) (*entity.DocumentJob, error) {
	var j entity.DocumentJob
	var jobType string
	err := row.Scan(&j.ID, &jobType, &j.OwnerID, &j.InvoiceID, &j.Status, &j.Attempts, &j.MaxAttempts,
		&j.LastError, &j.RunAt, &j.LockedAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Type = entity.JobType(jobType)
	return &j, nil
}
