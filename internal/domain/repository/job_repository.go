package repository

import (
	"context"
	"time"

	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

// JobRepository cola durable de trabajos documentales.
type JobRepository interface {
	Enqueue(ctx context.Context, job *entity.DocumentJob) error
	// Claim reclama hasta limit trabajos listos (pending/retry con run_at <= now, o processing
	// con lock anterior a staleBefore), incrementa Attempts y los deja en processing.
	Claim(ctx context.Context, now, staleBefore time.Time, limit int) ([]*entity.DocumentJob, error)
	Complete(ctx context.Context, id string, at time.Time) error
	Retry(ctx context.Context, id, lastError string, runAt time.Time) error
	Dead(ctx context.Context, id, lastError string, at time.Time) error
	GetByID(ctx context.Context, id string) (*entity.DocumentJob, error)
}
