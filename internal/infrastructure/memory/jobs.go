package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

type jobRepo struct{ v *view }

func (r *jobRepo) Enqueue(ctx context.Context, j *entity.DocumentJob) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	cp := *j
	r.v.state().jobs[j.ID] = &cp
	return nil
}

func (r *jobRepo) Claim(ctx context.Context, now, staleBefore time.Time, limit int) ([]*entity.DocumentJob, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	var ready []*entity.DocumentJob
	for _, j := range r.v.state().jobs {
		switch j.Status {
		case entity.JobStatusPending, entity.JobStatusRetry:
			if !j.RunAt.After(now) {
				ready = append(ready, j)
			}
		case entity.JobStatusProcessing:
			if j.LockedAt != nil && j.LockedAt.Before(staleBefore) {
				ready = append(ready, j)
			}
		}
	}
	sort.Slice(ready, func(a, b int) bool { return ready[a].RunAt.Before(ready[b].RunAt) })
	if limit > 0 && len(ready) > limit {
		ready = ready[:limit]
	}
	out := make([]*entity.DocumentJob, 0, len(ready))
	for _, j := range ready {
		at := now
		j.Status = entity.JobStatusProcessing
		j.Attempts++
		j.LockedAt = &at
		j.UpdatedAt = now
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

func (r *jobRepo) finish(id, status, lastError string, runAt *time.Time, at time.Time) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	j, ok := r.v.state().jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = status
	j.LastError = lastError
	j.LockedAt = nil
	if runAt != nil {
		j.RunAt = *runAt
	}
	j.UpdatedAt = at
	return nil
}

func (r *jobRepo) Complete(ctx context.Context, id string, at time.Time) error {
	return r.finish(id, entity.JobStatusDone, "", nil, at)
}

func (r *jobRepo) Retry(ctx context.Context, id, lastError string, runAt time.Time) error {
	return r.finish(id, entity.JobStatusRetry, lastError, &runAt, r.v.now())
}

func (r *jobRepo) Dead(ctx context.Context, id, lastError string, at time.Time) error {
	return r.finish(id, entity.JobStatusDead, lastError, nil, at)
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*entity.DocumentJob, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	j, ok := r.v.state().jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}
