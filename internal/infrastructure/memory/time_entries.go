package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

type timeEntryRepo struct{ v *view }

func (r *timeEntryRepo) Create(ctx context.Context, e *entity.TimeEntry) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	st := r.v.state()
	if e.EndedAt == nil {
		for _, x := range st.entries {
			if x.OwnerID == e.OwnerID && x.IsRunning() && x.DeletedAt == nil {
				return domain.ErrActiveTimerExists
			}
		}
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := r.v.now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	cp := *e
	st.entries[e.ID] = &cp
	return nil
}

func (r *timeEntryRepo) GetByID(ctx context.Context, ownerID, id string) (*entity.TimeEntry, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	e, ok := r.v.state().entries[id]
	if !ok || e.OwnerID != ownerID || e.DeletedAt != nil {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *timeEntryRepo) GetRunning(ctx context.Context, ownerID string) (*entity.TimeEntry, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	for _, e := range r.v.state().entries {
		if e.OwnerID == ownerID && e.IsRunning() && e.DeletedAt == nil {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *timeEntryRepo) ListEligible(ctx context.Context, ownerID string, ids []string) ([]*entity.TimeEntry, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	st := r.v.state()
	out := make([]*entity.TimeEntry, 0, len(ids))
	for _, id := range ids {
		if e, ok := st.entries[id]; ok && e.IsEligible(ownerID) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *timeEntryRepo) ListUnbilled(ctx context.Context, ownerID string, limit, offset int) ([]*entity.TimeEntry, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	var out []*entity.TimeEntry
	for _, e := range r.v.state().entries {
		if e.IsEligible(ownerID) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return page(out, limit, offset), nil
}

func (r *timeEntryRepo) Stop(ctx context.Context, e *entity.TimeEntry) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	cur, ok := r.v.state().entries[e.ID]
	if !ok || cur.OwnerID != e.OwnerID || cur.DeletedAt != nil {
		return domain.ErrNotFound
	}
	if !cur.IsRunning() {
		return domain.ErrTimerAlreadyStopped
	}
	cur.EndedAt = e.EndedAt
	cur.DurationMinutes = e.DurationMinutes
	cur.UpdatedAt = r.v.now()
	e.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *timeEntryRepo) MarkInvoiced(ctx context.Context, ownerID, invoiceID string, ids []string) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	st := r.v.state()
	for _, id := range ids {
		if e, ok := st.entries[id]; !ok || !e.IsEligible(ownerID) {
			return domain.ErrInvalidSelection
		}
	}
	now := r.v.now()
	for _, id := range ids {
		e := st.entries[id]
		inv := invoiceID
		e.Invoiced = true
		e.InvoiceID = &inv
		e.UpdatedAt = now
	}
	return nil
}

func (r *timeEntryRepo) ReleaseByInvoice(ctx context.Context, ownerID, invoiceID string) (int, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	n := 0
	now := r.v.now()
	for _, e := range r.v.state().entries {
		if e.OwnerID == ownerID && e.InvoiceID != nil && *e.InvoiceID == invoiceID {
			e.Invoiced = false
			e.InvoiceID = nil
			e.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
