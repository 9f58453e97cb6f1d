package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

type invoiceRepo struct{ v *view }

func (r *invoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	st := r.v.state()
	for _, x := range st.invoices {
		if x.OwnerID == inv.OwnerID && x.InvoiceNumber == inv.InvoiceNumber {
			return domain.ErrConflict
		}
	}
	if !inv.Total.IsPositive() {
		return domain.ErrZeroTotal
	}
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	now := r.v.now()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	cp := *inv
	st.invoices[inv.ID] = &cp
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, ownerID, id string) (*entity.Invoice, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	inv, ok := r.v.state().invoices[id]
	if !ok || inv.DeletedAt != nil || (ownerID != "" && inv.OwnerID != ownerID) {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (r *invoiceRepo) List(ctx context.Context, ownerID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range r.v.state().invoices {
		if inv.OwnerID != ownerID || inv.DeletedAt != nil {
			continue
		}
		if f.ClientID != "" && inv.ClientID != f.ClientID {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		cp := *inv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IssueDate.Equal(out[j].IssueDate) {
			return out[i].InvoiceNumber > out[j].InvoiceNumber
		}
		return out[i].IssueDate.After(out[j].IssueDate)
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *invoiceRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	n := 0
	for _, inv := range r.v.state().invoices {
		if inv.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *invoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	st := r.v.state()
	cur, ok := st.invoices[inv.ID]
	if !ok || cur.DeletedAt != nil {
		return domain.ErrNotFound
	}
	if !inv.Total.IsPositive() {
		return domain.ErrZeroTotal
	}
	inv.UpdatedAt = r.v.now()
	cp := *inv
	st.invoices[inv.ID] = &cp
	return nil
}

func (r *invoiceRepo) UpdatePdfState(ctx context.Context, invoiceID string, s repository.PdfState) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	cur, ok := r.v.state().invoices[invoiceID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.PdfStatus = s.Status
	if s.Key != "" {
		cur.PdfKey = s.Key
	}
	if s.GeneratedAt != nil {
		at := *s.GeneratedAt
		cur.PdfGeneratedAt = &at
	}
	cur.UpdatedAt = r.v.now()
	return nil
}

func (r *invoiceRepo) MarkSent(ctx context.Context, invoiceID string, at time.Time) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	cur, ok := r.v.state().invoices[invoiceID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.SentAt == nil {
		t := at
		cur.SentAt = &t
	}
	if cur.Status == entity.InvoiceStatusDraft {
		cur.Status = entity.InvoiceStatusSent
	}
	cur.UpdatedAt = r.v.now()
	return nil
}

func (r *invoiceRepo) SoftDelete(ctx context.Context, ownerID, id string, at time.Time) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	cur, ok := r.v.state().invoices[id]
	if !ok || cur.OwnerID != ownerID || cur.DeletedAt != nil {
		return domain.ErrNotFound
	}
	t := at
	cur.DeletedAt = &t
	cur.UpdatedAt = r.v.now()
	return nil
}

func (r *invoiceRepo) ListOverdueCandidates(ctx context.Context, before time.Time, limit int) ([]*entity.Invoice, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range r.v.state().invoices {
		if inv.DeletedAt == nil && inv.Status == entity.InvoiceStatusSent && inv.DueDate.Before(before) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return page(out, limit, 0), nil
}

func (r *invoiceRepo) CreateItems(ctx context.Context, items []entity.InvoiceItem) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	st := r.v.state()
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		st.items[it.InvoiceID] = append(st.items[it.InvoiceID], it)
	}
	return nil
}

func (r *invoiceRepo) DeleteItems(ctx context.Context, invoiceID string) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	delete(r.v.state().items, invoiceID)
	return nil
}

func (r *invoiceRepo) ListItems(ctx context.Context, invoiceID string) ([]entity.InvoiceItem, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	out := append([]entity.InvoiceItem(nil), r.v.state().items[invoiceID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}
