package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

type paymentRepo struct{ v *view }

func (r *paymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	if !p.Amount.IsPositive() {
		return domain.ErrInvalidInput
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = r.v.now()
	st := r.v.state()
	st.payments[p.InvoiceID] = append(st.payments[p.InvoiceID], *p)
	return nil
}

func (r *paymentRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]entity.Payment, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	out := append([]entity.Payment(nil), r.v.state().payments[invoiceID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out, nil
}

func (r *paymentRepo) SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	return sumPayments(r.v.state().payments[invoiceID]), nil
}

func sumPayments(ps []entity.Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range ps {
		sum = sum.Add(p.Amount)
	}
	return sum
}

type clientRepo struct{ v *view }

func (r *clientRepo) GetByID(ctx context.Context, ownerID, id string) (*entity.Client, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	c, ok := r.v.state().clients[id]
	if !ok || (ownerID != "" && c.OwnerID != ownerID) {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *clientRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Client, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	var out []*entity.Client
	for _, c := range r.v.state().clients {
		if c.OwnerID == ownerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *clientRepo) ListOwners(ctx context.Context) ([]string, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, c := range r.v.state().clients {
		if _, ok := seen[c.OwnerID]; !ok {
			seen[c.OwnerID] = struct{}{}
			out = append(out, c.OwnerID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *clientRepo) AddRevenue(ctx context.Context, clientID string, delta decimal.Decimal) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	c, ok := r.v.state().clients[clientID]
	if !ok {
		return domain.ErrNotFound
	}
	c.TotalRevenue = c.TotalRevenue.Add(delta)
	c.UpdatedAt = r.v.now()
	return nil
}

func (r *clientRepo) AddPaid(ctx context.Context, clientID string, delta decimal.Decimal) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	c, ok := r.v.state().clients[clientID]
	if !ok {
		return domain.ErrNotFound
	}
	c.TotalPaid = c.TotalPaid.Add(delta)
	c.UpdatedAt = r.v.now()
	return nil
}

func (r *clientRepo) ComputeAggregates(ctx context.Context, clientID string) (repository.ClientAggregates, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	st := r.v.state()
	agg := repository.ClientAggregates{TotalRevenue: decimal.Zero, TotalPaid: decimal.Zero}
	for _, inv := range st.invoices {
		if inv.ClientID != clientID || inv.DeletedAt != nil {
			continue
		}
		if inv.CountsAsRevenue() {
			agg.TotalRevenue = agg.TotalRevenue.Add(inv.Total)
		}
		agg.TotalPaid = agg.TotalPaid.Add(sumPayments(st.payments[inv.ID]))
	}
	return agg, nil
}

func (r *clientRepo) SetAggregates(ctx context.Context, clientID string, agg repository.ClientAggregates) error {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	c, ok := r.v.state().clients[clientID]
	if !ok {
		return domain.ErrNotFound
	}
	c.TotalRevenue = agg.TotalRevenue
	c.TotalPaid = agg.TotalPaid
	c.UpdatedAt = r.v.now()
	return nil
}

type projectRepo struct{ v *view }

func (r *projectRepo) GetByID(ctx context.Context, ownerID, id string) (*entity.Project, error) {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	p, ok := r.v.state().projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}
