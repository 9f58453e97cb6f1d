package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

var (
	_ repository.ClientRepository  = (*ClientRepo)(nil)
	_ repository.ProjectRepository = (*ProjectRepo)(nil)
)

const clientColumns = `id, owner_id, name, email, company, address, currency, total_revenue, total_paid, created_at, updated_at`

// ClientRepo lectura de clientes y mantenimiento de sus agregados.
type ClientRepo struct {
	q Querier
}

func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

func (r *ClientRepo) GetByID(ctx context.Context, ownerID, id string) (*entity.Client, error) {
	var c entity.Client
	err := r.q.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 AND ($2::text = '' OR owner_id = $2)`, id, ownerID).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Company, &c.Address, &c.Currency, &c.TotalRevenue, &c.TotalPaid, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

func (r *ClientRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Client, error) {
	rows, err := r.q.Query(ctx, `SELECT `+clientColumns+` FROM clients WHERE owner_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	var out []*entity.Client
	for rows.Next() {
		var c entity.Client
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Company, &c.Address, &c.Currency, &c.TotalRevenue, &c.TotalPaid, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *ClientRepo) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT owner_id FROM clients ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *ClientRepo) AddRevenue(ctx context.Context, clientID string, delta decimal.Decimal) error {
	return r.add(ctx, "total_revenue", clientID, delta)
}

func (r *ClientRepo) AddPaid(ctx context.Context, clientID string, delta decimal.Decimal) error {
	return r.add(ctx, "total_paid", clientID, delta)
}

// add column viene siempre de una constante interna.
func (r *ClientRepo) add(ctx context.Context, column, clientID string, delta decimal.Decimal) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE clients SET `+column+` = `+column+` + $2, updated_at = now() WHERE id = $1`,
		clientID, delta,
	)
	if err != nil {
		return fmt.Errorf("update client %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ComputeAggregates revenue: facturas no borradas ni canceladas; paid: pagos de facturas no borradas.
func (r *ClientRepo) ComputeAggregates(ctx context.Context, clientID string) (repository.ClientAggregates, error) {
	agg := repository.ClientAggregates{}
	err := r.q.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(total) FROM invoices
			          WHERE client_id = $1 AND deleted_at IS NULL AND status <> 'cancelled'), 0),
			COALESCE((SELECT SUM(p.amount) FROM payments p
			          JOIN invoices i ON i.id = p.invoice_id
			          WHERE i.client_id = $1 AND i.deleted_at IS NULL), 0)`,
		clientID,
	).Scan(&agg.TotalRevenue, &agg.TotalPaid)
	if err != nil {
		return agg, fmt.Errorf("compute client aggregates: %w", err)
	}
	return agg, nil
}

func (r *ClientRepo) SetAggregates(ctx context.Context, clientID string, agg repository.ClientAggregates) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE clients SET total_revenue = $2, total_paid = $3, updated_at = now() WHERE id = $1`,
		clientID, agg.TotalRevenue, agg.TotalPaid,
	)
	if err != nil {
		return fmt.Errorf("set client aggregates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ProjectRepo lectura de proyectos.
type ProjectRepo struct {
	q Querier
}

func NewProjectRepository(q Querier) *ProjectRepo {
	return &ProjectRepo{q: q}
}

func (r *ProjectRepo) GetByID(ctx context.Context, ownerID, id string) (*entity.Project, error) {
	var p entity.Project
	err := r.q.QueryRow(ctx, `
		SELECT id, owner_id, client_id, name, hourly_rate, created_at, updated_at
		FROM projects WHERE owner_id = $1 AND id = $2`, ownerID, id).
		Scan(&p.ID, &p.OwnerID, &p.ClientID, &p.Name, &p.HourlyRate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}
