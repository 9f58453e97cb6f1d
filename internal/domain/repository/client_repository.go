package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

// ClientAggregates valores recalculados desde facturas y pagos.
type ClientAggregates struct {
	TotalRevenue decimal.Decimal
	TotalPaid    decimal.Decimal
}

// ClientRepository lectura de clientes (el CRUD vive fuera de este servicio)
// y mantenimiento de sus contadores derivados.
type ClientRepository interface {
	// GetByID ownerID vacío omite el filtro de propietario.
	GetByID(ctx context.Context, ownerID, id string) (*entity.Client, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Client, error)
	ListOwners(ctx context.Context) ([]string, error)
	AddRevenue(ctx context.Context, clientID string, delta decimal.Decimal) error
	AddPaid(ctx context.Context, clientID string, delta decimal.Decimal) error
	// ComputeAggregates calcula los agregados desde la fuente de verdad.
	ComputeAggregates(ctx context.Context, clientID string) (ClientAggregates, error)
	SetAggregates(ctx context.Context, clientID string, agg ClientAggregates) error
}

// ProjectRepository lectura de proyectos (tarifa por hora).
type ProjectRepository interface {
	GetByID(ctx context.Context, ownerID, id string) (*entity.Project, error)
}
