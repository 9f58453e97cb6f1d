package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// ReconcileUseCase recalcula total_revenue y total_paid de los clientes desde facturas y pagos.
type ReconcileUseCase struct {
	tx      repository.TxRunner
	clients repository.ClientRepository
	log     *logger.Logger
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(tx repository.TxRunner, clients repository.ClientRepository, log *logger.Logger) *ReconcileUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileUseCase{tx: tx, clients: clients, log: log.Component("reconcile")}
}

// ReconcileClient recalcula un cliente y corrige los contadores si difieren.
func (uc *ReconcileUseCase) ReconcileClient(ctx context.Context, ownerID, clientID string) (*dto.ReconcileResult, error) {
	var res dto.ReconcileResult
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		client, err := repos.Clients.GetByID(ctx, ownerID, clientID)
		if err != nil {
			return err
		}
		if client == nil {
			return domain.ErrNotFound
		}
		agg, err := repos.Clients.ComputeAggregates(ctx, client.ID)
		if err != nil {
			return err
		}
		res = dto.ReconcileResult{
			ClientID:      client.ID,
			RevenueBefore: client.TotalRevenue,
			RevenueAfter:  agg.TotalRevenue,
			PaidBefore:    client.TotalPaid,
			PaidAfter:     agg.TotalPaid,
			Drifted:       !client.TotalRevenue.Equal(agg.TotalRevenue) || !client.TotalPaid.Equal(agg.TotalPaid),
		}
		if !res.Drifted {
			return nil
		}
		return repos.Clients.SetAggregates(ctx, client.ID, agg)
	})
	if err != nil {
		return nil, err
	}
	if res.Drifted {
		uc.log.Warn().Str("owner_id", ownerID).Str("client_id", clientID).
			Str("revenue_before", res.RevenueBefore.StringFixed(2)).Str("revenue_after", res.RevenueAfter.StringFixed(2)).
			Str("paid_before", res.PaidBefore.StringFixed(2)).Str("paid_after", res.PaidAfter.StringFixed(2)).
			Msg("agregados de cliente corregidos")
	}
	return &res, nil
}

// ReconcileAll recalcula todos los clientes de ownerID, o de todos los usuarios si ownerID es vacío.
// Cada cliente va en su propia transacción.
func (uc *ReconcileUseCase) ReconcileAll(ctx context.Context, ownerID string) ([]dto.ReconcileResult, error) {
	owners := []string{ownerID}
	if ownerID == "" {
		var err error
		owners, err = uc.clients.ListOwners(ctx)
		if err != nil {
			return nil, err
		}
	}
	var out []dto.ReconcileResult
	for _, owner := range owners {
		clients, err := uc.clients.ListByOwner(ctx, owner)
		if err != nil {
			return out, err
		}
		for _, c := range clients {
			res, err := uc.ReconcileClient(ctx, owner, c.ID)
			if err != nil {
				return out, fmt.Errorf("reconciliar cliente %s: %w", c.ID, err)
			}
			out = append(out, *res)
		}
	}
	return out, nil
}
