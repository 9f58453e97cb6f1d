package billing

import (
	"context"
	"time"

	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

// StatsUseCase agregación de facturas por estado.
type StatsUseCase struct {
	stats repository.StatsRepository
}

// NewStatsUseCase construye el caso de uso.
func NewStatsUseCase(stats repository.StatsRepository) *StatsUseCase {
	return &StatsUseCase{stats: stats}
}

// InvoiceStats agrega las facturas con fecha de emisión en [from, to]; nil = sin límite.
func (uc *StatsUseCase) InvoiceStats(ctx context.Context, ownerID string, from, to *dto.Date) (*dto.InvoiceStatsResponse, error) {
	var f, t time.Time
	if from != nil {
		f = from.Time
	}
	if to != nil {
		t = to.Time
	}
	if !f.IsZero() && !t.IsZero() && t.Before(f) {
		return nil, domain.ErrInvalidDateRange
	}

	s, err := uc.stats.InvoiceStats(ctx, ownerID, f, t)
	if err != nil {
		return nil, err
	}
	out := &dto.InvoiceStatsResponse{
		From:        from,
		To:          to,
		ByStatus:    make([]dto.StatusTotalsResponse, 0, len(s.ByStatus)),
		Invoiced:    s.Invoiced,
		Paid:        s.Paid,
		Outstanding: s.Outstanding,
	}
	for _, st := range s.ByStatus {
		out.ByStatus = append(out.ByStatus, dto.StatusTotalsResponse{Status: st.Status, Count: st.Count, Total: st.Total})
	}
	return out, nil
}

