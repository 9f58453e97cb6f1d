package repository

import (
	"context"

	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

// TimeEntryRepository puerto de persistencia para registros de tiempo.
type TimeEntryRepository interface {
	Create(ctx context.Context, entry *entity.TimeEntry) error
	GetByID(ctx context.Context, ownerID, id string) (*entity.TimeEntry, error)
	// GetRunning devuelve el registro abierto del usuario o nil.
	GetRunning(ctx context.Context, ownerID string) (*entity.TimeEntry, error)
	// ListEligible devuelve, de entre ids, los registros facturables (ver TimeEntry.IsEligible).
	ListEligible(ctx context.Context, ownerID string, ids []string) ([]*entity.TimeEntry, error)
	ListUnbilled(ctx context.Context, ownerID string, limit, offset int) ([]*entity.TimeEntry, error)
	// Stop cierra el registro; falla con domain.ErrTimerAlreadyStopped si ya estaba cerrado.
	Stop(ctx context.Context, entry *entity.TimeEntry) error
	// MarkInvoiced marca los registros como consumidos por la factura. Debe afectar a todos los ids.
	MarkInvoiced(ctx context.Context, ownerID, invoiceID string, ids []string) error
	// ReleaseByInvoice devuelve al pool los registros reclamados por la factura.
	ReleaseByInvoice(ctx context.Context, ownerID, invoiceID string) (int, error)
}
