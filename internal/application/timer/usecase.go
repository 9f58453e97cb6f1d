package timer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// UseCase temporizador activo: como máximo un registro abierto por usuario.
// La caché solo sirve para rechazar rápido; la verificación dentro de la
// transacción (y el índice único en la base) es la que garantiza el invariante.
type UseCase struct {
	tx      repository.TxRunner
	entries repository.TimeEntryRepository
	cache   Cache
	log     *logger.Logger
	now     func() time.Time
}

// NewUseCase construye el caso de uso. log puede ser nil.
func NewUseCase(tx repository.TxRunner, entries repository.TimeEntryRepository, cache Cache, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{tx: tx, entries: entries, cache: cache, log: log.Component("timer"), now: time.Now}
}

// WithClock reemplaza el reloj (pruebas).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// StartTimer abre un registro de tiempo sobre el proyecto, copiando su tarifa por hora.
func (uc *UseCase) StartTimer(ctx context.Context, ownerID string, in dto.StartTimerRequest) (*dto.TimeEntryResponse, error) {
	if ownerID == "" || in.ProjectID == "" {
		return nil, domain.ErrInvalidInput
	}
	if cached := uc.probe(ctx, ownerID); cached != nil {
		return nil, domain.ErrActiveTimerExists
	}

	billable := true
	if in.Billable != nil {
		billable = *in.Billable
	}

	var entry *entity.TimeEntry
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		project, err := repos.Projects.GetByID(ctx, ownerID, in.ProjectID)
		if err != nil {
			return err
		}
		if project == nil {
			return domain.ErrNotFound
		}
		running, err := repos.TimeEntries.GetRunning(ctx, ownerID)
		if err != nil {
			return err
		}
		if running != nil {
			return domain.ErrActiveTimerExists
		}
		entry = &entity.TimeEntry{
			ID:          uuid.New().String(),
			OwnerID:     ownerID,
			ProjectID:   project.ID,
			TaskID:      in.TaskID,
			Description: in.Description,
			StartedAt:   uc.now().UTC(),
			Billable:    billable,
			HourlyRate:  project.HourlyRate,
		}
		return repos.TimeEntries.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	active := entity.ActiveTimer{ID: entry.ID, StartedAt: entry.StartedAt, ProjectID: entry.ProjectID}
	if err := uc.cache.Set(ctx, ownerID, active); err != nil {
		uc.log.Warn().Err(err).Str("owner_id", ownerID).Msg("no se pudo escribir el temporizador en caché")
	}
	return ToTimeEntryResponse(entry), nil
}

// StopTimer cierra el temporizador timerID. Debe coincidir con el activo del usuario:
// el de la caché o, si no hay entrada, el registro abierto en la base.
func (uc *UseCase) StopTimer(ctx context.Context, ownerID, timerID string) (*dto.TimeEntryResponse, error) {
	if ownerID == "" || timerID == "" {
		return nil, domain.ErrInvalidInput
	}
	cached := uc.probe(ctx, ownerID)
	if cached != nil && cached.ID != timerID {
		return nil, domain.ErrTimerMismatch
	}

	var entry *entity.TimeEntry
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		var err error
		entry, err = repos.TimeEntries.GetByID(ctx, ownerID, timerID)
		if err != nil {
			return err
		}
		if entry == nil {
			return domain.ErrNotFound
		}
		if !entry.IsRunning() {
			return domain.ErrTimerAlreadyStopped
		}
		if cached == nil {
			running, err := repos.TimeEntries.GetRunning(ctx, ownerID)
			if err != nil {
				return err
			}
			if running == nil || running.ID != timerID {
				return domain.ErrTimerMismatch
			}
		}

		endedAt := uc.now().UTC()
		minutes := entity.BillableMinutes(entry.StartedAt, endedAt)
		if minutes <= 0 {
			return domain.ErrInvalidDuration
		}
		entry.EndedAt = &endedAt
		entry.DurationMinutes = &minutes
		return repos.TimeEntries.Stop(ctx, entry)
	})
	if err != nil {
		if cached != nil && errors.Is(err, domain.ErrTimerAlreadyStopped) {
			uc.evict(ctx, ownerID)
		}
		return nil, err
	}

	uc.evict(ctx, ownerID)
	return ToTimeEntryResponse(entry), nil
}

// GetActive devuelve el temporizador en curso o nil.
func (uc *UseCase) GetActive(ctx context.Context, ownerID string) (*dto.TimeEntryResponse, error) {
	if cached := uc.probe(ctx, ownerID); cached != nil {
		entry, err := uc.entries.GetByID(ctx, ownerID, cached.ID)
		if err != nil {
			return nil, err
		}
		if entry != nil && entry.IsRunning() {
			return ToTimeEntryResponse(entry), nil
		}
		uc.evict(ctx, ownerID)
	}

	entry, err := uc.entries.GetRunning(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	active := entity.ActiveTimer{ID: entry.ID, StartedAt: entry.StartedAt, ProjectID: entry.ProjectID}
	if err := uc.cache.Set(ctx, ownerID, active); err != nil {
		uc.log.Warn().Err(err).Str("owner_id", ownerID).Msg("no se pudo rehidratar la caché")
	}
	return ToTimeEntryResponse(entry), nil
}

// ListUnbilled registros cerrados, facturables y sin facturar.
func (uc *UseCase) ListUnbilled(ctx context.Context, ownerID string, page dto.PageRequest) (*dto.TimeEntryListResponse, error) {
	page.DefaultPage()
	list, err := uc.entries.ListUnbilled(ctx, ownerID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.TimeEntryListResponse{
		Items: make([]dto.TimeEntryResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, e := range list {
		out.Items = append(out.Items, *ToTimeEntryResponse(e))
	}
	return out, nil
}

// probe consulta la caché; un fallo se trata como ausencia de entrada.
func (uc *UseCase) probe(ctx context.Context, ownerID string) *entity.ActiveTimer {
	t, err := uc.cache.Get(ctx, ownerID)
	if err != nil {
		uc.log.Warn().Err(err).Str("owner_id", ownerID).Msg("caché de temporizador no disponible")
		return nil
	}
	return t
}

func (uc *UseCase) evict(ctx context.Context, ownerID string) {
	if err := uc.cache.Delete(ctx, ownerID); err != nil {
		uc.log.Warn().Err(err).Str("owner_id", ownerID).Msg("no se pudo invalidar la caché")
	}
}

// ToTimeEntryResponse mapea la entidad a la respuesta.
func ToTimeEntryResponse(e *entity.TimeEntry) *dto.TimeEntryResponse {
	return &dto.TimeEntryResponse{
		ID:              e.ID,
		ProjectID:       e.ProjectID,
		TaskID:          e.TaskID,
		InvoiceID:       e.InvoiceID,
		Description:     e.Description,
		StartedAt:       e.StartedAt,
		EndedAt:         e.EndedAt,
		DurationMinutes: e.DurationMinutes,
		Billable:        e.Billable,
		Invoiced:        e.Invoiced,
		HourlyRate:      e.HourlyRate,
	}
}
