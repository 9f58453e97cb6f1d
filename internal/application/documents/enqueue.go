package documents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// DefaultSignedURLTTL duración de los enlaces firmados.
const DefaultSignedURLTTL = 15 * time.Minute

// EnqueueConfig parámetros de encolado.
type EnqueueConfig struct {
	MaxAttempts  int
	SignedURLTTL time.Duration
}

// EnqueueUseCase punto de entrada síncrono de la cola documental. Nunca espera al worker:
// valida precondiciones, deja el estado de la factura coherente y encola en la misma transacción.
type EnqueueUseCase struct {
	tx       repository.TxRunner
	invoices repository.InvoiceRepository
	store    ObjectStore
	cfg      EnqueueConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewEnqueueUseCase construye el caso de uso.
func NewEnqueueUseCase(tx repository.TxRunner, invoices repository.InvoiceRepository, store ObjectStore, cfg EnqueueConfig, log *logger.Logger) *EnqueueUseCase {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = entity.DefaultJobMaxAttempts
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = DefaultSignedURLTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &EnqueueUseCase{tx: tx, invoices: invoices, store: store, cfg: cfg, log: log.Component("documents"), now: time.Now}
}

// EnqueuePdfJob pide la generación del PDF. Es idempotente: con el PDF ya generado (sin force)
// o con un render en curso devuelve éxito sin encolar.
func (uc *EnqueueUseCase) EnqueuePdfJob(ctx context.Context, ownerID, invoiceID string, force bool) (*entity.JobHandle, error) {
	var handle *entity.JobHandle
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		inv, err := repos.Invoices.GetByID(ctx, ownerID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if inv.IsDraft() {
			return domain.NewStateError(domain.ErrDraftCannotRender, inv.Status, inv.PdfStatus)
		}
		handle = &entity.JobHandle{Type: entity.JobRenderPDF, InvoiceID: inv.ID, PdfStatus: inv.PdfStatus}
		switch {
		case inv.PdfStatus == entity.PdfStatusProcessing:
			return nil
		case inv.PdfStatus == entity.PdfStatusGenerated && !force:
			return nil
		}

		// processing antes de encolar: un segundo llamador ve el estado y no duplica el trabajo
		if err := repos.Invoices.UpdatePdfState(ctx, inv.ID, repository.PdfState{Status: entity.PdfStatusProcessing}); err != nil {
			return err
		}
		job := entity.NewDocumentJob(uuid.New().String(), entity.JobRenderPDF, ownerID, inv.ID, uc.cfg.MaxAttempts, uc.now().UTC())
		if err := repos.Jobs.Enqueue(ctx, job); err != nil {
			return err
		}
		handle.JobID = job.ID
		handle.Enqueued = true
		handle.PdfStatus = entity.PdfStatusProcessing
		return nil
	})
	if err != nil {
		return nil, err
	}
	if handle.Enqueued {
		uc.log.Info().Str("owner_id", ownerID).Str("invoice_id", invoiceID).Str("job_id", handle.JobID).
			Bool("force", force).Msg("render de PDF encolado")
	}
	return handle, nil
}

// EnqueueEmailJob encola el envío por correo. Falla en el momento si el PDF no está generado:
// el correo queda ordenado después del render por precondición, no por la cola.
func (uc *EnqueueUseCase) EnqueueEmailJob(ctx context.Context, ownerID, invoiceID string) (*entity.JobHandle, error) {
	var handle *entity.JobHandle
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		inv, err := repos.Invoices.GetByID(ctx, ownerID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if inv.IsDraft() || inv.Status == entity.InvoiceStatusCancelled {
			return domain.NewStateError(domain.ErrNotSendable, inv.Status, inv.PdfStatus)
		}
		if inv.PdfStatus != entity.PdfStatusGenerated || inv.PdfKey == "" {
			return domain.NewStateError(domain.ErrPdfNotReady, inv.Status, inv.PdfStatus)
		}
		client, err := repos.Clients.GetByID(ctx, ownerID, inv.ClientID)
		if err != nil {
			return err
		}
		if client == nil || client.Email == "" {
			return domain.NewStateError(domain.ErrClientHasNoEmail, inv.Status, inv.PdfStatus)
		}

		job := entity.NewDocumentJob(uuid.New().String(), entity.JobSendEmail, ownerID, inv.ID, uc.cfg.MaxAttempts, uc.now().UTC())
		if err := repos.Jobs.Enqueue(ctx, job); err != nil {
			return err
		}
		handle = &entity.JobHandle{JobID: job.ID, Type: entity.JobSendEmail, InvoiceID: inv.ID, Enqueued: true, PdfStatus: inv.PdfStatus}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("owner_id", ownerID).Str("invoice_id", invoiceID).Str("job_id", handle.JobID).Msg("envío de correo encolado")
	return handle, nil
}

// DownloadLink enlace firmado al PDF vigente.
func (uc *EnqueueUseCase) DownloadLink(ctx context.Context, ownerID, invoiceID string) (*dto.DownloadLinkResponse, error) {
	inv, err := uc.invoices.GetByID(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.PdfStatus != entity.PdfStatusGenerated || inv.PdfKey == "" {
		return nil, domain.NewStateError(domain.ErrPdfNotReady, inv.Status, inv.PdfStatus)
	}
	url, err := uc.store.SignedGet(ctx, inv.PdfKey, uc.cfg.SignedURLTTL)
	if err != nil {
		return nil, err
	}
	return &dto.DownloadLinkResponse{URL: url, ExpiresAt: uc.now().UTC().Add(uc.cfg.SignedURLTTL)}, nil
}
