package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// EmailJobHandler send_email: enlace firmado de corta duración (no adjunto), envío y sent_at de primer envío.
// El enlace se firma al enviar sobre la clave vigente de la factura, así que un re-render forzado
// posterior al encolado sigue apuntando al documento más reciente.
type EmailJobHandler struct {
	loader   *SnapshotLoader
	invoices repository.InvoiceRepository
	store    ObjectStore
	mailer   Mailer
	composer EmailComposer
	notifier Notifier
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time
}

// NewEmailJobHandler construye el handler. ttl <= 0 usa DefaultSignedURLTTL.
func NewEmailJobHandler(loader *SnapshotLoader, invoices repository.InvoiceRepository, store ObjectStore, mailer Mailer, composer EmailComposer, notifier Notifier, ttl time.Duration, log *logger.Logger) *EmailJobHandler {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &EmailJobHandler{
		loader:   loader,
		invoices: invoices,
		store:    store,
		mailer:   mailer,
		composer: composer,
		notifier: notifier,
		ttl:      ttl,
		log:      log.Component("email-job"),
		now:      time.Now,
	}
}

func (h *EmailJobHandler) Handle(ctx context.Context, job *entity.DocumentJob) error {
	snap, err := h.loader.Load(ctx, job.OwnerID, job.InvoiceID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Permanent(err)
	}
	if err != nil {
		return err
	}
	inv := snap.Invoice
	if inv.Status == entity.InvoiceStatusCancelled {
		return domain.Permanent(domain.ErrNotSendable)
	}
	if inv.PdfKey == "" {
		return domain.Permanent(domain.ErrPdfNotReady)
	}
	if snap.Client.Email == "" {
		return domain.Permanent(domain.ErrClientHasNoEmail)
	}

	url, err := h.store.SignedGet(ctx, inv.PdfKey, h.ttl)
	if err != nil {
		return fmt.Errorf("firmar enlace: %w", err)
	}
	now := h.now().UTC()
	subject, html, err := h.composer.InvoiceEmail(*snap, url, now.Add(h.ttl))
	if err != nil {
		return domain.Permanent(fmt.Errorf("plantilla de correo: %w", err))
	}
	if err := h.mailer.Send(ctx, snap.Client.Email, subject, html); err != nil {
		return fmt.Errorf("enviar correo: %w", err)
	}

	if err := h.invoices.MarkSent(ctx, inv.ID, now); err != nil {
		return err
	}

	status := inv.Status
	if status == entity.InvoiceStatusDraft {
		status = entity.InvoiceStatusSent
	}
	notify(ctx, h.notifier, h.log, job.OwnerID, EventEmailSent, Notification{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Status:        status,
		PdfStatus:     inv.PdfStatus,
		JobID:         job.ID,
	})
	return nil
}

// OnExhausted solo avisa: el envío fallido no cambia el estado persistido de la factura.
func (h *EmailJobHandler) OnExhausted(ctx context.Context, job *entity.DocumentJob, cause error) error {
	notify(ctx, h.notifier, h.log, job.OwnerID, EventEmailFailed, Notification{
		InvoiceID: job.InvoiceID,
		JobID:     job.ID,
		Error:     cause.Error(),
	})
	return nil
}

var _ Handler = (*EmailJobHandler)(nil)
