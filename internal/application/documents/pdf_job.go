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

// PDFJobHandler render_pdf: snapshot → PDF → almacenamiento → pdf_status=generated.
// Un fallo transitorio no toca la factura (sigue en processing hasta el reintento).
type PDFJobHandler struct {
	loader   *SnapshotLoader
	invoices repository.InvoiceRepository
	renderer Renderer
	store    ObjectStore
	notifier Notifier
	log      *logger.Logger
	now      func() time.Time
}

// NewPDFJobHandler construye el handler.
func NewPDFJobHandler(loader *SnapshotLoader, invoices repository.InvoiceRepository, renderer Renderer, store ObjectStore, notifier Notifier, log *logger.Logger) *PDFJobHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &PDFJobHandler{
		loader:   loader,
		invoices: invoices,
		renderer: renderer,
		store:    store,
		notifier: notifier,
		log:      log.Component("pdf-job"),
		now:      time.Now,
	}
}

func (h *PDFJobHandler) Handle(ctx context.Context, job *entity.DocumentJob) error {
	snap, err := h.loader.Load(ctx, job.OwnerID, job.InvoiceID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Permanent(err)
	}
	if err != nil {
		return err
	}

	data, err := h.renderer.Render(*snap)
	if err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	key := ObjectKey(&snap.Invoice)
	if err := h.store.Put(ctx, key, data, "application/pdf"); err != nil {
		return fmt.Errorf("subir pdf: %w", err)
	}

	at := h.now().UTC()
	if err := h.invoices.UpdatePdfState(ctx, job.InvoiceID, repository.PdfState{
		Status:      entity.PdfStatusGenerated,
		Key:         key,
		GeneratedAt: &at,
	}); err != nil {
		return err
	}

	notify(ctx, h.notifier, h.log, job.OwnerID, EventPdfReady, Notification{
		InvoiceID:     job.InvoiceID,
		InvoiceNumber: snap.Invoice.InvoiceNumber,
		PdfStatus:     entity.PdfStatusGenerated,
		JobID:         job.ID,
	})
	return nil
}

// OnExhausted deja la factura en failed: nunca queda en processing para siempre.
func (h *PDFJobHandler) OnExhausted(ctx context.Context, job *entity.DocumentJob, cause error) error {
	if err := h.invoices.UpdatePdfState(ctx, job.InvoiceID, repository.PdfState{Status: entity.PdfStatusFailed}); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	notify(ctx, h.notifier, h.log, job.OwnerID, EventPdfFailed, Notification{
		InvoiceID: job.InvoiceID,
		PdfStatus: entity.PdfStatusFailed,
		JobID:     job.ID,
		Error:     cause.Error(),
	})
	return nil
}

func notify(ctx context.Context, n Notifier, log *logger.Logger, ownerID, event string, payload Notification) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, ownerID, event, payload); err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID).Str("event", event).Msg("notificación no entregada")
	}
}

var _ Handler = (*PDFJobHandler)(nil)
