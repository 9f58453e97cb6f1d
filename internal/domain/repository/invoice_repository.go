package repository

import (
	"context"
	"time"

	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

// InvoiceFilter filtros del listado.
type InvoiceFilter struct {
	ClientID string
	Status   string
	Limit    int
	Offset   int
}

// PdfState campos del documento que actualizan los workers.
type PdfState struct {
	Status      string
	Key         string
	GeneratedAt *time.Time
}

// InvoiceRepository puerto de persistencia para Invoice y sus ítems.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	// GetByID devuelve nil si no existe, está borrada o no pertenece al usuario.
	// ownerID vacío omite el filtro de propietario (uso interno de los workers).
	GetByID(ctx context.Context, ownerID, id string) (*entity.Invoice, error)
	List(ctx context.Context, ownerID string, f InvoiceFilter) ([]*entity.Invoice, error)
	// CountByOwner cuenta todas las facturas del usuario, borradas incluidas (base del consecutivo).
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	// UpdatePdfState actualización de una sola fila por id, idempotente.
	UpdatePdfState(ctx context.Context, invoiceID string, state PdfState) error
	// MarkSent fija sent_at solo si estaba vacío y avanza draft → sent; nunca retrocede paid/overdue.
	MarkSent(ctx context.Context, invoiceID string, at time.Time) error
	SoftDelete(ctx context.Context, ownerID, id string, at time.Time) error
	// ListOverdueCandidates facturas sent con due_date anterior a before.
	ListOverdueCandidates(ctx context.Context, before time.Time, limit int) ([]*entity.Invoice, error)

	CreateItems(ctx context.Context, items []entity.InvoiceItem) error
	DeleteItems(ctx context.Context, invoiceID string) error
	ListItems(ctx context.Context, invoiceID string) ([]entity.InvoiceItem, error)
}
