package documents

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

// InvoiceSnapshot todo lo necesario para renderizar o enviar una factura.
type InvoiceSnapshot struct {
	Invoice    entity.Invoice
	Client     entity.Client
	Items      []entity.InvoiceItem
	Payments   []entity.Payment
	AmountPaid decimal.Decimal
	Balance    decimal.Decimal
}

// Renderer convierte un snapshot en un PDF. Debe ser determinista para el mismo snapshot.
type Renderer interface {
	Render(snap InvoiceSnapshot) ([]byte, error)
}

// ObjectStore almacenamiento privado de objetos con enlaces firmados de corta duración.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	SignedGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Mailer transporte de correo saliente.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// EmailComposer arma asunto y cuerpo HTML del correo de factura.
type EmailComposer interface {
	InvoiceEmail(snap InvoiceSnapshot, downloadURL string, expiresAt time.Time) (subject, html string, err error)
}

// Notifier aviso a la sesión en vivo del usuario. Best-effort: perder un aviso no es un error de negocio.
type Notifier interface {
	Notify(ctx context.Context, ownerID, event string, payload any) error
}

// Eventos de notificación.
const (
	EventPdfReady    = "pdf-ready"
	EventPdfFailed   = "pdf-failed"
	EventEmailSent   = "email-sent"
	EventEmailFailed = "email-failed"
)

// Notification payload de los eventos documentales.
type Notification struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Status        string `json:"status,omitempty"`
	PdfStatus     string `json:"pdf_status,omitempty"`
	JobID         string `json:"job_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ObjectKey clave estable del PDF: re-renderizar sobrescribe el mismo objeto.
func ObjectKey(inv *entity.Invoice) string {
	return "invoices/" + inv.OwnerID + "/" + inv.InvoiceNumber + ".pdf"
}
