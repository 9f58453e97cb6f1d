package entity

import "time"

// JobType tipo de trabajo de la cola documental.
type JobType string

const (
	JobRenderPDF JobType = "render_pdf"
	JobSendEmail JobType = "send_email"
)

// Estados de un trabajo en la cola.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusRetry      = "retry"
	JobStatusDone       = "done"
	JobStatusDead       = "dead"
)

// Valores por defecto de reintento.
const (
	DefaultJobMaxAttempts = 5
	DefaultJobBaseBackoff = 2 * time.Second
)

// DocumentJob unidad de trabajo durable. Attempts cuenta los intentos ya reclamados.
type DocumentJob struct {
	ID          string
	Type        JobType
	OwnerID     string
	InvoiceID   string
	Status      string
	Attempts    int
	MaxAttempts int
	LastError   string
	RunAt       time.Time
	LockedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewDocumentJob crea un trabajo pendiente listo para ejecutarse.
func NewDocumentJob(id string, jobType JobType, ownerID, invoiceID string, maxAttempts int, now time.Time) *DocumentJob {
	if maxAttempts <= 0 {
		maxAttempts = DefaultJobMaxAttempts
	}
	return &DocumentJob{
		ID:          id,
		Type:        jobType,
		OwnerID:     ownerID,
		InvoiceID:   invoiceID,
		Status:      JobStatusPending,
		MaxAttempts: maxAttempts,
		RunAt:       now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Exhausted indica si ya no quedan intentos.
func (j *DocumentJob) Exhausted() bool { return j.Attempts >= j.MaxAttempts }

// Backoff espera exponencial tras el intento n (1-based): base, 2·base, 4·base, ...
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = DefaultJobBaseBackoff
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 16 {
		attempt = 16
	}
	return base * time.Duration(1<<uint(attempt-1))
}

// JobHandle resultado de encolar: Enqueued=false cuando la llamada fue un no-op idempotente.
type JobHandle struct {
	JobID     string  `json:"job_id,omitempty"`
	Type      JobType `json:"type"`
	InvoiceID string  `json:"invoice_id"`
	Enqueued  bool    `json:"enqueued"`
	PdfStatus string  `json:"pdf_status"`
}
