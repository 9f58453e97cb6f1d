package entity

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// TimeEntry representa un intervalo de trabajo de un usuario sobre un proyecto.
// EndedAt == nil significa temporizador en curso (como máximo uno por usuario).
type TimeEntry struct {
	ID              string
	OwnerID         string
	ProjectID       string
	TaskID          *string
	InvoiceID       *string
	Description     string
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationMinutes *int
	Billable        bool
	Invoiced        bool
	HourlyRate      decimal.Decimal // copia de la tarifa del proyecto al iniciar; no cambia después
	DeletedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsRunning indica si el registro sigue abierto.
func (e *TimeEntry) IsRunning() bool { return e.EndedAt == nil }

// IsEligible aplica las reglas para incluir el registro en una factura.
func (e *TimeEntry) IsEligible(ownerID string) bool {
	return e.OwnerID == ownerID &&
		e.DeletedAt == nil &&
		e.Billable &&
		e.EndedAt != nil &&
		e.DurationMinutes != nil &&
		!e.Invoiced
}

// Minutes devuelve la duración registrada, 0 si el registro sigue abierto.
func (e *TimeEntry) Minutes() int {
	if e.DurationMinutes == nil {
		return 0
	}
	return *e.DurationMinutes
}

// BillableMinutes redondea hacia arriba al minuto: cualquier fracción cuenta como un minuto completo.
func BillableMinutes(startedAt, endedAt time.Time) int {
	return int(math.Ceil(endedAt.Sub(startedAt).Seconds() / 60))
}

// ActiveTimer es la entrada de caché del temporizador en curso.
type ActiveTimer struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	ProjectID string    `json:"project_id"`
}
