package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StartTimerRequest body para POST /api/timers/start.
type StartTimerRequest struct {
	ProjectID   string  `json:"project_id"`
	TaskID      *string `json:"task_id,omitempty"`
	Description string  `json:"description,omitempty"`
	Billable    *bool   `json:"billable,omitempty"` // por defecto true
}

// TimeEntryResponse registro de tiempo en respuestas.
type TimeEntryResponse struct {
	ID              string          `json:"id"`
	ProjectID       string          `json:"project_id"`
	TaskID          *string         `json:"task_id,omitempty"`
	InvoiceID       *string         `json:"invoice_id,omitempty"`
	Description     string          `json:"description,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	EndedAt         *time.Time      `json:"ended_at,omitempty"`
	DurationMinutes *int            `json:"duration_minutes,omitempty"`
	Billable        bool            `json:"billable"`
	Invoiced        bool            `json:"invoiced"`
	HourlyRate      decimal.Decimal `json:"hourly_rate"`
}

// TimeEntryListResponse listado paginado de registros.
type TimeEntryListResponse struct {
	Items []TimeEntryResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}
