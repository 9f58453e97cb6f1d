package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Constraints que se traducen a errores de dominio.
const (
	constraintOneRunningTimer = "time_entries_one_running_idx"
	constraintInvoiceNumber   = "invoices_owner_number_key"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
// constraint vacío acepta cualquiera.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return constraint == "" && strings.Contains(err.Error(), "23505")
}

// isSerializationFailure 40001 (serialization_failure) o 40P01 (deadlock_detected): la tx puede repetirse.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
