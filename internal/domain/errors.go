package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas), agrupados por categoría.
var (
	// NotFound
	ErrNotFound = errors.New("recurso no encontrado")

	// Validation: se rechazan en la petición, nunca se reintentan.
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrInvalidDateRange = errors.New("la fecha de vencimiento es anterior a la fecha de emisión")
	ErrEmptyInvoice     = errors.New("la factura no tiene líneas")
	ErrZeroTotal        = errors.New("el total de la factura debe ser mayor que cero")
	ErrOverpayment      = errors.New("el pago supera el saldo pendiente")
	ErrInvalidSelection = errors.New("hay registros de tiempo no facturables en la selección")
	ErrInvalidDuration  = errors.New("la duración del registro debe ser mayor que cero")

	// Conflict
	ErrConflict                = errors.New("conflicto con el estado actual")
	ErrActiveTimerExists       = errors.New("ya existe un temporizador activo")
	ErrTimerMismatch           = errors.New("el temporizador no coincide con el activo")
	ErrTimerAlreadyStopped     = errors.New("el temporizador ya fue detenido")
	ErrInvalidStatusTransition = errors.New("transición de estado no permitida")

	// Precondition: se devuelven envueltos en StateError con el estado actual.
	ErrInvoiceNotEditable = errors.New("solo se pueden modificar facturas en borrador")
	ErrDraftCannotRender  = errors.New("una factura en borrador no puede generar PDF")
	ErrPdfNotReady        = errors.New("el PDF de la factura aún no está generado")
	ErrNotSendable        = errors.New("la factura no puede enviarse en su estado actual")
	ErrPaymentNotAllowed  = errors.New("la factura no admite pagos en su estado actual")
	ErrClientHasNoEmail   = errors.New("el cliente no tiene email")

	ErrUnauthorized = errors.New("no autorizado")
)

// StateError describe una precondición incumplida junto con el estado actual de la factura,
// para que el cliente sepa qué hacer a continuación. errors.Is sigue encontrando el sentinel.
type StateError struct {
	Err       error
	Status    string
	PdfStatus string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s (status=%s, pdf_status=%s)", e.Err.Error(), e.Status, e.PdfStatus)
}

func (e *StateError) Unwrap() error { return e.Err }

// NewStateError construye un StateError.
func NewStateError(err error, status, pdfStatus string) error {
	return &StateError{Err: err, Status: status, PdfStatus: pdfStatus}
}

// permanentError marca errores de worker que no deben reintentarse.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent envuelve err para que la cola lo mande directo a estado terminal.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent informa si err (o alguno de los que envuelve) fue marcado con Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// IsPrecondition informa si err es una precondición de estado.
func IsPrecondition(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
