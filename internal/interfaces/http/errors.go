package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Orden importa: la primera coincidencia con errors.Is gana.
var errorTable = []errorMapping{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},

	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidDateRange, fiber.StatusBadRequest, "INVALID_DATE_RANGE"},
	{domain.ErrInvalidDuration, fiber.StatusBadRequest, "INVALID_DURATION"},
	{domain.ErrInvalidSelection, fiber.StatusBadRequest, "INVALID_SELECTION"},
	{domain.ErrEmptyInvoice, fiber.StatusUnprocessableEntity, "EMPTY_INVOICE"},
	{domain.ErrZeroTotal, fiber.StatusUnprocessableEntity, "ZERO_TOTAL"},
	{domain.ErrOverpayment, fiber.StatusUnprocessableEntity, "OVERPAYMENT"},

	{domain.ErrActiveTimerExists, fiber.StatusConflict, "ACTIVE_TIMER_EXISTS"},
	{domain.ErrTimerMismatch, fiber.StatusConflict, "TIMER_MISMATCH"},
	{domain.ErrTimerAlreadyStopped, fiber.StatusConflict, "TIMER_ALREADY_STOPPED"},
	{domain.ErrInvalidStatusTransition, fiber.StatusConflict, "INVALID_STATUS_TRANSITION"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},

	{domain.ErrInvoiceNotEditable, fiber.StatusPreconditionFailed, "INVOICE_NOT_EDITABLE"},
	{domain.ErrDraftCannotRender, fiber.StatusPreconditionFailed, "DRAFT_CANNOT_RENDER"},
	{domain.ErrPdfNotReady, fiber.StatusPreconditionFailed, "PDF_NOT_READY"},
	{domain.ErrNotSendable, fiber.StatusPreconditionFailed, "NOT_SENDABLE"},
	{domain.ErrPaymentNotAllowed, fiber.StatusPreconditionFailed, "PAYMENT_NOT_ALLOWED"},
	{domain.ErrClientHasNoEmail, fiber.StatusPreconditionFailed, "CLIENT_HAS_NO_EMAIL"},
}

// StatusFor devuelve el código HTTP y el código de error para err.
func StatusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// writeError responde con el ErrorResponse que corresponde a err.
// Las precondiciones llevan el estado actual de la factura.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, code := StatusFor(err)
	body := dto.ErrorResponse{Code: code, Message: err.Error()}

	var se *domain.StateError
	if errors.As(err, &se) {
		body.Status = se.Status
		body.PdfStatus = se.PdfStatus
		body.Message = se.Err.Error()
	}
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
		body.Message = "error interno"
	}
	return c.Status(status).JSON(body)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
