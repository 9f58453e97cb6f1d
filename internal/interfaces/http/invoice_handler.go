package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/timebill-api/internal/application/billing"
	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	uc    *billing.InvoiceUseCase
	stats *billing.StatsUseCase
	log   *logger.Logger
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.InvoiceUseCase, stats *billing.StatsUseCase, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, stats: stats, log: log}
}

// Create godoc
// @Summary      Crear factura
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "Cliente, fechas, líneas y registros"
// @Success      201  {object}  dto.InvoiceResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	invoice, err := h.uc.Create(c.UserContext(), owner, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// List godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        client_id  query  string  false  "Filtrar por cliente"
// @Param        status  query  string  false  "Filtrar por estado"
// @Param        limit  query  int  false  "Máximo de resultados"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.InvoiceListResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	var in dto.ListInvoicesRequest
	if err := c.QueryParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.List(c.UserContext(), owner, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener factura por ID
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	invoice, err := h.uc.Get(c.UserContext(), owner, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(invoice)
}

// Update godoc
// @Summary      Actualizar factura o cambiar estado
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Param        body  body  dto.UpdateInvoiceRequest  true  "Campos a modificar o status"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      412  {object}  dto.ErrorResponse
// @Router       /invoices/{id} [patch]
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	var in dto.UpdateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	invoice, err := h.uc.Update(c.UserContext(), owner, c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(invoice)
}

// Delete godoc
// @Summary      Eliminar factura en borrador
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Success      204
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      412  {object}  dto.ErrorResponse
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	if err := h.uc.Delete(c.UserContext(), owner, c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordPayment godoc
// @Summary      Registrar pago
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Param        body  body  dto.RecordPaymentRequest  false  "Monto, fecha y método"
// @Success      201  {object}  dto.PaymentResultResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      412  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	var in dto.RecordPaymentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.uc.MarkAsPaid(c.UserContext(), owner, c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Stats godoc
// @Summary      Estadísticas de facturación
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        from  query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to  query  string  false  "Hasta (YYYY-MM-DD)"
// @Success      200  {object}  dto.InvoiceStatsResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /invoices/stats [get]
func (h *InvoiceHandler) Stats(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	from, err := queryDate(c, "from")
	if err != nil {
		return writeError(c, h.log, err)
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.stats.InvoiceStats(c.UserContext(), owner, from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

func queryDate(c *fiber.Ctx, key string) (*dto.Date, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	return &dto.Date{Time: t}, nil
}
