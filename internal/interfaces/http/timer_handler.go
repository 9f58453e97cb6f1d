package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/application/timer"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// TimerHandler temporizadores y registros pendientes de facturar (protegido).
type TimerHandler struct {
	uc  *timer.UseCase
	log *logger.Logger
}

// NewTimerHandler construye el handler.
func NewTimerHandler(uc *timer.UseCase, log *logger.Logger) *TimerHandler {
	return &TimerHandler{uc: uc, log: log}
}

// Start godoc
// @Summary      Iniciar temporizador
// @Tags         timers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StartTimerRequest  true  "Proyecto y descripción"
// @Success      201  {object}  dto.TimeEntryResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /timers/start [post]
func (h *TimerHandler) Start(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	var in dto.StartTimerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.StartTimer(c.UserContext(), owner, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Stop godoc
// @Summary      Detener temporizador
// @Tags         timers
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "ID del temporizador"
// @Success      200  {object}  dto.TimeEntryResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /timers/{id}/stop [post]
func (h *TimerHandler) Stop(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	out, err := h.uc.StopTimer(c.UserContext(), owner, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Active godoc
// @Summary      Temporizador en curso
// @Tags         timers
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  dto.TimeEntryResponse
// @Success      204
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /timers/active [get]
func (h *TimerHandler) Active(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	out, err := h.uc.GetActive(c.UserContext(), owner)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if out == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(out)
}

// Unbilled godoc
// @Summary      Registros pendientes de facturar
// @Tags         time-entries
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query  int  false  "Máximo de resultados"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.TimeEntryListResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /time-entries/unbilled [get]
func (h *TimerHandler) Unbilled(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ListUnbilled(c.UserContext(), owner, page)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
