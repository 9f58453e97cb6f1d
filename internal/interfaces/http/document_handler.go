package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/timebill-api/internal/application/documents"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// DocumentHandler PDF y envío por correo. Solo encola: el trabajo lo hace el worker.
type DocumentHandler struct {
	uc  *documents.EnqueueUseCase
	log *logger.Logger
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *documents.EnqueueUseCase, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{uc: uc, log: log}
}

// GeneratePDF godoc
// @Summary      Encolar generación del PDF
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Param        force  query  bool  false  "Regenerar aunque ya exista"
// @Success      202  {object}  entity.JobHandle
// @Success      200  {object}  entity.JobHandle
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      412  {object}  dto.ErrorResponse
// @Router       /invoices/{id}/pdf [post]
func (h *DocumentHandler) GeneratePDF(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	handle, err := h.uc.EnqueuePdfJob(c.UserContext(), owner, c.Params("id"), c.QueryBool("force", false))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if handle.Enqueued {
		return c.Status(fiber.StatusAccepted).JSON(handle)
	}
	return c.JSON(handle)
}

// DownloadPDF godoc
// @Summary      Enlace firmado del PDF
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {object}  dto.DownloadLinkResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      412  {object}  dto.ErrorResponse
// @Router       /invoices/{id}/pdf [get]
func (h *DocumentHandler) DownloadPDF(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	link, err := h.uc.DownloadLink(c.UserContext(), owner, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(link)
}

// Send godoc
// @Summary      Enviar factura por correo
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Success      202  {object}  entity.JobHandle
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      412  {object}  dto.ErrorResponse
// @Router       /invoices/{id}/send [post]
func (h *DocumentHandler) Send(c *fiber.Ctx) error {
	owner, ok := requireOwner(c)
	if !ok {
		return nil
	}
	handle, err := h.uc.EnqueueEmailJob(c.UserContext(), owner, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(handle)
}
