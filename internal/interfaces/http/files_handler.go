package http

import (
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/timebill-api/internal/application/dto"
	"github.com/jhoicas/timebill-api/internal/infrastructure/storage"
)

// MemoryFiles sirve los enlaces firmados del almacenamiento en memoria (desarrollo).
// GET /files/:key?expires=<unix>
func MemoryFiles(store *storage.MemoryStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		exp, err := strconv.ParseInt(c.Query("expires"), 10, 64)
		if err != nil || time.Now().Unix() > exp {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "LINK_EXPIRED", Message: "enlace vencido o inválido"})
		}
		key, err := url.PathUnescape(c.Params("*"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "clave inválida"})
		}
		obj, ok := store.Get(key)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "objeto no encontrado"})
		}
		c.Set(fiber.HeaderContentType, obj.ContentType)
		return c.Send(obj.Data)
	}
}
