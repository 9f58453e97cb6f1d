package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// RequestLogger registra cada petición con método, ruta, estado y duración.
func RequestLogger(log *logger.Logger) fiber.Handler {
	l := log.Component("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		ev := l.Info()
		if status >= fiber.StatusInternalServerError {
			ev = l.Error().Err(err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Str("owner_id", GetUserID(c)).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}
