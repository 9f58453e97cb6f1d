package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/timebill-api/internal/infrastructure/notify"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

const wsPingInterval = 30 * time.Second

// WSHandler sesiones en vivo: cada conexión se suscribe a la sala de su usuario en el Hub.
type WSHandler struct {
	hub *notify.Hub
	log *logger.Logger
}

// NewWSHandler construye el handler.
func NewWSHandler(hub *notify.Hub, log *logger.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: log.Component("ws")}
}

// TokenFromQuery permite ?token= en el upgrade (los navegadores no envían cabeceras propias).
func TokenFromQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			if tok := c.Query("token"); tok != "" {
				c.Request().Header.Set("Authorization", "Bearer "+tok)
			}
		}
		return c.Next()
	}
}

// Upgrade rechaza con 426 lo que no sea un upgrade de websocket.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// Serve godoc
// @Summary      Sesión en vivo (websocket): pdf-ready, pdf-failed, email-sent, email-failed
// @Tags         live
// @Security     BearerAuth
// @Param        token  query  string  false  "JWT si el cliente no puede enviar Authorization"
// @Success      101
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      426
// @Router       /ws [get]
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		owner, _ := conn.Locals(LocalUserID).(string)
		if owner == "" {
			_ = conn.Close()
			return
		}
		sub := h.hub.Subscribe(owner)
		defer sub.Close()
		h.log.Debug().Str("owner_id", owner).Int("sessions", h.hub.Sessions(owner)).Msg("sesión abierta")

		// Las lecturas solo sirven para detectar el cierre del cliente.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(wsPingInterval)
		defer ping.Stop()
		for {
			select {
			case <-closed:
				h.log.Debug().Str("owner_id", owner).Msg("sesión cerrada")
				return
			case msg, ok := <-sub.C:
				if !ok {
					return
				}
				if err := conn.WriteJSON(msg); err != nil {
					h.log.Debug().Err(err).Str("owner_id", owner).Msg("escritura a la sesión")
					return
				}
			case <-ping.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	})
}
