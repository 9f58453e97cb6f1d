package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/timebill-api/internal/application/billing"
	"github.com/jhoicas/timebill-api/internal/application/documents"
	"github.com/jhoicas/timebill-api/internal/application/timer"
	"github.com/jhoicas/timebill-api/internal/infrastructure/notify"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Timers    *timer.UseCase
	Invoices  *billing.InvoiceUseCase
	Stats     *billing.StatsUseCase
	Documents *documents.EnqueueUseCase
	Hub       *notify.Hub
	JWTSecret string
	Log       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api")

	// Websocket: el token puede venir en ?token=
	if deps.Hub != nil {
		ws := NewWSHandler(deps.Hub, log)
		api.Get("/ws", TokenFromQuery(), AuthMiddleware(deps.JWTSecret), ws.Upgrade, ws.Serve())
	}

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Timers
	timerHandler := NewTimerHandler(deps.Timers, log)
	timers := protected.Group("/timers")
	timers.Post("/start", timerHandler.Start)
	timers.Post("/:id/stop", timerHandler.Stop)
	timers.Get("/active", timerHandler.Active)
	protected.Get("/time-entries/unbilled", timerHandler.Unbilled)

	// Invoices
	invoiceHandler := NewInvoiceHandler(deps.Invoices, deps.Stats, log)
	documentHandler := NewDocumentHandler(deps.Documents, log)
	invoices := protected.Group("/invoices")
	invoices.Get("/", invoiceHandler.List)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/stats", invoiceHandler.Stats)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Patch("/:id", invoiceHandler.Update)
	invoices.Delete("/:id", invoiceHandler.Delete)
	invoices.Post("/:id/payments", invoiceHandler.RecordPayment)

	// Documentos (asíncronos)
	invoices.Post("/:id/pdf", documentHandler.GeneratePDF)
	invoices.Get("/:id/pdf", documentHandler.DownloadPDF)
	invoices.Post("/:id/send", documentHandler.Send)
}
