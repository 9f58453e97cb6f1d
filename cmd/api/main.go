// @title                      TimeBill API
// @version                    1.0
// @description                Temporizadores, facturación a partir de horas registradas y envío de PDF por correo.
// @BasePath                   /api
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/timebill-api/internal/application/billing"
	"github.com/jhoicas/timebill-api/internal/bootstrap"
	"github.com/jhoicas/timebill-api/internal/infrastructure/notify"
	httpRouter "github.com/jhoicas/timebill-api/internal/interfaces/http"
	"github.com/jhoicas/timebill-api/pkg/config"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name + "-api",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.Store).
		Msg("iniciando aplicación")
	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET requerido")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("infraestructura")
	}
	defer infra.Close()

	hub := notify.NewHub(notify.DefaultBuffer, log)
	invoiceUC := infra.Invoices()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "TimeBill API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	if infra.MemoryObjects != nil {
		app.Get("/files/*", httpRouter.MemoryFiles(infra.MemoryObjects))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Timers:    infra.Timers(),
		Invoices:  invoiceUC,
		Stats:     billing.NewStatsUseCase(infra.Stats),
		Documents: infra.Enqueue(),
		Hub:       hub,
		JWTSecret: cfg.JWT.Secret,
		Log:       log,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			return err
		}
		return nil
	})

	// Con Redis los avisos llegan desde los workers; sin Redis el worker corre aquí mismo.
	if infra.Redis != nil {
		relay := notify.NewRedisRelay(infra.Redis, hub, log)
		g.Go(func() error {
			if err := relay.Run(gctx, nil); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if infra.Memory() {
		proc, err := infra.Processor(hub)
		if err != nil {
			log.Fatal().Err(err).Msg("procesador de documentos")
		}
		log.Info().Msg("store en memoria: procesador de documentos en proceso")
		g.Go(func() error {
			if err := proc.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			bootstrap.RunOverdueSweep(gctx, invoiceUC, cfg.Worker.OverdueInterval, log)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("apagado del servidor")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("servidor HTTP finalizado")
	}
	log.Info().Msg("aplicación detenida")
}
