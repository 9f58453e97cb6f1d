// worker consume la cola documental (PDF y correo) y marca las facturas vencidas periódicamente.
// Varias instancias pueden correr en paralelo: el reclamo de trabajos usa SKIP LOCKED.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/timebill-api/internal/application/documents"
	"github.com/jhoicas/timebill-api/internal/bootstrap"
	"github.com/jhoicas/timebill-api/internal/infrastructure/notify"
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
		Service: cfg.App.Name + "-worker",
	})
	if cfg.App.Store == "memory" {
		log.Fatal().Msg("el worker necesita APP_STORE=postgres; en modo memoria la API procesa la cola")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("infraestructura")
	}
	defer infra.Close()

	// Los avisos viajan por Redis hasta la API; sin Redis no hay sesiones a las que avisar.
	var notifier documents.Notifier
	if infra.Redis != nil {
		notifier = notify.NewRedisPublisher(infra.Redis, log)
	} else {
		log.Warn().Msg("sin REDIS_HOST: los avisos en vivo no llegarán a la API")
		notifier = notify.NewHub(notify.DefaultBuffer, log)
	}

	proc, err := infra.Processor(notifier)
	if err != nil {
		log.Fatal().Err(err).Msg("procesador de documentos")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := proc.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		bootstrap.RunOverdueSweep(gctx, infra.Invoices(), cfg.Worker.OverdueInterval, log)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("worker finalizado con error")
		return
	}
	log.Info().Msg("worker detenido")
}
