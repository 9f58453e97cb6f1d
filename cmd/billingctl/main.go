// billingctl tareas de operación: migraciones, reconciliación de agregados y barrido de vencidas.
//
// Uso:
//
//	billingctl migrate up
//	billingctl reconcile --owner <user_id>
//	billingctl overdue --as-of 2026-03-31
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/timebill-api/pkg/config"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name + "-ctl",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newCLI(cfg, log)).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("comando fallido")
		stop()
		os.Exit(1)
	}
}
