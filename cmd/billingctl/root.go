package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/timebill-api/internal/bootstrap"
	"github.com/jhoicas/timebill-api/pkg/config"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

var version = "1.0.0"

// cli estado compartido por los subcomandos. open se sustituye en pruebas.
type cli struct {
	cfg  *config.Config
	log  *logger.Logger
	out  io.Writer
	open func(ctx context.Context) (*bootstrap.Infra, error)
}

func newCLI(cfg *config.Config, log *logger.Logger) *cli {
	c := &cli{cfg: cfg, log: log, out: os.Stdout}
	c.open = func(ctx context.Context) (*bootstrap.Infra, error) {
		return bootstrap.Open(ctx, cfg, log)
	}
	return c
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "billingctl",
		Short: "Operación de facturación: migraciones, reconciliación y vencidas",
		Long: `billingctl agrupa las tareas de operación del servicio de facturación.

Usa la misma configuración que la API (variables de entorno DB_*, DATABASE_URL, APP_STORE, ...).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.out)
	root.AddCommand(newMigrateCmd(c), newReconcileCmd(c), newOverdueCmd(c))
	return root
}
