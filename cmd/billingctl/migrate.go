package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/timebill-api/internal/infrastructure/postgres"
)

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica o revierte las migraciones embebidas de PostgreSQL",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Aplica todas las migraciones pendientes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.migrate(cmd, (*postgres.Migrator).Up)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revierte todas las migraciones",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.migrate(cmd, (*postgres.Migrator).Down)
			},
		},
	)
	return cmd
}

func (c *cli) migrate(cmd *cobra.Command, step func(*postgres.Migrator) error) error {
	if c.cfg.App.Store == "memory" {
		return fmt.Errorf("migrate: APP_STORE=memory no usa migraciones")
	}
	m, err := postgres.NewMigrator(c.cfg.DB.ConnectionString(), c.log)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := step(m); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "migraciones: %s ok\n", cmd.Name())
	return nil
}
