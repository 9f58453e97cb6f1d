package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newOverdueCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Marca como vencidas las facturas enviadas cuya fecha de vencimiento ya pasó",
		Args:  cobra.NoArgs,
		RunE:  c.runOverdue,
	}
	cmd.Flags().String("as-of", "", "fecha de referencia YYYY-MM-DD (por defecto hoy)")
	return cmd
}

func (c *cli) runOverdue(cmd *cobra.Command, _ []string) error {
	asOf, _ := cmd.Flags().GetString("as-of")
	now := time.Now()
	if asOf != "" {
		t, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			return fmt.Errorf("overdue: fecha inválida, use YYYY-MM-DD: %w", err)
		}
		now = t
	}

	ctx := cmd.Context()
	infra, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer infra.Close()

	n, err := infra.Invoices().MarkOverdue(ctx, now)
	if err != nil {
		return err
	}
	c.log.Info().Int("marked", n).Str("as_of", now.Format("2006-01-02")).Msg("barrido de vencidas")
	fmt.Fprintf(cmd.OutOrStdout(), "%d facturas marcadas como vencidas\n", n)
	return nil
}
