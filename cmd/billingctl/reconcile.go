package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/timebill-api/internal/application/billing"
	"github.com/jhoicas/timebill-api/internal/application/dto"
)

func newReconcileCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recalcula total facturado y cobrado por cliente desde facturas y pagos",
		Long: `Recalcula los agregados derivados de cada cliente (total facturado, total cobrado)
a partir de las facturas y pagos, y corrige los que se hayan desviado.`,
		Example: `  # Todos los usuarios
  billingctl reconcile

  # Un usuario, un cliente
  billingctl reconcile --owner 6f1c... --client 9a2b...`,
		Args: cobra.NoArgs,
		RunE: c.runReconcile,
	}
	cmd.Flags().String("owner", "", "user_id a reconciliar (vacío = todos)")
	cmd.Flags().String("client", "", "cliente concreto (requiere --owner)")
	return cmd
}

func (c *cli) runReconcile(cmd *cobra.Command, _ []string) error {
	owner, _ := cmd.Flags().GetString("owner")
	clientID, _ := cmd.Flags().GetString("client")
	if clientID != "" && owner == "" {
		return fmt.Errorf("reconcile: --client requiere --owner")
	}

	ctx := cmd.Context()
	infra, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer infra.Close()

	uc := billing.NewReconcileUseCase(infra.Tx, infra.Repos.Clients, c.log)
	var results []dto.ReconcileResult
	if clientID != "" {
		res, err := uc.ReconcileClient(ctx, owner, clientID)
		if err != nil {
			return err
		}
		results = append(results, *res)
	} else {
		results, err = uc.ReconcileAll(ctx, owner)
		if err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CLIENTE\tFACTURADO\tCOBRADO\tCORREGIDO")
	drifted := 0
	for _, r := range results {
		mark := "no"
		if r.Drifted {
			mark = "sí"
			drifted++
		}
		fmt.Fprintf(w, "%s\t%s → %s\t%s → %s\t%s\n", r.ClientID,
			r.RevenueBefore.StringFixed(2), r.RevenueAfter.StringFixed(2),
			r.PaidBefore.StringFixed(2), r.PaidAfter.StringFixed(2), mark)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d clientes, %d corregidos\n", len(results), drifted)
	return nil
}
