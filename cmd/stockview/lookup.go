package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/stockview/internal/models"
)

var (
	lookupForce    bool
	lookupQuarters int
	lookupPrices   int
)

var lookupCmd = &cobra.Command{
	Use:   "lookup SYMBOL",
	Short: "Show prices, quarterly fundamentals and derived metrics for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

var invalidateCmd = &cobra.Command{
	Use:   "invalidate SYMBOL",
	Short: "Drop every cached row for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvalidate,
}

func init() {
	lookupCmd.Flags().BoolVarP(&lookupForce, "force", "f", false, "Bypass the cache")
	lookupCmd.Flags().IntVarP(&lookupQuarters, "quarters", "q", 8, "Quarters to show (0 for all)")
	lookupCmd.Flags().IntVar(&lookupPrices, "prices", 5, "Most recent prices to show (0 for none)")
}

func runLookup(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	dash, err := a.DashboardService.GetDashboard(cmd.Context(), args[0], lookupForce)
	if err != nil {
		a.Logger.Debug().Err(err).Str("symbol", args[0]).Msg("Lookup failed")
		return fmt.Errorf("%s. Please %s", models.UserMessage(err), models.UserGuidance)
	}

	renderDashboard(cmd.OutOrStdout(), dash, renderOptions{
		Quarters: lookupQuarters,
		Prices:   lookupPrices,
	})
	return nil
}

func runInvalidate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.DashboardService.InvalidateSymbol(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached rows for %s\n", n, models.NormalizeSymbol(args[0]))
	return nil
}
