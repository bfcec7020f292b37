package cli

import (
	"github.com/spf13/cobra"

	"ratio-alerts/internal/app"
)

var (
	simulatePair   string
	simulateChange float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive the alert pipeline with a synthetic ratio move",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Simulate(cmd.Context(), app.SimulateOptions{
			Pair:      simulatePair,
			ChangePct: simulateChange,
		})
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulatePair, "pair", "", "Configured pair name")
	simulateCmd.Flags().Float64Var(&simulateChange, "change-pct", 12, "Synthetic ratio change in percent")
	_ = simulateCmd.MarkFlagRequired("pair")
}
