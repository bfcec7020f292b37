package cli

import (
	"github.com/spf13/cobra"

	"ratio-alerts/internal/app"
)

var checkPair string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compute current ratios once and print them",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Check(cmd.Context(), app.CheckOptions{Pair: checkPair})
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkPair, "pair", "", "Configured pair name (default: all pairs)")
}
