package cli

import (
	"github.com/spf13/cobra"

	"ratio-alerts/internal/app"
)

var (
	statsPair  string
	statsHours int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show min/max/avg ratio statistics for a pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Stats(cmd.Context(), app.StatsOptions{
			Pair:  statsPair,
			Hours: statsHours,
		})
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsPair, "pair", "", "Configured pair name")
	statsCmd.Flags().IntVar(&statsHours, "hours", 24, "Trailing window in hours")
	_ = statsCmd.MarkFlagRequired("pair")
}
