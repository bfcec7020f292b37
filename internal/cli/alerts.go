package cli

import (
	"github.com/spf13/cobra"

	"ratio-alerts/internal/app"
)

var (
	alertsPair  string
	alertsLimit int
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List recent stored alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Alerts(cmd.Context(), app.AlertsOptions{
			Pair:  alertsPair,
			Limit: alertsLimit,
		})
	},
}

func init() {
	alertsCmd.Flags().StringVar(&alertsPair, "pair", "", "Filter by pair name (default: all pairs)")
	alertsCmd.Flags().IntVar(&alertsLimit, "limit", 20, "Maximum rows to display")
}
