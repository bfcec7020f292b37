package cli

import (
	"github.com/spf13/cobra"

	"ratio-alerts/internal/app"
)

var (
	historyPair  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent stored samples for a pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().History(cmd.Context(), app.HistoryOptions{
			Pair:  historyPair,
			Limit: historyLimit,
		})
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyPair, "pair", "", "Configured pair name")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum rows to display")
	_ = historyCmd.MarkFlagRequired("pair")
}
