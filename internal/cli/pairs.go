package cli

import (
	"github.com/spf13/cobra"
)

var pairsCmd = &cobra.Command{
	Use:   "pairs",
	Short: "List the configured ratio pairs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListPairs()
	},
}
