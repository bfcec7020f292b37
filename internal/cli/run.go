package cli

import (
	"github.com/spf13/cobra"
)

// runCmd starts the sampling loop and blocks until SIGINT/SIGTERM.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ratio monitor until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Run(cmd.Context())
	},
}
