package cli

import (
	"github.com/spf13/cobra"

	"ratio-alerts/internal/app"
)

var (
	slippageSymbol string
	slippageVolume float64
	slippageSide   string
)

var slippageCmd = &cobra.Command{
	Use:   "slippage",
	Short: "Analyze execution slippage for a symbol and volume",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Slippage(cmd.Context(), app.SlippageOptions{
			Symbol: slippageSymbol,
			Volume: slippageVolume,
			Side:   slippageSide,
		})
	},
}

func init() {
	slippageCmd.Flags().StringVar(&slippageSymbol, "symbol", "", "Symbol to analyze, e.g. BTCUSDT")
	slippageCmd.Flags().Float64Var(&slippageVolume, "volume", 0, "Trade volume in base units")
	slippageCmd.Flags().StringVar(&slippageSide, "side", "buy", "Order side: buy or sell")
	_ = slippageCmd.MarkFlagRequired("symbol")
	_ = slippageCmd.MarkFlagRequired("volume")
}
