package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"ratio-alerts/internal/ratio"
)

// Slippage runs a one-shot depth analysis for a symbol and volume.
func (a *App) Slippage(ctx context.Context, opts SlippageOptions) error {
	if opts.Symbol == "" {
		return errors.New("--symbol is required")
	}
	if opts.Volume <= 0 {
		return errors.New("--volume must be positive")
	}
	side, err := ratio.ParseSide(opts.Side)
	if err != nil {
		return err
	}

	source := a.newSource()
	fctx, cancel := context.WithTimeout(ctx, a.Config.Monitor.FetchTimeout)
	defer cancel()

	book, err := source.Depth(fctx, opts.Symbol, a.Config.Market.Binance.Depth)
	if err != nil {
		return err
	}

	report, err := ratio.AnalyzeSlippage(book, decimal.NewFromFloat(opts.Volume), side)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s %s %s units:\n  Mid: $%s -> Effective: $%s\n  Slippage: %s%%\n  Depth consumed: %d levels\n  Total cost: $%s\n",
		report.Symbol,
		report.Side,
		report.Volume.String(),
		report.MidPrice.StringFixed(2),
		report.EffectivePrice.StringFixed(2),
		report.SlippagePct.StringFixed(3),
		report.LevelsConsumed,
		report.TotalCost.StringFixed(2),
	)
	return nil
}
