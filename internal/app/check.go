package app

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"ratio-alerts/internal/config"
	"ratio-alerts/internal/market"
	"ratio-alerts/internal/ratio"
)

// Check computes and prints the current ratio for one or all configured
// pairs, without touching history, alerting, or storage.
func (a *App) Check(ctx context.Context, opts CheckOptions) error {
	pairs := a.Config.Pairs
	if opts.Pair != "" {
		pair, ok := a.Config.FindPair(opts.Pair)
		if !ok {
			return fmt.Errorf("pair %q is not configured", opts.Pair)
		}
		pairs = []config.PairConfig{pair}
	}

	source := a.newSource()
	failed := 0
	for _, pair := range pairs {
		fctx, cancel := context.WithTimeout(ctx, a.Config.Monitor.FetchTimeout)
		line, err := a.checkOne(fctx, source, pair)
		cancel()
		if err != nil {
			failed++
			a.Logger.Error().Err(err).Str("pair", pair.Name).Msg("ratio check failed")
			continue
		}
		fmt.Fprintln(os.Stdout, line)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d pairs failed", failed, len(pairs))
	}
	return nil
}

func (a *App) checkOne(ctx context.Context, source market.PriceSource, pair config.PairConfig) (string, error) {
	if pair.VolumeMode() {
		return a.checkVolume(ctx, source, pair)
	}

	quoteA, err := source.Price(ctx, pair.SymbolA)
	if err != nil {
		return "", err
	}
	quoteB, err := source.Price(ctx, pair.SymbolB)
	if err != nil {
		return "", err
	}
	value, err := ratio.SimpleRatio(quoteA.Price, quoteB.Price)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s: %s (%s=$%s / %s=$%s)",
		pair.Name,
		value.StringFixed(8),
		pair.SymbolA,
		quoteA.Price.StringFixed(2),
		pair.SymbolB,
		quoteB.Price.StringFixed(2),
	), nil
}

func (a *App) checkVolume(ctx context.Context, source market.PriceSource, pair config.PairConfig) (string, error) {
	depth := a.Config.Market.Binance.Depth
	bookA, err := source.Depth(ctx, pair.SymbolA, depth)
	if err != nil {
		return "", err
	}
	bookB, err := source.Depth(ctx, pair.SymbolB, depth)
	if err != nil {
		return "", err
	}

	volume := decimal.NewFromFloat(pair.AnalysisVolume)
	result, err := ratio.ComputeVolumeRatio(bookA, bookB, volume, ratio.SideBuy)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s: %s [Vol: %s]\n  %s eff=$%s (slippage: %s%%)\n  %s eff=$%s (slippage: %s%%)",
		pair.Name,
		result.Ratio.StringFixed(8),
		volume.String(),
		pair.SymbolA,
		result.EffectivePriceA.StringFixed(2),
		result.SlippageA.StringFixed(3),
		pair.SymbolB,
		result.EffectivePriceB.StringFixed(2),
		result.SlippageB.StringFixed(3),
	), nil
}
