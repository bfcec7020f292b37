package ratio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ratio-alerts/internal/market"
)

var oneHundred = decimal.NewFromInt(100)

// Execution is the outcome of walking one side of a book for a volume.
type Execution struct {
	// AvgPrice is the volume-weighted mean of the consumed levels.
	AvgPrice decimal.Decimal
	// FilledVolume equals the requested volume on success.
	FilledVolume decimal.Decimal
	// SlippagePct is the raw signed deviation of AvgPrice from the best
	// level: (avg - best) / best * 100. See WorstCaseSlippage.
	SlippagePct decimal.Decimal
	// LevelsConsumed counts the rungs touched by the walk.
	LevelsConsumed int
	// TotalCost is AvgPrice * FilledVolume.
	TotalCost decimal.Decimal
}

// EstimateExecution consumes levels best-first until volume is filled.
// Levels must already be ordered best price first.
func EstimateExecution(levels []market.Level, volume decimal.Decimal) (Execution, error) {
	if volume.Sign() <= 0 {
		return Execution{}, fmt.Errorf("%w: requested volume %s is not positive", ErrInvalidInput, volume)
	}
	if len(levels) == 0 {
		return Execution{}, fmt.Errorf("%w: empty book side", ErrInsufficientLiquidity)
	}

	best := levels[0].Price
	if best.Sign() <= 0 {
		return Execution{}, fmt.Errorf("%w: top of book price %s is not positive", ErrInvalidInput, best)
	}

	remaining := volume
	filled := decimal.Zero
	cost := decimal.Zero
	consumed := 0

	for _, level := range levels {
		if remaining.Sign() <= 0 {
			break
		}
		fill := decimal.Min(remaining, level.Quantity)
		if fill.Sign() <= 0 {
			continue
		}
		cost = cost.Add(fill.Mul(level.Price))
		filled = filled.Add(fill)
		remaining = remaining.Sub(fill)
		consumed++
	}

	if filled.LessThan(volume) {
		return Execution{}, fmt.Errorf("%w: requested %s, available %s", ErrInsufficientLiquidity, volume, filled)
	}

	avg := cost.Div(filled)
	slippage := avg.Sub(best).Div(best).Mul(oneHundred)

	return Execution{
		AvgPrice:       avg,
		FilledVolume:   filled,
		SlippagePct:    slippage,
		LevelsConsumed: consumed,
		TotalCost:      cost,
	}, nil
}

// SlippageReport is the one-shot depth analysis for a single symbol.
type SlippageReport struct {
	Symbol         string
	MidPrice       decimal.Decimal
	Volume         decimal.Decimal
	Side           Side
	EffectivePrice decimal.Decimal
	SlippagePct    decimal.Decimal
	LevelsConsumed int
	TotalCost      decimal.Decimal
}

// AnalyzeSlippage walks the side of the book matching side and reports the
// effective price relative to the mid.
func AnalyzeSlippage(book market.OrderBook, volume decimal.Decimal, side Side) (SlippageReport, error) {
	exec, err := EstimateExecution(ladder(book, side), volume)
	if err != nil {
		return SlippageReport{}, fmt.Errorf("analyze %s slippage for %s: %w", side, book.Symbol, err)
	}

	return SlippageReport{
		Symbol:         book.Symbol,
		MidPrice:       book.MidPrice(),
		Volume:         volume,
		Side:           side,
		EffectivePrice: exec.AvgPrice,
		SlippagePct:    WorstCaseSlippage(exec.SlippagePct, side),
		LevelsConsumed: exec.LevelsConsumed,
		TotalCost:      exec.TotalCost,
	}, nil
}
