// Package ratio holds the pure price-relation math: spot ratios,
// depth-adjusted execution prices, and slippage. Nothing in here performs
// I/O or reads clocks; callers supply snapshots and timestamps.
package ratio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ratio-alerts/internal/market"
)

var (
	// ErrInvalidInput flags a malformed numeric input, e.g. a non-positive price.
	ErrInvalidInput = errors.New("ratio: invalid input")
	// ErrInsufficientLiquidity flags a requested volume exceeding book depth.
	ErrInsufficientLiquidity = errors.New("ratio: insufficient liquidity")
)

// Side selects which ladder an execution walk consumes: a buy crosses the
// asks, a sell crosses the bids.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

// ParseSide maps "buy"/"sell" onto a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	default:
		return 0, fmt.Errorf("%w: side must be buy or sell, got %q", ErrInvalidInput, s)
	}
}

func (s Side) String() string {
	if s == SideSell {
		return "sell"
	}
	return "buy"
}

// SimpleRatio returns priceA / priceB for two positive spot prices.
func SimpleRatio(priceA, priceB decimal.Decimal) (decimal.Decimal, error) {
	if priceA.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: price A %s is not positive", ErrInvalidInput, priceA)
	}
	if priceB.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: price B %s is not positive", ErrInvalidInput, priceB)
	}
	return priceA.Div(priceB), nil
}

// VolumeRatio is a depth-adjusted ratio: effective execution price on each
// leg for the requested volume, divided.
type VolumeRatio struct {
	Ratio           decimal.Decimal
	EffectivePriceA decimal.Decimal
	EffectivePriceB decimal.Decimal
	SlippageA       decimal.Decimal
	SlippageB       decimal.Decimal
}

// ComputeVolumeRatio walks both books for the requested volume on the given
// side and divides the resulting effective prices. Slippage values follow
// the worsening-positive convention described at WorstCaseSlippage.
func ComputeVolumeRatio(bookA, bookB market.OrderBook, volume decimal.Decimal, side Side) (VolumeRatio, error) {
	execA, err := EstimateExecution(ladder(bookA, side), volume)
	if err != nil {
		return VolumeRatio{}, fmt.Errorf("walk %s book for %s: %w", side, bookA.Symbol, err)
	}
	execB, err := EstimateExecution(ladder(bookB, side), volume)
	if err != nil {
		return VolumeRatio{}, fmt.Errorf("walk %s book for %s: %w", side, bookB.Symbol, err)
	}

	return VolumeRatio{
		Ratio:           execA.AvgPrice.Div(execB.AvgPrice),
		EffectivePriceA: execA.AvgPrice,
		EffectivePriceB: execB.AvgPrice,
		SlippageA:       WorstCaseSlippage(execA.SlippagePct, side),
		SlippageB:       WorstCaseSlippage(execB.SlippagePct, side),
	}, nil
}

// WorstCaseSlippage normalises a raw signed slippage so that positive always
// means the execution was worse than top of book. Raw slippage is
// (avg - best) / best * 100: crossing asks drifts upward (positive raw),
// crossing bids drifts downward (negative raw), so sells flip the sign.
func WorstCaseSlippage(raw decimal.Decimal, side Side) decimal.Decimal {
	if side == SideSell {
		return raw.Neg()
	}
	return raw
}

func ladder(book market.OrderBook, side Side) []market.Level {
	if side == SideSell {
		return book.Bids
	}
	return book.Asks
}
