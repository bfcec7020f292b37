package ratio

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"ratio-alerts/internal/market"
)

func levels(raw ...[2]string) []market.Level {
	out := make([]market.Level, 0, len(raw))
	for _, entry := range raw {
		out = append(out, market.Level{
			Price:    decimal.RequireFromString(entry[0]),
			Quantity: decimal.RequireFromString(entry[1]),
		})
	}
	return out
}

func TestEstimateExecutionSingleDeepLevel(t *testing.T) {
	exec, err := EstimateExecution(levels([2]string{"100", "1000000000"}), decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("EstimateExecution returned error: %v", err)
	}
	if !exec.AvgPrice.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected avg price 100, got %s", exec.AvgPrice)
	}
	if !exec.SlippagePct.IsZero() {
		t.Fatalf("single-level fill should have zero slippage, got %s", exec.SlippagePct)
	}
	if exec.LevelsConsumed != 1 {
		t.Fatalf("expected 1 level consumed, got %d", exec.LevelsConsumed)
	}
	if !exec.FilledVolume.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected filled volume 500, got %s", exec.FilledVolume)
	}
}

func TestEstimateExecutionWalksLadder(t *testing.T) {
	// 1 @ 100 + 2 @ 101 + 1 @ 103 = 405 total for 4 units.
	exec, err := EstimateExecution(levels(
		[2]string{"100", "1"},
		[2]string{"101", "2"},
		[2]string{"103", "5"},
	), decimal.NewFromInt(4))
	if err != nil {
		t.Fatalf("EstimateExecution returned error: %v", err)
	}
	if !exec.AvgPrice.Equal(decimal.RequireFromString("101.25")) {
		t.Fatalf("expected avg price 101.25, got %s", exec.AvgPrice)
	}
	if !exec.SlippagePct.Equal(decimal.RequireFromString("1.25")) {
		t.Fatalf("expected slippage 1.25%%, got %s", exec.SlippagePct)
	}
	if exec.LevelsConsumed != 3 {
		t.Fatalf("expected 3 levels consumed, got %d", exec.LevelsConsumed)
	}
	if !exec.TotalCost.Equal(decimal.NewFromInt(405)) {
		t.Fatalf("expected total cost 405, got %s", exec.TotalCost)
	}
}

func TestEstimateExecutionInvalidVolume(t *testing.T) {
	book := levels([2]string{"100", "10"})
	for _, bad := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1)} {
		if _, err := EstimateExecution(book, bad); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("volume %s should fail with ErrInvalidInput, got %v", bad, err)
		}
	}
}

func TestEstimateExecutionInsufficientLiquidity(t *testing.T) {
	if _, err := EstimateExecution(nil, decimal.NewFromInt(1)); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("empty book should fail with ErrInsufficientLiquidity, got %v", err)
	}
	if _, err := EstimateExecution(levels([2]string{"100", "3"}), decimal.NewFromInt(10)); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("over-depth request should fail with ErrInsufficientLiquidity, got %v", err)
	}
}

func TestAnalyzeSlippageSell(t *testing.T) {
	book := market.OrderBook{
		Symbol: "BTCUSDT",
		Asks:   levels([2]string{"101", "10"}),
		Bids:   levels([2]string{"99", "1"}, [2]string{"97", "10"}),
	}

	report, err := AnalyzeSlippage(book, decimal.NewFromInt(2), SideSell)
	if err != nil {
		t.Fatalf("AnalyzeSlippage returned error: %v", err)
	}
	if !report.MidPrice.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected mid price 100, got %s", report.MidPrice)
	}
	// VWAP of 1@99 + 1@97 = 98; (99-98)/99 ~= 1.0101% worsening.
	if !report.EffectivePrice.Equal(decimal.NewFromInt(98)) {
		t.Fatalf("expected effective price 98, got %s", report.EffectivePrice)
	}
	if report.SlippagePct.Sign() <= 0 {
		t.Fatalf("sell slippage should be worsening-positive, got %s", report.SlippagePct)
	}
	if report.LevelsConsumed != 2 {
		t.Fatalf("expected 2 levels consumed, got %d", report.LevelsConsumed)
	}
}
