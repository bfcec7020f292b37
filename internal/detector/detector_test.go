package detector

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ratio-alerts/internal/history"
)

func change(pct string) history.Change {
	at := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	return history.Change{
		Baseline: history.Sample{Pair: "BTC/ETH", Ratio: decimal.RequireFromString("20"), Timestamp: at.Add(-5 * time.Minute)},
		Latest:   history.Sample{Pair: "BTC/ETH", Ratio: decimal.RequireFromString("21"), Timestamp: at},
		Pct:      decimal.RequireFromString(pct),
	}
}

func newDetector(thresholds ...float64) *Detector {
	return New(thresholds, 5*time.Minute, zerolog.Nop())
}

func TestEvaluateHighestTierOnly(t *testing.T) {
	d := newDetector(5, 10, 15)

	alert, ok := d.Evaluate("BTC/ETH", change("12"))
	if !ok {
		t.Fatal("expected an alert for +12%")
	}
	if !alert.Threshold.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected tier 10, got %s", alert.Threshold)
	}
	if alert.Direction != DirectionUp {
		t.Fatalf("expected up direction, got %s", alert.Direction)
	}

	// Same tier again: suppressed within the episode.
	if _, ok := d.Evaluate("BTC/ETH", change("13")); ok {
		t.Fatal("repeat breach of the same tier should not alert")
	}
}

func TestEvaluateEscalatesToHigherTier(t *testing.T) {
	d := newDetector(5, 10, 15)

	if _, ok := d.Evaluate("BTC/ETH", change("12")); !ok {
		t.Fatal("expected the initial alert")
	}
	alert, ok := d.Evaluate("BTC/ETH", change("16"))
	if !ok {
		t.Fatal("expected an escalation alert for +16%")
	}
	if !alert.Threshold.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected tier 15, got %s", alert.Threshold)
	}
}

func TestEvaluateDecayIsSilentAndRearms(t *testing.T) {
	d := newDetector(5, 10, 15)

	if _, ok := d.Evaluate("BTC/ETH", change("12")); !ok {
		t.Fatal("expected the initial alert")
	}
	// Decay within the episode: between tiers, no alert.
	if _, ok := d.Evaluate("BTC/ETH", change("7")); ok {
		t.Fatal("tier decay without a reset should not alert")
	}
	// Below the lowest tier: episode resets silently.
	if _, ok := d.Evaluate("BTC/ETH", change("3")); ok {
		t.Fatal("falling below the lowest tier should not alert")
	}
	// Re-crossing after reset alerts again, even at a lower tier.
	alert, ok := d.Evaluate("BTC/ETH", change("11"))
	if !ok {
		t.Fatal("expected an alert after episode reset")
	}
	if !alert.Threshold.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected tier 10 after reset, got %s", alert.Threshold)
	}
}

func TestEvaluateDirectionFlipStartsNewEpisode(t *testing.T) {
	d := newDetector(5, 10, 15)

	if _, ok := d.Evaluate("BTC/ETH", change("16")); !ok {
		t.Fatal("expected the initial alert")
	}
	alert, ok := d.Evaluate("BTC/ETH", change("-6"))
	if !ok {
		t.Fatal("a sign flip should start a new episode and alert")
	}
	if alert.Direction != DirectionDown {
		t.Fatalf("expected down direction, got %s", alert.Direction)
	}
	if !alert.Threshold.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected tier 5, got %s", alert.Threshold)
	}
}

func TestEvaluatePairsAreIndependent(t *testing.T) {
	d := newDetector(5)

	if _, ok := d.Evaluate("BTC/ETH", change("6")); !ok {
		t.Fatal("expected an alert for the first pair")
	}
	if _, ok := d.Evaluate("SOL/ETH", change("6")); !ok {
		t.Fatal("an episode on one pair must not suppress another pair")
	}
}

func TestEvaluateDuplicateAndUnsortedThresholds(t *testing.T) {
	d := newDetector(10, 5, 10, 15)

	alert, ok := d.Evaluate("BTC/ETH", change("12"))
	if !ok {
		t.Fatal("expected an alert")
	}
	if !alert.Threshold.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected tier 10, got %s", alert.Threshold)
	}
}

func TestResetRearmsPair(t *testing.T) {
	d := newDetector(5)

	if _, ok := d.Evaluate("BTC/ETH", change("6")); !ok {
		t.Fatal("expected the initial alert")
	}
	d.Reset("BTC/ETH")
	if _, ok := d.Evaluate("BTC/ETH", change("6")); !ok {
		t.Fatal("expected an alert after Reset")
	}
}

func TestEvaluateNoThresholds(t *testing.T) {
	d := newDetector()

	if _, ok := d.Evaluate("BTC/ETH", change("99")); ok {
		t.Fatal("a detector without thresholds should never alert")
	}
}
