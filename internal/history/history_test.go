package history

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var base = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func sample(ratio string, at time.Time) Sample {
	return Sample{
		Pair:      "BTC/ETH",
		Mode:      ModeSimple,
		Ratio:     decimal.RequireFromString(ratio),
		SymbolA:   "BTCUSDT",
		SymbolB:   "ETHUSDT",
		Timestamp: at,
	}
}

func TestAppendKeepsTimestampOrder(t *testing.T) {
	h := New(5*time.Minute, time.Minute)

	h.Append("BTC/ETH", sample("20", base.Add(2*time.Minute)))
	h.Append("BTC/ETH", sample("19", base)) // out of order, re-sorted in
	h.Append("BTC/ETH", sample("21", base.Add(4*time.Minute)))

	latest, ok := h.Latest("BTC/ETH")
	if !ok {
		t.Fatal("expected a latest sample")
	}
	if !latest.Timestamp.Equal(base.Add(4 * time.Minute)) {
		t.Fatalf("latest should be the newest timestamp, got %s", latest.Timestamp)
	}

	change, ok := h.ChangeSince("BTC/ETH", base.Add(4*time.Minute))
	if !ok {
		t.Fatal("expected a change signal")
	}
	if !change.Baseline.Timestamp.Equal(base) {
		t.Fatalf("baseline should be the re-sorted oldest sample, got %s", change.Baseline.Timestamp)
	}
}

func TestPruneDropsExpiredKeepsLatest(t *testing.T) {
	h := New(5*time.Minute, time.Minute)

	h.Append("BTC/ETH", sample("20", base))
	h.Append("BTC/ETH", sample("20.5", base.Add(time.Minute)))
	// 30 minutes later: both earlier samples are far outside window+margin.
	h.Append("BTC/ETH", sample("21", base.Add(30*time.Minute)))

	if _, ok := h.ChangeSince("BTC/ETH", base.Add(30*time.Minute)); ok {
		t.Fatal("pruned history should yield no change signal")
	}
	latest, ok := h.Latest("BTC/ETH")
	if !ok || !latest.Ratio.Equal(decimal.RequireFromString("21")) {
		t.Fatalf("latest sample must survive pruning, got %v (%v)", latest.Ratio, ok)
	}
}

func TestPruneNeverRemovesSoleSample(t *testing.T) {
	h := New(time.Minute, 0)

	// Single ancient sample: older than any window, still retained.
	h.Append("BTC/ETH", sample("20", base.Add(-24*time.Hour)))
	if _, ok := h.Latest("BTC/ETH"); !ok {
		t.Fatal("the single most recent sample must never be pruned")
	}
}

func TestChangeSincePct(t *testing.T) {
	h := New(5*time.Minute, time.Minute)

	h.Append("BTC/ETH", sample("20", base))
	h.Append("BTC/ETH", sample("22.4", base.Add(2*time.Minute)))

	change, ok := h.ChangeSince("BTC/ETH", base.Add(2*time.Minute))
	if !ok {
		t.Fatal("expected a change signal")
	}
	if !change.Pct.Equal(decimal.RequireFromString("12")) {
		t.Fatalf("expected +12%%, got %s", change.Pct)
	}
}

func TestChangeSinceBaselineAtWindowEdge(t *testing.T) {
	h := New(5*time.Minute, time.Minute)

	// One sample just outside the lookback, one landing exactly on its edge.
	h.Append("BTC/ETH", sample("19", base.Add(-time.Second)))
	h.Append("BTC/ETH", sample("20", base))
	h.Append("BTC/ETH", sample("22.4", base.Add(5*time.Minute)))

	change, ok := h.ChangeSince("BTC/ETH", base.Add(5*time.Minute))
	if !ok {
		t.Fatal("expected a change signal")
	}
	if !change.Baseline.Timestamp.Equal(base) {
		t.Fatalf("a sample exactly at now-lookback is inside the window, got baseline %s", change.Baseline.Timestamp)
	}
	if !change.Pct.Equal(decimal.RequireFromString("12")) {
		t.Fatalf("expected +12%% from the edge baseline, got %s", change.Pct)
	}
}

func TestChangeSinceInsufficientHistory(t *testing.T) {
	h := New(5*time.Minute, time.Minute)

	if _, ok := h.ChangeSince("BTC/ETH", base); ok {
		t.Fatal("empty history should yield no signal")
	}

	h.Append("BTC/ETH", sample("20", base))
	if _, ok := h.ChangeSince("BTC/ETH", base); ok {
		t.Fatal("a single sample should yield no signal")
	}
}

func TestPairsAreIndependent(t *testing.T) {
	h := New(5*time.Minute, time.Minute)

	h.Append("BTC/ETH", sample("20", base))
	if _, ok := h.Latest("SOL/ETH"); ok {
		t.Fatal("unrelated pair should have no samples")
	}
	if got := h.Pairs(); len(got) != 1 || got[0] != "BTC/ETH" {
		t.Fatalf("expected exactly one tracked pair, got %v", got)
	}
}
