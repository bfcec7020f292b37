package app

import (
	"testing"

	"github.com/shopspring/decimal"

	"ratio-alerts/internal/storage"
)

func statsSamples(ratios ...string) []storage.SampleRecord {
	samples := make([]storage.SampleRecord, 0, len(ratios))
	for _, r := range ratios {
		samples = append(samples, storage.SampleRecord{
			Pair:  "BTC/ETH",
			Ratio: decimal.RequireFromString(r),
		})
	}
	return samples
}

func TestSummarizeSamples(t *testing.T) {
	agg := summarizeSamples(statsSamples("20", "22", "21"))

	if agg.Count != 3 {
		t.Fatalf("expected count 3, got %d", agg.Count)
	}
	if !agg.Min.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected min 20, got %s", agg.Min)
	}
	if !agg.Max.Equal(decimal.NewFromInt(22)) {
		t.Fatalf("expected max 22, got %s", agg.Max)
	}
	if !agg.Avg.Equal(decimal.NewFromInt(21)) {
		t.Fatalf("expected avg 21, got %s", agg.Avg)
	}
	if !agg.RangePct.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected range 10%%, got %s", agg.RangePct)
	}
}

func TestSummarizeSamplesSingle(t *testing.T) {
	agg := summarizeSamples(statsSamples("20"))

	if agg.Count != 1 {
		t.Fatalf("expected count 1, got %d", agg.Count)
	}
	if !agg.Min.Equal(agg.Max) || !agg.Min.Equal(agg.Avg) {
		t.Fatalf("single sample should collapse min/max/avg, got %s/%s/%s", agg.Min, agg.Max, agg.Avg)
	}
	if !agg.RangePct.IsZero() {
		t.Fatalf("single sample should have zero range, got %s", agg.RangePct)
	}
}

func TestSummarizeSamplesEmpty(t *testing.T) {
	agg := summarizeSamples(nil)
	if agg.Count != 0 {
		t.Fatalf("expected count 0, got %d", agg.Count)
	}
}
