package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ratio-alerts/internal/storage"
)

func exportSamples(n int) []storage.SampleRecord {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	samples := make([]storage.SampleRecord, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, storage.SampleRecord{
			ID:        int64(i + 1),
			Pair:      "BTC/ETH",
			Ratio:     decimal.NewFromInt(int64(i)),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return samples
}

func TestDownsampleSamplesKeepsEndpoints(t *testing.T) {
	samples := exportSamples(10)

	got := downsampleSamples(samples, 4)
	if len(got) != 4 {
		t.Fatalf("expected 4 points, got %d", len(got))
	}
	if got[0].ID != samples[0].ID {
		t.Fatalf("first point should be the oldest sample, got id %d", got[0].ID)
	}
	if got[len(got)-1].ID != samples[len(samples)-1].ID {
		t.Fatalf("last point should be the newest sample, got id %d", got[len(got)-1].ID)
	}
}

func TestDownsampleSamplesSinglePoint(t *testing.T) {
	samples := exportSamples(5)

	got := downsampleSamples(samples, 1)
	if len(got) != 1 {
		t.Fatalf("expected 1 point, got %d", len(got))
	}
	if got[0].ID != samples[len(samples)-1].ID {
		t.Fatalf("single point should be the newest sample, got id %d", got[0].ID)
	}
}

func TestDownsampleSamplesNoOp(t *testing.T) {
	samples := exportSamples(3)

	if got := downsampleSamples(samples, 10); len(got) != 3 {
		t.Fatalf("fewer samples than max should pass through, got %d", len(got))
	}
	if got := downsampleSamples(samples, 0); len(got) != 3 {
		t.Fatalf("max <= 0 should pass through, got %d", len(got))
	}
}
