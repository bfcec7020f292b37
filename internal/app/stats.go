package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"ratio-alerts/internal/storage"
)

// Stats prints min/max/avg ratio aggregates for one pair over a trailing
// window of hours.
func (a *App) Stats(ctx context.Context, opts StatsOptions) error {
	if opts.Pair == "" {
		return errors.New("--pair is required")
	}
	if opts.Hours <= 0 {
		return errors.New("--hours must be positive")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot compute statistics")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	from := to.Add(-time.Duration(opts.Hours) * time.Hour)

	samples, err := store.ListSamplesBetween(ctx, opts.Pair, from, to)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintf(os.Stdout, "%s: no samples in the last %dh\n", opts.Pair, opts.Hours)
		return nil
	}

	agg := summarizeSamples(samples)

	fmt.Fprintf(os.Stdout, "%s (last %dh):\n  Samples: %d\n  Min: %s\n  Max: %s\n  Avg: %s\n  Range: %s%%\n",
		opts.Pair,
		opts.Hours,
		agg.Count,
		agg.Min.StringFixed(8),
		agg.Max.StringFixed(8),
		agg.Avg.StringFixed(8),
		agg.RangePct.StringFixed(2),
	)
	return nil
}

// ratioAggregate are the per-pair summary figures over a sample window.
type ratioAggregate struct {
	Count    int
	Min      decimal.Decimal
	Max      decimal.Decimal
	Avg      decimal.Decimal
	RangePct decimal.Decimal // (max - min) / min * 100
}

func summarizeSamples(samples []storage.SampleRecord) ratioAggregate {
	agg := ratioAggregate{Count: len(samples)}
	if len(samples) == 0 {
		return agg
	}

	agg.Min = samples[0].Ratio
	agg.Max = samples[0].Ratio
	sum := decimal.Zero
	for _, sample := range samples {
		if sample.Ratio.LessThan(agg.Min) {
			agg.Min = sample.Ratio
		}
		if sample.Ratio.GreaterThan(agg.Max) {
			agg.Max = sample.Ratio
		}
		sum = sum.Add(sample.Ratio)
	}

	agg.Avg = sum.Div(decimal.NewFromInt(int64(len(samples))))
	if agg.Min.Sign() > 0 {
		agg.RangePct = agg.Max.Sub(agg.Min).Div(agg.Min).Mul(decimal.NewFromInt(100))
	}
	return agg
}
