package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"ratio-alerts/internal/alerting"
)

// History prints recent stored samples for one pair.
func (a *App) History(ctx context.Context, opts HistoryOptions) error {
	if opts.Pair == "" {
		return errors.New("--pair is required")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show history")
	}
	if closeStore != nil {
		defer closeStore()
	}

	samples, err := store.ListHistory(ctx, opts.Pair, opts.Limit)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintln(os.Stdout, "no samples found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tMode\tRatio\tPrice A\tPrice B\tVolume\tSlippage A%\tSlippage B%")

	for _, sample := range samples {
		volume, slipA, slipB := "-", "-", "-"
		if sample.Volume != nil {
			volume = sample.Volume.String()
		}
		if sample.SlippageA != nil {
			slipA = sample.SlippageA.StringFixed(3)
		}
		if sample.SlippageB != nil {
			slipB = sample.SlippageB.StringFixed(3)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			sample.Timestamp.UTC().Format(time.RFC3339),
			sample.Mode,
			sample.Ratio.StringFixed(8),
			sample.PriceA.StringFixed(2),
			sample.PriceB.StringFixed(2),
			volume,
			slipA,
			slipB,
		)
	}

	return writer.Flush()
}

// Alerts prints recent stored alerts, optionally filtered by pair.
func (a *App) Alerts(ctx context.Context, opts AlertsOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show alerts")
	}
	if closeStore != nil {
		defer closeStore()
	}

	alerts, err := store.ListAlerts(ctx, opts.Pair, opts.Limit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tPair\tRatio\tChange%\tThreshold%\tDirection\tWindow")

	for _, alert := range alerts {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			alert.Timestamp.UTC().Format(time.RFC3339),
			alert.Pair,
			alert.Ratio.StringFixed(8),
			alert.ChangePct.StringFixed(2),
			alert.ThresholdPct.StringFixed(2),
			alert.Direction,
			alerting.FormatWindow(time.Duration(alert.WindowSecs)*time.Second),
		)
	}

	return writer.Flush()
}
