package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"ratio-alerts/internal/storage"
)

// Export renders one pair's stored samples as CSV and/or a PNG chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.Pair == "" {
		return errors.New("--pair is required")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Monitor.CheckInterval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	samples, err := store.ListSamplesBetween(ctx, opts.Pair, from, to)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		a.Logger.Info().Str("pair", opts.Pair).Msg("no samples found for export window")
		return nil
	}

	downsampled := downsampleSamples(samples, opts.MaxPoints)
	a.Logger.Info().Int("total", len(samples)).Int("exported", len(downsampled)).Msg("exporting samples")

	if opts.CSVPath != "" {
		if err := writeSamplesCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSamplesPNG(opts.PNGPath, opts.Pair, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleSamples(samples []storage.SampleRecord, max int) []storage.SampleRecord {
	if max <= 0 || len(samples) <= max {
		return samples
	}
	if max == 1 {
		// A single point: keep the most recent sample.
		return samples[len(samples)-1:]
	}

	result := make([]storage.SampleRecord, 0, max)
	step := float64(len(samples)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		result = append(result, samples[idx])
	}
	return result
}

func writeSamplesCSV(path string, samples []storage.SampleRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"ts", "pair_name", "mode", "symbol_a", "symbol_b", "price_a", "price_b", "ratio", "volume", "slippage_a", "slippage_b"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, sample := range samples {
		volume, slipA, slipB := "", "", ""
		if sample.Volume != nil {
			volume = sample.Volume.String()
		}
		if sample.SlippageA != nil {
			slipA = sample.SlippageA.String()
		}
		if sample.SlippageB != nil {
			slipB = sample.SlippageB.String()
		}
		record := []string{
			sample.Timestamp.Format(time.RFC3339),
			sample.Pair,
			sample.Mode,
			sample.SymbolA,
			sample.SymbolB,
			sample.PriceA.String(),
			sample.PriceB.String(),
			sample.Ratio.String(),
			volume,
			slipA,
			slipB,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeSamplesPNG(path, pair string, samples []storage.SampleRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(samples))
	ratios := make([]float64, len(samples))
	priceA := make([]float64, len(samples))
	priceB := make([]float64, len(samples))

	for i, sample := range samples {
		x[i] = sample.Timestamp
		ratios[i] = sample.Ratio.InexactFloat64()
		priceA[i] = sample.PriceA.InexactFloat64()
		priceB[i] = sample.PriceB.InexactFloat64()
	}

	valueFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.4f")
	}
	graph := chart.Chart{
		Title:  pair,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Ratio",
			ValueFormatter: valueFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Price (USD)",
			ValueFormatter: valueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Ratio",
				XValues: x,
				YValues: ratios,
			},
			chart.TimeSeries{
				Name:    "Price A",
				XValues: x,
				YValues: priceA,
				YAxis:   chart.YAxisSecondary,
			},
			chart.TimeSeries{
				Name:    "Price B",
				XValues: x,
				YValues: priceB,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
