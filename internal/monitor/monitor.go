// Package monitor drives the sampling loop: on every check tick it fetches
// market data for each configured pair, computes a ratio sample, feeds the
// rolling history and the change detector, and dispatches alerts. A second,
// independent cadence emits a summary of the latest known ratios.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ratio-alerts/internal/alerting"
	"ratio-alerts/internal/detector"
	"ratio-alerts/internal/history"
	"ratio-alerts/internal/market"
	"ratio-alerts/internal/ratio"
	"ratio-alerts/internal/scheduler"
	"ratio-alerts/internal/storage"
)

// Pair is one monitored relationship. A positive Volume switches the pair
// to depth-adjusted ratios.
type Pair struct {
	Name    string
	SymbolA string
	SymbolB string
	Volume  decimal.Decimal
}

// Options tune the monitor loop.
type Options struct {
	CheckInterval    time.Duration
	PeriodicInterval time.Duration
	ChangeWindow     time.Duration
	FetchTimeout     time.Duration
	Parallelism      int
	BookDepth        int
	AlignTicks       bool
	StartupDelay     time.Duration
}

// Monitor owns the per-pair state and the two tick cadences.
type Monitor struct {
	opts     Options
	pairs    []Pair
	source   market.PriceSource
	notifier alerting.Notifier // nil disables delivery
	samples  storage.SampleStore
	alerts   storage.AlertStore
	hist     *history.History
	det      *detector.Detector
	logger   zerolog.Logger
}

// New assembles a monitor. The sample and alert stores may be nil; writes
// to them are best-effort side effects either way.
func New(opts Options, pairs []Pair, source market.PriceSource, det *detector.Detector, notifier alerting.Notifier, samples storage.SampleStore, alerts storage.AlertStore, logger zerolog.Logger) *Monitor {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	return &Monitor{
		opts:     opts,
		pairs:    pairs,
		source:   source,
		notifier: notifier,
		samples:  samples,
		alerts:   alerts,
		hist:     history.New(opts.ChangeWindow, opts.CheckInterval),
		det:      det,
		logger:   logger.With().Str("component", "monitor").Logger(),
	}
}

// History exposes the rolling window, used by summary rendering and tests.
func (m *Monitor) History() *history.History {
	return m.hist
}

// Run blocks until ctx is cancelled, driving both cadences. An in-flight
// tick always finishes before Run returns.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info().Int("pairs", len(m.pairs)).
		Dur("check_interval", m.opts.CheckInterval).
		Dur("periodic_interval", m.opts.PeriodicInterval).
		Msg("starting ratio monitor")

	checks := scheduler.New(scheduler.Options{
		Name:         "check",
		Interval:     m.opts.CheckInterval,
		Align:        m.opts.AlignTicks,
		StartupDelay: m.opts.StartupDelay,
	}, m.logger)
	summaries := scheduler.New(scheduler.Options{
		Name:         "summary",
		Interval:     m.opts.PeriodicInterval,
		Align:        m.opts.AlignTicks,
		StartupDelay: m.opts.StartupDelay,
	}, m.logger)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return checks.Run(ctx, m.CheckTick) })
	group.Go(func() error { return summaries.Run(ctx, m.SummaryTick) })
	return group.Wait()
}

// TickStats summarises one check tick.
type TickStats struct {
	Updated  int
	Failed   int
	Timeouts int
	Alerts   int
}

// CheckTick evaluates every configured pair once. Pair failures are
// isolated: they are logged and the remaining pairs still run.
func (m *Monitor) CheckTick(ctx context.Context, at time.Time) error {
	stats := m.tick(ctx, at)
	m.logger.Debug().Int("updated", stats.Updated).Int("failed", stats.Failed).Int("alerts", stats.Alerts).Msg("check tick complete")
	return nil
}

func (m *Monitor) tick(ctx context.Context, at time.Time) TickStats {
	var stats TickStats
	results := make([]error, len(m.pairs))
	alerted := make([]bool, len(m.pairs))

	group := new(errgroup.Group)
	group.SetLimit(m.opts.Parallelism)
	for i, pair := range m.pairs {
		group.Go(func() error {
			alert, err := m.checkPair(ctx, pair, at)
			results[i] = err
			alerted[i] = alert
			return nil
		})
	}
	_ = group.Wait()

	for i, err := range results {
		switch {
		case err == nil:
			stats.Updated++
			if alerted[i] {
				stats.Alerts++
			}
		case isTimeout(err):
			stats.Failed++
			stats.Timeouts++
			m.logger.Warn().Str("pair", m.pairs[i].Name).Err(err).Msg("fetch timeout, pair skipped this tick")
		default:
			stats.Failed++
			m.logger.Error().Str("pair", m.pairs[i].Name).Err(err).Msg("pair check failed")
		}
	}
	return stats
}

// checkPair fetches, computes, appends, and detects for one pair. The
// returned bool reports whether an alert was dispatched.
func (m *Monitor) checkPair(ctx context.Context, pair Pair, at time.Time) (bool, error) {
	sample, err := m.observe(ctx, pair, at)
	if err != nil {
		return false, err
	}

	m.hist.Append(pair.Name, sample)
	m.recordSample(ctx, sample)

	change, ok := m.hist.ChangeSince(pair.Name, at)
	if !ok {
		// Not enough history yet; no signal, no state change.
		return false, nil
	}

	alert, fired := m.det.Evaluate(pair.Name, change)
	if !fired {
		return false, nil
	}

	m.logger.Info().Str("pair", pair.Name).
		Str("change_pct", alert.ChangePct.StringFixed(2)).
		Str("threshold_pct", alert.Threshold.String()).
		Str("direction", alert.Direction.String()).
		Msg("threshold breached")

	m.recordAlert(ctx, alert)

	if m.notifier != nil {
		// Shutdown cancels scheduling, never an in-progress delivery; the
		// notifier's own client timeout bounds the send.
		if err := m.notifier.SendAlert(context.WithoutCancel(ctx), alert); err != nil {
			// Delivery failure does not roll back detector state.
			m.logger.Error().Err(err).Str("pair", pair.Name).Msg("failed to dispatch alert")
		}
	}
	return true, nil
}

func (m *Monitor) observe(ctx context.Context, pair Pair, at time.Time) (history.Sample, error) {
	fctx, cancel := context.WithTimeout(ctx, m.opts.FetchTimeout)
	defer cancel()

	if pair.Volume.Sign() > 0 {
		return m.observeVolume(fctx, pair, at)
	}
	return m.observeSimple(fctx, pair, at)
}

func (m *Monitor) observeSimple(ctx context.Context, pair Pair, at time.Time) (history.Sample, error) {
	quoteA, err := m.source.Price(ctx, pair.SymbolA)
	if err != nil {
		return history.Sample{}, fmt.Errorf("price %s: %w", pair.SymbolA, err)
	}
	quoteB, err := m.source.Price(ctx, pair.SymbolB)
	if err != nil {
		return history.Sample{}, fmt.Errorf("price %s: %w", pair.SymbolB, err)
	}

	value, err := ratio.SimpleRatio(quoteA.Price, quoteB.Price)
	if err != nil {
		return history.Sample{}, err
	}

	return history.Sample{
		Pair:      pair.Name,
		Mode:      history.ModeSimple,
		Ratio:     value,
		SymbolA:   pair.SymbolA,
		SymbolB:   pair.SymbolB,
		PriceA:    quoteA.Price,
		PriceB:    quoteB.Price,
		Timestamp: at,
	}, nil
}

func (m *Monitor) observeVolume(ctx context.Context, pair Pair, at time.Time) (history.Sample, error) {
	bookA, err := m.source.Depth(ctx, pair.SymbolA, m.opts.BookDepth)
	if err != nil {
		return history.Sample{}, fmt.Errorf("depth %s: %w", pair.SymbolA, err)
	}
	bookB, err := m.source.Depth(ctx, pair.SymbolB, m.opts.BookDepth)
	if err != nil {
		return history.Sample{}, fmt.Errorf("depth %s: %w", pair.SymbolB, err)
	}

	result, err := ratio.ComputeVolumeRatio(bookA, bookB, pair.Volume, ratio.SideBuy)
	if err != nil {
		return history.Sample{}, err
	}

	return history.Sample{
		Pair:      pair.Name,
		Mode:      history.ModeVolume,
		Ratio:     result.Ratio,
		SymbolA:   pair.SymbolA,
		SymbolB:   pair.SymbolB,
		PriceA:    result.EffectivePriceA,
		PriceB:    result.EffectivePriceB,
		Volume:    pair.Volume,
		SlippageA: result.SlippageA,
		SlippageB: result.SlippageB,
		Timestamp: at,
	}, nil
}

// SummaryTick emits one consolidated report of the latest sample per pair.
// Pairs without a sample yet are omitted.
func (m *Monitor) SummaryTick(ctx context.Context, at time.Time) error {
	entries := make([]alerting.SummaryEntry, 0, len(m.pairs))
	for _, pair := range m.pairs {
		sample, ok := m.hist.Latest(pair.Name)
		if !ok {
			continue
		}
		entries = append(entries, alerting.SummaryEntry{Pair: pair.Name, Sample: sample})
	}

	if len(entries) == 0 {
		m.logger.Debug().Msg("no samples yet, summary skipped")
		return nil
	}

	m.logger.Info().Int("pairs", len(entries)).Msg("sending periodic summary")
	if m.notifier != nil {
		if err := m.notifier.SendSummary(context.WithoutCancel(ctx), entries); err != nil {
			m.logger.Error().Err(err).Msg("failed to dispatch summary")
		}
	}
	return nil
}

func (m *Monitor) recordSample(ctx context.Context, sample history.Sample) {
	if m.samples == nil {
		return
	}
	rec := storage.SampleRecord{
		Pair:      sample.Pair,
		Mode:      sample.Mode,
		SymbolA:   sample.SymbolA,
		SymbolB:   sample.SymbolB,
		PriceA:    sample.PriceA,
		PriceB:    sample.PriceB,
		Ratio:     sample.Ratio,
		Timestamp: sample.Timestamp,
	}
	if sample.Mode == history.ModeVolume {
		volume := sample.Volume
		slipA := sample.SlippageA
		slipB := sample.SlippageB
		rec.Volume = &volume
		rec.SlippageA = &slipA
		rec.SlippageB = &slipB
	}
	if err := m.samples.InsertSample(ctx, rec); err != nil {
		m.logger.Error().Err(err).Str("pair", sample.Pair).Msg("failed to persist sample")
	}
}

func (m *Monitor) recordAlert(ctx context.Context, alert detector.Alert) {
	if m.alerts == nil {
		return
	}
	rec := storage.AlertRecord{
		Pair:         alert.Pair,
		Ratio:        alert.Ratio,
		ChangePct:    alert.ChangePct,
		ThresholdPct: alert.Threshold,
		Direction:    alert.Direction.String(),
		WindowSecs:   int64(alert.Window.Seconds()),
		Timestamp:    alert.Timestamp,
	}
	if err := m.alerts.InsertAlert(ctx, rec); err != nil {
		m.logger.Error().Err(err).Str("pair", alert.Pair).Msg("failed to persist alert")
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
