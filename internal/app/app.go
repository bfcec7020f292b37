package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ratio-alerts/internal/alerting"
	"ratio-alerts/internal/config"
	"ratio-alerts/internal/detector"
	"ratio-alerts/internal/market"
	"ratio-alerts/internal/monitor"
	"ratio-alerts/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSource() market.PriceSource {
	if a.Config.Market.Provider == config.ProviderChainlink {
		return market.NewChainlink(market.ChainlinkOptions{
			RPCURL:  a.Config.Market.Chainlink.RPCURL,
			Feeds:   a.Config.Market.Chainlink.Feeds,
			Timeout: a.Config.Monitor.FetchTimeout,
		}, a.Logger)
	}

	return market.NewBinance(market.BinanceOptions{
		BaseURL:   a.Config.Market.Binance.BaseURL,
		Timeout:   a.Config.Monitor.FetchTimeout,
		UserAgent: a.Config.Market.Binance.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) monitorPairs() []monitor.Pair {
	pairs := make([]monitor.Pair, 0, len(a.Config.Pairs))
	for _, p := range a.Config.Pairs {
		pair := monitor.Pair{Name: p.Name, SymbolA: p.SymbolA, SymbolB: p.SymbolB}
		if p.VolumeMode() {
			pair.Volume = decimal.NewFromFloat(p.AnalysisVolume)
		}
		pairs = append(pairs, pair)
	}
	return pairs
}

func (a *App) monitorOptions() monitor.Options {
	return monitor.Options{
		CheckInterval:    a.Config.Monitor.CheckInterval,
		PeriodicInterval: a.Config.Monitor.PeriodicInterval,
		ChangeWindow:     a.Config.Monitor.ChangeWindow,
		FetchTimeout:     a.Config.Monitor.FetchTimeout,
		Parallelism:      a.Config.Monitor.Parallelism,
		BookDepth:        a.Config.Market.Binance.Depth,
		AlignTicks:       a.Config.Monitor.AlignTicks,
		StartupDelay:     a.Config.Monitor.StartupDelay,
	}
}

func (a *App) newDetector() *detector.Detector {
	return detector.New(a.Config.Monitor.ChangeThresholds, a.Config.Monitor.ChangeWindow, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if store != nil && a.Config.Database.RetentionDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -a.Config.Database.RetentionDays)
		if removed, pruneErr := store.DeleteSamplesBefore(ctx, cutoff); pruneErr != nil {
			a.Logger.Error().Err(pruneErr).Msg("startup sample retention cleanup failed")
		} else if removed > 0 {
			a.Logger.Info().Int64("removed", removed).Msg("pruned expired samples")
		}
		if removed, pruneErr := store.DeleteAlertsBefore(ctx, cutoff); pruneErr != nil {
			a.Logger.Error().Err(pruneErr).Msg("startup alert retention cleanup failed")
		} else if removed > 0 {
			a.Logger.Info().Int64("removed", removed).Msg("pruned expired alerts")
		}
	}

	var sampleStore storage.SampleStore
	var alertStore storage.AlertStore
	if store != nil {
		sampleStore = store
		alertStore = store
	}

	mon := monitor.New(a.monitorOptions(), a.monitorPairs(), a.newSource(), a.newDetector(), a.newNotifier(), sampleStore, alertStore, a.Logger)

	a.Logger.Info().Msg("starting monitoring service")
	err = mon.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// CheckOptions configure the one-shot ratio command.
type CheckOptions struct {
	Pair string // empty = all configured pairs
}

// SlippageOptions configure the one-shot depth analysis.
type SlippageOptions struct {
	Symbol string
	Volume float64
	Side   string
}

// HistoryOptions configure the stored-sample listing.
type HistoryOptions struct {
	Pair  string
	Limit int
}

// AlertsOptions configure the stored-alert listing.
type AlertsOptions struct {
	Pair  string // empty = all pairs
	Limit int
}

// StatsOptions configure the per-pair aggregate report.
type StatsOptions struct {
	Pair  string
	Hours int
}

// ExportOptions hold parameters for exporting historical samples.
type ExportOptions struct {
	Pair      string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// SimulateOptions feed the alert pipeline with synthetic prices.
type SimulateOptions struct {
	Pair      string
	ChangePct float64
}
