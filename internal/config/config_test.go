package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			CheckInterval:    time.Minute,
			PeriodicInterval: time.Hour,
			ChangeWindow:     5 * time.Minute,
			ChangeThresholds: []float64{5, 10, 15, 20},
			FetchTimeout:     10 * time.Second,
			Parallelism:      4,
		},
		Market: MarketConfig{Provider: ProviderBinance},
		Export: ExportConfig{MaxDataPoints: 100000},
		Pairs: []PairConfig{
			{Name: "BTC/ETH", SymbolA: "BTCUSDT", SymbolB: "ETHUSDT"},
		},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero check interval",
			mutate:  func(c *Config) { c.Monitor.CheckInterval = 0 },
			wantErr: "check_interval",
		},
		{
			name:    "window not above check interval",
			mutate:  func(c *Config) { c.Monitor.ChangeWindow = time.Minute },
			wantErr: "change_window",
		},
		{
			name:    "empty thresholds",
			mutate:  func(c *Config) { c.Monitor.ChangeThresholds = nil },
			wantErr: "change_thresholds",
		},
		{
			name:    "negative threshold",
			mutate:  func(c *Config) { c.Monitor.ChangeThresholds = []float64{5, -10} },
			wantErr: "positive",
		},
		{
			name:    "zero fetch timeout",
			mutate:  func(c *Config) { c.Monitor.FetchTimeout = 0 },
			wantErr: "fetch_timeout",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Market.Provider = "kraken" },
			wantErr: "market.provider",
		},
		{
			name:    "chainlink without rpc url",
			mutate:  func(c *Config) { c.Market.Provider = ProviderChainlink },
			wantErr: "rpc_url",
		},
		{
			name:    "no pairs",
			mutate:  func(c *Config) { c.Pairs = nil },
			wantErr: "at least one",
		},
		{
			name: "duplicate pair name",
			mutate: func(c *Config) {
				c.Pairs = append(c.Pairs, PairConfig{Name: "BTC/ETH", SymbolA: "BTCUSDT", SymbolB: "ETHUSDT"})
			},
			wantErr: "duplicate pair name",
		},
		{
			name:    "empty symbol",
			mutate:  func(c *Config) { c.Pairs[0].SymbolB = "" },
			wantErr: "symbols cannot be empty",
		},
		{
			name:    "negative analysis volume",
			mutate:  func(c *Config) { c.Pairs[0].AnalysisVolume = -1 },
			wantErr: "analysis_volume",
		},
		{
			name: "volume mode on chainlink",
			mutate: func(c *Config) {
				c.Market.Provider = ProviderChainlink
				c.Market.Chainlink.RPCURL = "https://rpc.example.org"
				c.Pairs[0].AnalysisVolume = 100
			},
			wantErr: "no order books",
		},
		{
			name: "telegram enabled without token",
			mutate: func(c *Config) {
				c.Alerting.Telegram.Enabled = true
				c.Alerting.Telegram.ChatID = "42"
			},
			wantErr: "bot_token",
		},
		{
			name:    "zero export points",
			mutate:  func(c *Config) { c.Export.MaxDataPoints = 0 },
			wantErr: "max_data_points",
		},
		{
			name:    "negative retention",
			mutate:  func(c *Config) { c.Database.RetentionDays = -1 },
			wantErr: "retention_days",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q should mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestVolumeMode(t *testing.T) {
	if (PairConfig{AnalysisVolume: 0}).VolumeMode() {
		t.Fatal("zero volume should mean simple mode")
	}
	if !(PairConfig{AnalysisVolume: 100}).VolumeMode() {
		t.Fatal("positive volume should mean volume mode")
	}
}

func TestResolveMaxPoints(t *testing.T) {
	cfg := validConfig()
	if got := cfg.ResolveMaxPoints(0); got != 100000 {
		t.Fatalf("expected config default 100000, got %d", got)
	}
	if got := cfg.ResolveMaxPoints(500); got != 500 {
		t.Fatalf("expected CLI override 500, got %d", got)
	}
}

func TestFindPair(t *testing.T) {
	cfg := validConfig()
	if _, ok := cfg.FindPair("BTC/ETH"); !ok {
		t.Fatal("configured pair should be found")
	}
	if _, ok := cfg.FindPair("SOL/ETH"); ok {
		t.Fatal("unknown pair should not be found")
	}
}
