package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"ratio-alerts/internal/logging"
)

// Market data providers.
const (
	ProviderBinance   = "binance"
	ProviderChainlink = "chainlink"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Market   MarketConfig   `mapstructure:"market"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Export   ExportConfig   `mapstructure:"export"`
	Pairs    []PairConfig   `mapstructure:"pairs"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity and retention.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	RetentionDays   int           `mapstructure:"retention_days"`
}

// MonitorConfig governs sampling cadence and change detection.
type MonitorConfig struct {
	CheckInterval    time.Duration `mapstructure:"check_interval"`
	PeriodicInterval time.Duration `mapstructure:"periodic_interval"`
	ChangeWindow     time.Duration `mapstructure:"change_window"`
	ChangeThresholds []float64     `mapstructure:"change_thresholds"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	Parallelism      int           `mapstructure:"parallelism"`
	AlignTicks       bool          `mapstructure:"align_ticks"`
	StartupDelay     time.Duration `mapstructure:"startup_delay"`
}

// MarketConfig selects and tunes the market data provider.
type MarketConfig struct {
	Provider  string          `mapstructure:"provider"`
	Binance   BinanceConfig   `mapstructure:"binance"`
	Chainlink ChainlinkConfig `mapstructure:"chainlink"`
}

// BinanceConfig covers the Binance REST API.
type BinanceConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
	Depth     int    `mapstructure:"depth"`
}

// ChainlinkConfig covers on-chain aggregator feeds.
type ChainlinkConfig struct {
	RPCURL string            `mapstructure:"rpc_url"`
	Feeds  map[string]string `mapstructure:"feeds"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// PairConfig declares one monitored ratio pair.
type PairConfig struct {
	Name           string  `mapstructure:"name"`
	SymbolA        string  `mapstructure:"symbol_a"`
	SymbolB        string  `mapstructure:"symbol_b"`
	AnalysisVolume float64 `mapstructure:"analysis_volume"`
}

// VolumeMode reports whether the pair uses depth-adjusted ratios.
func (p PairConfig) VolumeMode() bool {
	return p.AnalysisVolume > 0
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RATIOWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ratiowatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("monitor.check_interval", "1m")
	v.SetDefault("monitor.periodic_interval", "1h")
	v.SetDefault("monitor.change_window", "5m")
	v.SetDefault("monitor.change_thresholds", []float64{5, 10, 15, 20})
	v.SetDefault("monitor.fetch_timeout", "10s")
	v.SetDefault("monitor.parallelism", 4)
	v.SetDefault("monitor.align_ticks", false)
	v.SetDefault("monitor.startup_delay", "0s")

	v.SetDefault("market.provider", ProviderBinance)
	v.SetDefault("market.binance.base_url", "https://api.binance.com/api/v3")
	v.SetDefault("market.binance.user_agent", "ratiowatcher/1.0")
	v.SetDefault("market.binance.depth", 100)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.retention_days", 30)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs the startup sanity checks. Failures here are fatal
// before the monitor loop begins.
func (c *Config) Validate() error {
	if c.Monitor.CheckInterval <= 0 {
		return fmt.Errorf("monitor.check_interval must be greater than zero")
	}
	if c.Monitor.PeriodicInterval <= 0 {
		return fmt.Errorf("monitor.periodic_interval must be greater than zero")
	}
	if c.Monitor.ChangeWindow <= 0 {
		return fmt.Errorf("monitor.change_window must be greater than zero")
	}
	if c.Monitor.ChangeWindow <= c.Monitor.CheckInterval {
		return fmt.Errorf("monitor.change_window must exceed monitor.check_interval")
	}
	if c.Monitor.FetchTimeout <= 0 {
		return fmt.Errorf("monitor.fetch_timeout must be greater than zero")
	}
	if len(c.Monitor.ChangeThresholds) == 0 {
		return fmt.Errorf("monitor.change_thresholds must not be empty")
	}
	for _, t := range c.Monitor.ChangeThresholds {
		if t <= 0 {
			return fmt.Errorf("monitor.change_thresholds entries must be positive, got %v", t)
		}
	}

	switch c.Market.Provider {
	case ProviderBinance:
	case ProviderChainlink:
		if c.Market.Chainlink.RPCURL == "" {
			return fmt.Errorf("market.chainlink.rpc_url 必须配置")
		}
	default:
		return fmt.Errorf("market.provider must be %q or %q, got %q", ProviderBinance, ProviderChainlink, c.Market.Provider)
	}

	if len(c.Pairs) == 0 {
		return fmt.Errorf("at least one ratio pair must be configured")
	}
	seen := make(map[string]struct{}, len(c.Pairs))
	for _, pair := range c.Pairs {
		if pair.Name == "" {
			return fmt.Errorf("pair name cannot be empty")
		}
		if _, dup := seen[pair.Name]; dup {
			return fmt.Errorf("duplicate pair name: %s", pair.Name)
		}
		seen[pair.Name] = struct{}{}
		if pair.SymbolA == "" || pair.SymbolB == "" {
			return fmt.Errorf("symbols cannot be empty in ratio pair: %s", pair.Name)
		}
		if pair.AnalysisVolume < 0 {
			return fmt.Errorf("analysis_volume cannot be negative in ratio pair: %s", pair.Name)
		}
		if pair.VolumeMode() && c.Market.Provider == ProviderChainlink {
			return fmt.Errorf("pair %s uses volume mode but provider %q serves no order books", pair.Name, c.Market.Provider)
		}
	}

	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Database.RetentionDays < 0 {
		return fmt.Errorf("database.retention_days cannot be negative")
	}

	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

// FindPair looks up a configured pair by name.
func (c *Config) FindPair(name string) (PairConfig, bool) {
	for _, pair := range c.Pairs {
		if pair.Name == name {
			return pair, true
		}
	}
	return PairConfig{}, false
}
