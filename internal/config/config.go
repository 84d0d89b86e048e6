package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/newthinker/trendbot/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Trading   TradingConfig   `mapstructure:"trading"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Market    MarketConfig    `mapstructure:"market"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Events    EventsConfig    `mapstructure:"events"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Collector CollectorConfig `mapstructure:"collector"`
	Log       LogConfig       `mapstructure:"log"`
}

type TradingConfig struct {
	StartingBalance float64  `mapstructure:"starting_balance"`
	TargetBalance   float64  `mapstructure:"target_balance"`
	Period          string   `mapstructure:"period"`
	Interval        string   `mapstructure:"interval"`
	Tickers         []string `mapstructure:"tickers"`
	// StopLoss is a flat fractional stop kept for configuration compatibility;
	// exits use the ATR levels from the strategy.
	StopLoss        float64 `mapstructure:"stop_loss"`
	MaxRiskPerTrade float64 `mapstructure:"max_risk_per_trade"`
	BacktestRisk    float64 `mapstructure:"backtest_risk"`
	Window          int     `mapstructure:"window"`
}

type StrategyConfig struct {
	EMAFast     int     `mapstructure:"ema_fast"`
	EMASlow     int     `mapstructure:"ema_slow"`
	RSIPeriod   int     `mapstructure:"rsi_period"`
	ATRPeriod   int     `mapstructure:"atr_period"`
	RSIBuy      float64 `mapstructure:"rsi_buy"`
	RSISell     float64 `mapstructure:"rsi_sell"`
	StopATRMult float64 `mapstructure:"stop_atr_mult"`
	TakeATRMult float64 `mapstructure:"take_atr_mult"`
}

type MarketConfig struct {
	Timezone   string `mapstructure:"timezone"`
	Open       string `mapstructure:"open"`
	Close      string `mapstructure:"close"`
	AlwaysOpen bool   `mapstructure:"always_open"`
}

type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs", "s3" or "none"
	Path string   `mapstructure:"path"` // For localfs
	Key  string   `mapstructure:"key"`  // Snapshot object name
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type JournalConfig struct {
	Type string `mapstructure:"type"` // "sqlite", "memory" or "none"
	Path string `mapstructure:"path"`
}

type EventsConfig struct {
	Webhook WebhookConfig `mapstructure:"webhook"`
}

type WebhookConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

type CollectorConfig struct {
	Provider string `mapstructure:"provider"` // "yahoo" or "csv"
	CSVDir   string `mapstructure:"csv_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // "json" or "console"; empty follows --debug
}

// Load reads configuration from file on top of Defaults. An empty path
// loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides, e.g. TRENDBOT_TRADING_TARGET_BALANCE
	v.SetEnvPrefix("trendbot")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("trading.starting_balance", d.Trading.StartingBalance)
	v.SetDefault("trading.target_balance", d.Trading.TargetBalance)
	v.SetDefault("trading.period", d.Trading.Period)
	v.SetDefault("trading.interval", d.Trading.Interval)
	v.SetDefault("trading.tickers", d.Trading.Tickers)
	v.SetDefault("trading.stop_loss", d.Trading.StopLoss)
	v.SetDefault("trading.max_risk_per_trade", d.Trading.MaxRiskPerTrade)
	v.SetDefault("trading.backtest_risk", d.Trading.BacktestRisk)
	v.SetDefault("trading.window", d.Trading.Window)

	v.SetDefault("strategy.ema_fast", d.Strategy.EMAFast)
	v.SetDefault("strategy.ema_slow", d.Strategy.EMASlow)
	v.SetDefault("strategy.rsi_period", d.Strategy.RSIPeriod)
	v.SetDefault("strategy.atr_period", d.Strategy.ATRPeriod)
	v.SetDefault("strategy.rsi_buy", d.Strategy.RSIBuy)
	v.SetDefault("strategy.rsi_sell", d.Strategy.RSISell)
	v.SetDefault("strategy.stop_atr_mult", d.Strategy.StopATRMult)
	v.SetDefault("strategy.take_atr_mult", d.Strategy.TakeATRMult)

	v.SetDefault("market.timezone", d.Market.Timezone)
	v.SetDefault("market.open", d.Market.Open)
	v.SetDefault("market.close", d.Market.Close)
	v.SetDefault("market.always_open", d.Market.AlwaysOpen)

	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.key", d.Storage.Key)
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.prefix", "")

	v.SetDefault("journal.type", d.Journal.Type)
	v.SetDefault("journal.path", d.Journal.Path)

	v.SetDefault("events.webhook.enabled", false)
	v.SetDefault("events.webhook.url", "")

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.listen", d.Metrics.Listen)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("collector.provider", d.Collector.Provider)
	v.SetDefault("collector.csv_dir", d.Collector.CSVDir)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Trading: TradingConfig{
			StartingBalance: 1000,
			TargetBalance:   2000,
			Period:          "3mo",
			Interval:        "1h",
			Tickers:         []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"},
			StopLoss:        0.02,
			MaxRiskPerTrade: 0.02,
			BacktestRisk:    0.03,
			Window:          200,
		},
		Strategy: StrategyConfig{
			EMAFast:     50,
			EMASlow:     200,
			RSIPeriod:   14,
			ATRPeriod:   14,
			RSIBuy:      40,
			RSISell:     60,
			StopATRMult: 1.5,
			TakeATRMult: 2.5,
		},
		Market: MarketConfig{
			Timezone: "America/New_York",
			Open:     "09:30",
			Close:    "16:00",
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "data",
			Key:  "wallet.json",
		},
		Journal: JournalConfig{
			Type: "sqlite",
			Path: "data/trades.db",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9090",
			Path:    "/metrics",
		},
		Collector: CollectorConfig{
			Provider: "yahoo",
			CSVDir:   "data/csv",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf(format, args...))
	}
	missing := func(format string, args ...any) error {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf(format, args...))
	}

	// Trading validation
	t := c.Trading
	if t.StartingBalance <= 0 {
		return invalid("starting_balance must be positive, got %f", t.StartingBalance)
	}
	if t.TargetBalance <= 0 {
		return invalid("target_balance must be positive, got %f", t.TargetBalance)
	}
	if len(t.Tickers) == 0 {
		return missing("trading.tickers must list at least one symbol")
	}
	for _, risk := range []struct {
		name  string
		value float64
	}{
		{"max_risk_per_trade", t.MaxRiskPerTrade},
		{"backtest_risk", t.BacktestRisk},
	} {
		if risk.value <= 0 || risk.value > 1 {
			return invalid("%s must be in (0, 1], got %f", risk.name, risk.value)
		}
	}
	if t.StopLoss < 0 || t.StopLoss >= 1 {
		return invalid("stop_loss must be in [0, 1), got %f", t.StopLoss)
	}
	if t.Window <= 0 {
		return invalid("window must be positive, got %d", t.Window)
	}
	if t.Period == "" || t.Interval == "" {
		return missing("trading.period and trading.interval are required")
	}

	// Strategy validation
	s := c.Strategy
	if s.EMAFast <= 0 || s.EMASlow <= 0 || s.RSIPeriod <= 0 || s.ATRPeriod <= 0 {
		return invalid("strategy periods must be positive")
	}
	if s.RSIBuy < 0 || s.RSISell > 100 || s.RSIBuy > s.RSISell {
		return invalid("rsi thresholds must satisfy 0 <= rsi_buy <= rsi_sell <= 100, got %f/%f", s.RSIBuy, s.RSISell)
	}
	if s.StopATRMult <= 0 || s.TakeATRMult <= 0 {
		return invalid("atr multipliers must be positive")
	}
	if need := max(s.EMASlow, s.RSIPeriod+1, s.ATRPeriod+1); t.Window < need {
		return invalid("window %d is shorter than the %d bars the strategy needs", t.Window, need)
	}

	// Storage validation
	switch c.Storage.Type {
	case "localfs":
		if c.Storage.Path == "" {
			return missing("storage.path required for localfs")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return missing("storage.s3.bucket required for s3")
		}
	case "none", "":
	default:
		return invalid("unknown storage type %q", c.Storage.Type)
	}

	// Journal validation
	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.Path == "" {
			return missing("journal.path required for sqlite")
		}
	case "memory", "none", "":
	default:
		return invalid("unknown journal type %q", c.Journal.Type)
	}

	if c.Events.Webhook.Enabled && c.Events.Webhook.URL == "" {
		return missing("events.webhook.url required when webhook is enabled")
	}

	// Collector validation
	switch c.Collector.Provider {
	case "yahoo":
	case "csv":
		if c.Collector.CSVDir == "" {
			return missing("collector.csv_dir required for csv provider")
		}
	default:
		return invalid("unknown collector provider %q", c.Collector.Provider)
	}

	switch c.Log.Format {
	case "", "json", "console":
	default:
		return invalid("unknown log format %q", c.Log.Format)
	}

	return nil
}
