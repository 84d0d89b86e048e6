package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/newthinker/trendbot/internal/collector"
	"github.com/newthinker/trendbot/internal/collector/csvfile"
	"github.com/newthinker/trendbot/internal/collector/yahoo"
	"github.com/newthinker/trendbot/internal/config"
	"github.com/newthinker/trendbot/internal/events/webhook"
	"github.com/newthinker/trendbot/internal/journal"
	"github.com/newthinker/trendbot/internal/ledger"
	"github.com/newthinker/trendbot/internal/logger"
	"github.com/newthinker/trendbot/internal/market"
	"github.com/newthinker/trendbot/internal/storage/blob"
	"github.com/newthinker/trendbot/internal/strategy/trend_rsi"
	"go.uber.org/zap"
)

// loadConfig reads cfgFile (or defaults) and validates the result.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	opts := logger.Options{
		Development: debug,
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
	}
	if debug {
		opts.Level = "debug"
	}
	return logger.New(opts)
}

// setup loads the config and builds the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg, debug)
	if err != nil {
		return nil, nil, err
	}
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}
	return cfg, log, nil
}

// newStorage returns the blob backend for the ledger snapshot, or nil when
// persistence is disabled.
func newStorage(cfg config.StorageConfig) (blob.Storage, error) {
	switch cfg.Type {
	case "localfs":
		return blob.NewLocalFS(cfg.Path)
	case "s3":
		return blob.NewS3(blob.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// newPersister wraps the configured storage; a nil Persister disables saving.
func newPersister(cfg config.StorageConfig) (*ledger.BlobPersister, error) {
	storage, err := newStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating storage: %w", err)
	}
	if storage == nil {
		return nil, nil
	}
	return ledger.NewBlobPersister(storage, cfg.Key), nil
}

func newJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating journal dir: %w", err)
			}
		}
		return journal.NewSQLite(cfg.Path)
	case "memory":
		return journal.NewMemory(), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
	}
}

// newCollector registers every provider and returns the configured one.
func newCollector(cfg config.CollectorConfig) (collector.Collector, error) {
	reg := collector.NewRegistry(yahoo.New())
	if cfg.CSVDir != "" {
		reg.Register(csvfile.New(cfg.CSVDir))
	}
	return reg.Lookup(cfg.Provider)
}

func newStrategy(cfg config.StrategyConfig) (*trend_rsi.TrendRSI, error) {
	params := trend_rsi.Params{
		EMAFast:     cfg.EMAFast,
		EMASlow:     cfg.EMASlow,
		RSIPeriod:   cfg.RSIPeriod,
		ATRPeriod:   cfg.ATRPeriod,
		RSIBuy:      cfg.RSIBuy,
		RSISell:     cfg.RSISell,
		StopATRMult: cfg.StopATRMult,
		TakeATRMult: cfg.TakeATRMult,
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("strategy params: %w", err)
	}
	return trend_rsi.New(params), nil
}

func newCalendar(cfg config.MarketConfig) (*market.Calendar, error) {
	return market.NewCalendar(market.Config{
		Timezone:   cfg.Timezone,
		Open:       cfg.Open,
		Close:      cfg.Close,
		AlwaysOpen: cfg.AlwaysOpen,
	})
}

// newWebhook returns the webhook sink, or nil when disabled.
func newWebhook(cfg config.WebhookConfig, log *zap.Logger) (*webhook.Webhook, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return webhook.New(cfg.URL, cfg.Headers, log.Named("webhook"))
}
