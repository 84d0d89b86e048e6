package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/trendbot/internal/app"
	"github.com/newthinker/trendbot/internal/config"
	"github.com/newthinker/trendbot/internal/events"
	"github.com/newthinker/trendbot/internal/journal"
	"github.com/newthinker/trendbot/internal/ledger"
	"github.com/newthinker/trendbot/internal/metrics"
	"github.com/newthinker/trendbot/internal/risk"
	"github.com/newthinker/trendbot/internal/trader"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Trade live until the target balance is reached",
	Long: `Poll market data for every configured ticker once per bar interval while
the market is open, trading against the persisted ledger. Stops when the
balance reaches trading.target_balance or on SIGINT/SIGTERM.`,
	RunE: runLive,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()

	j, err := newJournal(cfg.Journal)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	sink, closeSink, err := buildSink(cfg, log, reg, j)
	if err != nil {
		return err
	}
	defer closeSink()

	var persister ledger.Persister
	bp, err := newPersister(cfg.Storage)
	if err != nil {
		return err
	}
	if bp != nil {
		persister = bp
	}

	// A bad snapshot is logged by Restore and replaced by a fresh ledger.
	l, _ := ledger.Restore(ctx, persister, cfg.Trading.StartingBalance,
		ledger.WithSink(sink),
		ledger.WithLogger(log.Named("ledger")),
	)
	reg.SetBalance(l.Balance())

	strat, err := newStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	coll, err := newCollector(cfg.Collector)
	if err != nil {
		return err
	}
	cal, err := newCalendar(cfg.Market)
	if err != nil {
		return err
	}

	pipeline := trader.New(strat, l,
		risk.NewSizer(risk.Config{RiskFraction: cfg.Trading.MaxRiskPerTrade}),
		trader.WithLogger(log.Named("trader")),
		trader.WithMetrics(reg),
		trader.WithWindow(cfg.Trading.Window),
	)

	a := app.New(app.Config{
		Tickers:       cfg.Trading.Tickers,
		Period:        cfg.Trading.Period,
		Interval:      cfg.Trading.Interval,
		TargetBalance: cfg.Trading.TargetBalance,
	}, coll, pipeline, cal, app.WithLogger(log.Named("app")))

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path, reg, log)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	err = a.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("live loop: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Final balance: %s\n", money(l.Balance()))
	return nil
}

// buildSink fans ledger events out to the log, metrics, trade journal and
// optional webhook. The returned func flushes pending webhook deliveries.
func buildSink(cfg *config.Config, log *zap.Logger, reg *metrics.Registry, j journal.Journal) (events.Sink, func(), error) {
	sinks := events.Multi{
		events.NewLogSink(log.Named("events")),
		reg,
	}
	if j != nil {
		sinks = append(sinks, journal.NewSink(j, log.Named("journal")))
	}
	hook, err := newWebhook(cfg.Events.Webhook, log)
	if err != nil {
		return nil, nil, fmt.Errorf("creating webhook: %w", err)
	}
	if hook == nil {
		return sinks, func() {}, nil
	}
	sinks = append(sinks, hook)
	return sinks, func() { hook.Close() }, nil
}
