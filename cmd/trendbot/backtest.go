package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/newthinker/trendbot/internal/backtest"
	"github.com/newthinker/trendbot/internal/collector/csvfile"
	"github.com/newthinker/trendbot/internal/config"
	"github.com/newthinker/trendbot/internal/events"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	backtestCSVDir   string
	backtestPeriod   string
	backtestInterval string
	backtestTickers  []string
	backtestJournal  bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical bars through the strategy",
	Long: `Load the full history of every ticker once, then slide one window across
all of them in lockstep, trading a fresh ledger with trading.backtest_risk.
Prints the final balance and performance statistics.`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestCSVDir, "csv-dir", "", "read bars from <dir>/<SYMBOL>.csv instead of the configured collector")
	backtestCmd.Flags().StringVar(&backtestPeriod, "period", "", "history to load (default trading.period)")
	backtestCmd.Flags().StringVar(&backtestInterval, "interval", "", "bar interval (default trading.interval)")
	backtestCmd.Flags().StringSliceVar(&backtestTickers, "tickers", nil, "tickers to replay (default trading.tickers)")
	backtestCmd.Flags().BoolVar(&backtestJournal, "journal", false, "also record trades in the configured journal")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	strat, err := newStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	coll, err := newCollector(cfg.Collector)
	if err != nil {
		return err
	}
	if backtestCSVDir != "" {
		coll = csvfile.New(backtestCSVDir)
	}

	btCfg := backtestConfig(cfg, backtestPeriod, backtestInterval, backtestTickers)

	opts := []backtest.Option{
		backtest.WithLogger(log.Named("backtest")),
		backtest.WithSink(events.NewLogSink(log.Named("events"))),
	}
	if backtestJournal {
		j, err := newJournal(cfg.Journal)
		if err != nil {
			return err
		}
		if j != nil {
			defer j.Close()
			opts = append(opts, backtest.WithJournal(j))
		}
	}

	log.Info("running backtest",
		zap.String("strategy", strat.Name()),
		zap.String("collector", coll.Name()),
		zap.Strings("tickers", btCfg.Tickers),
		zap.String("period", btCfg.Period),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := backtest.New(coll, strat, btCfg, opts...).Run(ctx)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	printResult(cmd.OutOrStdout(), res)
	return nil
}

// backtestConfig takes the trading section and applies non-empty flag overrides.
func backtestConfig(cfg *config.Config, period, interval string, tickers []string) backtest.Config {
	c := backtest.Config{
		Tickers:         cfg.Trading.Tickers,
		Period:          cfg.Trading.Period,
		Interval:        cfg.Trading.Interval,
		Window:          cfg.Trading.Window,
		StartingBalance: cfg.Trading.StartingBalance,
		TargetBalance:   cfg.Trading.TargetBalance,
		RiskFraction:    cfg.Trading.BacktestRisk,
	}
	if period != "" {
		c.Period = period
	}
	if interval != "" {
		c.Interval = interval
	}
	if len(tickers) > 0 {
		c.Tickers = tickers
	}
	return c
}
