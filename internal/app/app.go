// Package app drives the pipeline against live market data until the
// target balance is reached.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/trendbot/internal/collector"
	"github.com/newthinker/trendbot/internal/market"
	"github.com/newthinker/trendbot/internal/trader"
	"go.uber.org/zap"
)

// Config holds the live loop settings
type Config struct {
	Tickers       []string
	Period        string
	Interval      string
	TargetBalance float64
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// App is the live trading loop
type App struct {
	cfg       Config
	logger    *zap.Logger
	collector collector.Collector
	pipeline  *trader.Pipeline
	calendar  *market.Calendar
	sleep     Sleeper
	now       func() time.Time

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	cycles  int
	trades  int
}

// Option configures an App
type Option func(*App)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSleeper replaces the wait between cycles
func WithSleeper(s Sleeper) Option {
	return func(a *App) {
		if s != nil {
			a.sleep = s
		}
	}
}

// WithClock replaces time.Now for market-hours checks
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates a new App instance
func New(cfg Config, c collector.Collector, p *trader.Pipeline, cal *market.Calendar, opts ...Option) *App {
	a := &App{
		cfg:       cfg,
		logger:    zap.NewNop(),
		collector: c,
		pipeline:  p,
		calendar:  cal,
		sleep:     SleepContext,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TargetReached reports whether the ledger balance has reached the target
func (a *App) TargetReached() bool {
	return a.pipeline.Ledger().Balance() >= a.cfg.TargetBalance
}

// Run loops until the target balance is reached or ctx is cancelled. While
// the market is closed it waits for the next open; after each cycle it waits
// one bar interval.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	defer func() {
		cancel()
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	pause := market.IntervalDuration(a.cfg.Interval)
	a.logger.Info("trendbot starting",
		zap.Strings("tickers", a.cfg.Tickers),
		zap.String("interval", a.cfg.Interval),
		zap.Duration("pause", pause),
		zap.Float64("balance", a.pipeline.Ledger().Balance()),
		zap.Float64("target", a.cfg.TargetBalance),
	)

	for !a.TargetReached() {
		now := a.now()
		if !a.calendar.IsOpen(now) {
			wait := a.calendar.UntilOpen(now)
			a.logger.Info("market closed, waiting for open",
				zap.Duration("wait", wait),
				zap.Time("next_open", now.Add(wait)),
			)
			if err := a.sleep(ctx, wait); err != nil {
				a.logger.Info("trendbot shutting down")
				return err
			}
			continue
		}

		a.RunOnce(ctx)
		if a.TargetReached() {
			break
		}
		if err := a.sleep(ctx, pause); err != nil {
			a.logger.Info("trendbot shutting down")
			return err
		}
	}

	a.logger.Info("target balance reached",
		zap.Float64("balance", a.pipeline.Ledger().Balance()),
		zap.Float64("target", a.cfg.TargetBalance),
	)
	return nil
}

// Stop cancels a running loop
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// RunOnce fetches and steps every ticker once. A fetch failure skips that
// ticker for this cycle.
func (a *App) RunOnce(ctx context.Context) []trader.StepResult {
	results := make([]trader.StepResult, 0, len(a.cfg.Tickers))

	for _, symbol := range a.cfg.Tickers {
		if ctx.Err() != nil {
			break
		}

		series, err := collector.FetchSeries(ctx, a.collector, symbol, a.cfg.Period, a.cfg.Interval)
		if err != nil {
			a.logger.Warn("failed to fetch data",
				zap.String("symbol", symbol),
				zap.String("collector", a.collector.Name()),
				zap.Error(err),
			)
			continue
		}

		res := a.pipeline.Step(ctx, series)
		a.logStep(res)
		results = append(results, res)
	}

	a.mu.Lock()
	a.cycles++
	for _, r := range results {
		if r.Traded() {
			a.trades++
		}
	}
	a.mu.Unlock()

	return results
}

func (a *App) logStep(res trader.StepResult) {
	switch {
	case res.Err != nil:
		a.logger.Error("step failed", zap.String("symbol", res.Symbol), zap.Error(res.Err))
	case res.Skipped != "":
		a.logger.Debug("step skipped", zap.String("symbol", res.Symbol), zap.String("reason", res.Skipped))
	default:
		a.logger.Debug("step evaluated",
			zap.String("symbol", res.Symbol),
			zap.String("action", string(res.Signal.Action)),
			zap.Bool("traded", res.Traded()),
		)
	}
}

// Stats returns application statistics
func (a *App) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"running":   a.running,
		"tickers":   len(a.cfg.Tickers),
		"cycles":    a.cycles,
		"trades":    a.trades,
		"collector": a.collector.Name(),
		"balance":   a.pipeline.Ledger().Balance(),
	}
}
