// Package backtest replays historical bars through the live pipeline.
package backtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/trendbot/internal/collector"
	"github.com/newthinker/trendbot/internal/core"
	"github.com/newthinker/trendbot/internal/events"
	"github.com/newthinker/trendbot/internal/journal"
	"github.com/newthinker/trendbot/internal/ledger"
	"github.com/newthinker/trendbot/internal/risk"
	"github.com/newthinker/trendbot/internal/strategy"
	"github.com/newthinker/trendbot/internal/trader"
	"go.uber.org/zap"
)

// Config controls a backtest run
type Config struct {
	Tickers         []string
	Period          string
	Interval        string
	Window          int
	StartingBalance float64
	TargetBalance   float64
	RiskFraction    float64
}

// DefaultConfig matches the historical replay settings
func DefaultConfig() Config {
	return Config{
		Period:          "1y",
		Interval:        "1h",
		Window:          trader.DefaultWindow,
		StartingBalance: 1000,
		TargetBalance:   2000,
		RiskFraction:    0.03,
	}
}

// Backtester runs the strategy over every ticker in lockstep
type Backtester struct {
	collector collector.Collector
	strategy  strategy.Strategy
	cfg       Config
	logger    *zap.Logger
	sink      events.Sink
	journal   journal.Journal
	metrics   trader.Metrics
}

// Option configures a Backtester
type Option func(*Backtester)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Backtester) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithSink receives ledger events in addition to the trade journal
func WithSink(s events.Sink) Option {
	return func(b *Backtester) { b.sink = s }
}

// WithJournal records trades somewhere other than memory
func WithJournal(j journal.Journal) Option {
	return func(b *Backtester) {
		if j != nil {
			b.journal = j
		}
	}
}

// WithMetrics forwards pipeline metrics
func WithMetrics(m trader.Metrics) Option {
	return func(b *Backtester) { b.metrics = m }
}

// New creates a new Backtester loading bars from c
func New(c collector.Collector, strat strategy.Strategy, cfg Config, opts ...Option) *Backtester {
	if cfg.Window <= 0 {
		cfg.Window = trader.DefaultWindow
	}
	b := &Backtester{
		collector: c,
		strategy:  strat,
		cfg:       cfg,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.journal == nil {
		b.journal = journal.NewMemory()
	}
	return b
}

// simClock reports the time of the bar being evaluated
type simClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *simClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Run loads every ticker once, then advances one shared window start across
// all of them. The horizon is the shortest usable series. The run stops when
// the next window would pass the horizon or the balance exceeds the target.
func (b *Backtester) Run(ctx context.Context) (*Result, error) {
	if _, err := risk.Size(b.cfg.StartingBalance, 1, b.cfg.RiskFraction); err != nil {
		return nil, err
	}

	res := &Result{
		Strategy:        b.strategy.Name(),
		StartingBalance: b.cfg.StartingBalance,
	}

	var all []core.Series
	for _, symbol := range b.cfg.Tickers {
		s, err := collector.FetchSeries(ctx, b.collector, symbol, b.cfg.Period, b.cfg.Interval)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.logger.Warn("skipping ticker, fetch failed", zap.String("symbol", symbol), zap.Error(err))
			res.Skipped = append(res.Skipped, symbol)
			continue
		}
		if s.Len() < b.cfg.Window {
			b.logger.Warn("skipping ticker, not enough bars",
				zap.String("symbol", symbol),
				zap.Int("bars", s.Len()),
				zap.Int("window", b.cfg.Window),
			)
			res.Skipped = append(res.Skipped, symbol)
			continue
		}
		all = append(all, s)
		res.Symbols = append(res.Symbols, symbol)
	}
	if len(all) == 0 {
		return nil, core.Rejectf(core.ErrInsufficientData, "no ticker has %d bars", b.cfg.Window)
	}

	horizon := all[0].Len()
	for _, s := range all[1:] {
		horizon = min(horizon, s.Len())
	}

	clock := &simClock{}
	sinks := events.Multi{journal.NewSink(b.journal, b.logger), b.sink}
	l := ledger.New(b.cfg.StartingBalance,
		ledger.WithSink(sinks),
		ledger.WithClock(clock.Now),
		ledger.WithLogger(b.logger),
	)
	p := trader.New(b.strategy, l, risk.NewSizer(risk.Config{RiskFraction: b.cfg.RiskFraction}),
		trader.WithWindow(b.cfg.Window),
		trader.WithLogger(b.logger),
		trader.WithMetrics(b.metrics),
	)

	b.logger.Info("backtest starting",
		zap.Strings("symbols", res.Symbols),
		zap.Int("horizon", horizon),
		zap.Int("window", b.cfg.Window),
		zap.Float64("balance", b.cfg.StartingBalance),
	)

	res.StopReason = StopExhausted
	lastClose := make(map[string]float64, len(all))

	for start := 0; start+b.cfg.Window < horizon; start++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, s := range all {
			window, err := s.Window(start, b.cfg.Window)
			if err != nil {
				return nil, fmt.Errorf("slicing %s at %d: %w", s.Symbol, start, err)
			}
			last, _ := window.Last()
			clock.Set(last.Time)
			lastClose[s.Symbol] = last.Close

			if res.StartDate.IsZero() || last.Time.Before(res.StartDate) {
				res.StartDate = last.Time
			}
			if last.Time.After(res.EndDate) {
				res.EndDate = last.Time
			}

			if step := p.Step(ctx, window); step.Err != nil {
				b.logger.Warn("step failed", zap.String("symbol", s.Symbol), zap.Int("start", start), zap.Error(step.Err))
			}
		}
		res.Steps++

		if l.Balance() > b.cfg.TargetBalance {
			res.StopReason = StopTarget
			break
		}
	}

	trades, err := b.journal.Trades(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading trades: %w", err)
	}

	res.FinalBalance = l.Balance()
	res.Equity = l.Equity(lastClose)
	res.OpenPositions = l.Positions()
	res.Trades = trades
	res.Stats = CalculateStats(trades)
	res.Summary = journal.Summarize(trades)

	b.logger.Info("backtest finished",
		zap.Int("steps", res.Steps),
		zap.Int("trades", len(trades)),
		zap.Float64("final_balance", res.FinalBalance),
		zap.String("stop_reason", res.StopReason),
	)
	return res, nil
}
