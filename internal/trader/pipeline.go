// Package trader runs the per-instrument decision pipeline shared by the
// live and backtest drivers.
package trader

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/newthinker/trendbot/internal/core"
	"github.com/newthinker/trendbot/internal/ledger"
	"github.com/newthinker/trendbot/internal/risk"
	"github.com/newthinker/trendbot/internal/strategy"
	"go.uber.org/zap"
)

// DefaultWindow is the minimum number of bars before an instrument is evaluated
const DefaultWindow = 200

// Metrics observes pipeline activity
type Metrics interface {
	RecordSignal(action string)
	ObserveStep(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordSignal(string)       {}
func (nopMetrics) ObserveStep(time.Duration) {}

// StepResult reports what one step did for one instrument
type StepResult struct {
	Symbol     string
	Signal     core.Signal
	AutoClosed *ledger.Closed
	Opened     *ledger.Position
	Closed     *ledger.Closed
	// Skipped explains why nothing was evaluated
	Skipped string
	// Rejected holds an expected refusal such as insufficient funds
	Rejected error
	// Err is an unexpected failure, including a recovered panic
	Err error
}

// Traded reports whether the step changed the ledger
func (r StepResult) Traded() bool {
	return r.AutoClosed != nil || r.Opened != nil || r.Closed != nil
}

// Pipeline evaluates one instrument at a time against a shared ledger
type Pipeline struct {
	strategy strategy.Strategy
	ledger   *ledger.Ledger
	sizer    *risk.Sizer
	window   int
	logger   *zap.Logger
	metrics  Metrics
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records signals and step latency
func WithMetrics(m Metrics) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithWindow overrides DefaultWindow
func WithWindow(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.window = n
		}
	}
}

// New creates a pipeline trading strat against l with the given sizer
func New(strat strategy.Strategy, l *ledger.Ledger, sizer *risk.Sizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		strategy: strat,
		ledger:   l,
		sizer:    sizer,
		window:   DefaultWindow,
		logger:   zap.NewNop(),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Window returns the minimum series length evaluated
func (p *Pipeline) Window() int {
	return p.window
}

// Ledger returns the ledger the pipeline trades against
func (p *Pipeline) Ledger() *ledger.Ledger {
	return p.ledger
}

// Step runs auto-close, evaluation and execution for series.Symbol.
// Rejections and panics are reported in the result, never propagated.
func (p *Pipeline) Step(ctx context.Context, series core.Series) (res StepResult) {
	res.Symbol = series.Symbol
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic evaluating %s: %v", series.Symbol, r)
			p.logger.Error("pipeline step panicked",
				zap.String("symbol", series.Symbol),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
		p.metrics.ObserveStep(time.Since(start))
	}()

	if series.Len() < p.window {
		res.Skipped = fmt.Sprintf("%d bars, need %d", series.Len(), p.window)
		p.logger.Debug("not enough bars",
			zap.String("symbol", series.Symbol),
			zap.Int("bars", series.Len()),
			zap.Int("window", p.window),
		)
		return res
	}
	last, _ := series.Last()

	closed, ok, err := p.ledger.CheckAutoClose(ctx, series.Symbol, last)
	if err != nil {
		res.Err = err
		return res
	}
	if ok {
		res.AutoClosed = &closed
	}

	sig := p.strategy.Evaluate(series)
	res.Signal = sig
	p.metrics.RecordSignal(string(sig.Action))

	switch sig.Action {
	case core.ActionBuy:
		p.buy(ctx, &res, sig, last)
	case core.ActionSell:
		p.sell(ctx, &res, last)
	}
	return res
}

func (p *Pipeline) buy(ctx context.Context, res *StepResult, sig core.Signal, last core.Bar) {
	if _, open := p.ledger.Position(sig.Symbol); open {
		return
	}

	qty, err := p.sizer.Size(p.ledger.Balance(), last.Close)
	if err != nil {
		p.reject(res, err)
		return
	}

	pos, err := p.ledger.Buy(ctx, ledger.Order{
		Symbol:     sig.Symbol,
		Quantity:   qty,
		Price:      last.Close,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
	})
	if err != nil {
		p.reject(res, err)
		return
	}
	res.Opened = &pos
}

func (p *Pipeline) sell(ctx context.Context, res *StepResult, last core.Bar) {
	if _, open := p.ledger.Position(res.Symbol); !open {
		return
	}
	closed, err := p.ledger.Sell(ctx, res.Symbol, last.Close)
	if err != nil {
		p.reject(res, err)
		return
	}
	res.Closed = &closed
}

func (p *Pipeline) reject(res *StepResult, err error) {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		res.Err = err
		p.logger.Error("order failed", zap.String("symbol", res.Symbol), zap.Error(err))
		return
	}
	res.Rejected = err
	p.logger.Info("order rejected",
		zap.String("symbol", res.Symbol),
		zap.String("code", coreErr.Code),
		zap.Error(err),
	)
}
