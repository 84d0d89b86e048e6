package trend_rsi

import (
	"fmt"
	"math"
	"time"

	"github.com/newthinker/trendbot/internal/core"
	"github.com/newthinker/trendbot/internal/indicator"
)

// Params holds the tunable thresholds of the strategy
type Params struct {
	EMAFast     int
	EMASlow     int
	RSIPeriod   int
	ATRPeriod   int
	RSIBuy      float64 // buy below this RSI in an uptrend
	RSISell     float64 // sell above this RSI in a downtrend
	StopATRMult float64
	TakeATRMult float64
}

// DefaultParams returns the stock 50/200 EMA, RSI(14) 40/60, ATR(14) 1.5/2.5 setup
func DefaultParams() Params {
	return Params{
		EMAFast:     50,
		EMASlow:     200,
		RSIPeriod:   14,
		ATRPeriod:   14,
		RSIBuy:      40,
		RSISell:     60,
		StopATRMult: 1.5,
		TakeATRMult: 2.5,
	}
}

// Validate checks that all periods are positive and thresholds ordered
func (p Params) Validate() error {
	if p.EMAFast <= 0 || p.EMASlow <= 0 || p.RSIPeriod <= 0 || p.ATRPeriod <= 0 {
		return fmt.Errorf("periods must be positive: ema %d/%d rsi %d atr %d",
			p.EMAFast, p.EMASlow, p.RSIPeriod, p.ATRPeriod)
	}
	if p.RSIBuy < 0 || p.RSISell > 100 || p.RSIBuy > p.RSISell {
		return fmt.Errorf("rsi thresholds must satisfy 0 <= buy <= sell <= 100, got %.1f/%.1f", p.RSIBuy, p.RSISell)
	}
	if p.StopATRMult <= 0 || p.TakeATRMult <= 0 {
		return fmt.Errorf("atr multipliers must be positive, got %.2f/%.2f", p.StopATRMult, p.TakeATRMult)
	}
	return nil
}

// TrendRSI buys RSI pullbacks in an EMA uptrend and sells RSI rallies in an
// EMA downtrend, placing stop-loss and take-profit a multiple of ATR away.
type TrendRSI struct {
	params Params
	now    func() time.Time
}

// New creates a new TrendRSI strategy
func New(params Params) *TrendRSI {
	return &TrendRSI{params: params, now: time.Now}
}

func (s *TrendRSI) Name() string {
	return "trend_rsi"
}

func (s *TrendRSI) Description() string {
	return fmt.Sprintf("EMA%d/EMA%d trend with RSI(%d) %.0f/%.0f and ATR(%d) exits",
		s.params.EMAFast, s.params.EMASlow, s.params.RSIPeriod,
		s.params.RSIBuy, s.params.RSISell, s.params.ATRPeriod)
}

func (s *TrendRSI) RequiredBars() int {
	return max(s.params.EMASlow, s.params.RSIPeriod, s.params.ATRPeriod)
}

// Params returns the active parameters
func (s *TrendRSI) Params() Params {
	return s.params
}

func (s *TrendRSI) Evaluate(window core.Series) core.Signal {
	if window.Len() == 0 || window.Len() < s.RequiredBars() {
		return core.Hold(window.Symbol, fmt.Sprintf("need %d bars, have %d", s.RequiredBars(), window.Len()))
	}

	closes := window.Closes()
	fast, _ := indicator.Last(indicator.EMA(closes, s.params.EMAFast))
	slow, _ := indicator.Last(indicator.EMA(closes, s.params.EMASlow))
	rsi, rsiOK := indicator.RSI(window.Bars, s.params.RSIPeriod)
	atr, atrOK := indicator.ATR(window.Bars, s.params.ATRPeriod)

	// A non-finite reading means a bad bar slipped in; treat it as undefined.
	rsiOK = rsiOK && finite(rsi)
	atrOK = atrOK && finite(atr)

	last := closes[len(closes)-1]
	if !finite(last) || !finite(fast) || !finite(slow) {
		return core.Hold(window.Symbol, "non-finite price data")
	}
	meta := map[string]any{
		"ema_fast": fast,
		"ema_slow": slow,
	}
	if rsiOK {
		meta["rsi"] = rsi
	}
	if atrOK {
		meta["atr"] = atr
	}

	// Equal EMAs are neither trend.
	switch {
	case fast > slow && rsiOK && atrOK && rsi < s.params.RSIBuy:
		return core.Signal{
			Symbol:      window.Symbol,
			Action:      core.ActionBuy,
			Price:       last,
			StopLoss:    last - s.params.StopATRMult*atr,
			TakeProfit:  last + s.params.TakeATRMult*atr,
			Reason:      fmt.Sprintf("uptrend EMA%d %.2f > EMA%d %.2f, RSI %.1f < %.0f", s.params.EMAFast, fast, s.params.EMASlow, slow, rsi, s.params.RSIBuy),
			Strategy:    s.Name(),
			Metadata:    meta,
			GeneratedAt: s.now(),
		}
	case fast < slow && rsiOK && atrOK && rsi > s.params.RSISell:
		return core.Signal{
			Symbol:      window.Symbol,
			Action:      core.ActionSell,
			Price:       last,
			StopLoss:    last + s.params.StopATRMult*atr,
			TakeProfit:  last - s.params.TakeATRMult*atr,
			Reason:      fmt.Sprintf("downtrend EMA%d %.2f < EMA%d %.2f, RSI %.1f > %.0f", s.params.EMAFast, fast, s.params.EMASlow, slow, rsi, s.params.RSISell),
			Strategy:    s.Name(),
			Metadata:    meta,
			GeneratedAt: s.now(),
		}
	}

	sig := core.Hold(window.Symbol, "no setup")
	sig.Price = last
	sig.Strategy = s.Name()
	sig.Metadata = meta
	sig.GeneratedAt = s.now()
	return sig
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
