package core

import (
	"fmt"
	"math"
	"time"
)

// Bar represents one OHLCV candlestick for a fixed interval
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// IsValid checks if the bar has a timestamp and a positive close
func (b Bar) IsValid() bool {
	return !b.Time.IsZero() && b.Close > 0
}

// Finite reports whether every price and the volume is a real number
func (b Bar) Finite() bool {
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Series is an ordered sequence of bars for one instrument.
// Timestamps are strictly increasing.
type Series struct {
	Symbol   string
	Interval string // "1m", "1h", "1d"
	Bars     []Bar
}

// NewSeries validates ordering and values and returns a Series
func NewSeries(symbol, interval string, bars []Bar) (Series, error) {
	for i, b := range bars {
		if !b.Finite() {
			return Series{}, WrapError(ErrInvalidSeries,
				fmt.Errorf("%s: bar %d at %s has a non-finite value", symbol, i, b.Time.Format(time.RFC3339)))
		}
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return Series{}, WrapError(ErrInvalidSeries,
				fmt.Errorf("%s: bar %d at %s does not follow %s", symbol, i,
					bars[i].Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339)))
		}
	}
	return Series{Symbol: symbol, Interval: interval, Bars: bars}, nil
}

// Len returns the number of bars
func (s Series) Len() int {
	return len(s.Bars)
}

// Last returns the most recent bar
func (s Series) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes extracts closing prices
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Window returns at most size bars starting at start. The end is clamped
// to the series length; an out-of-range start or a non-positive size is an error.
func (s Series) Window(start, size int) (Series, error) {
	if len(s.Bars) == 0 {
		return Series{Symbol: s.Symbol, Interval: s.Interval}, nil
	}
	if start < 0 || start >= len(s.Bars) {
		return Series{}, fmt.Errorf("window start %d out of bounds [0, %d)", start, len(s.Bars))
	}
	if size <= 0 {
		return Series{}, fmt.Errorf("window size must be positive, got %d", size)
	}
	end := min(start+size, len(s.Bars))
	return Series{Symbol: s.Symbol, Interval: s.Interval, Bars: s.Bars[start:end]}, nil
}

// Action represents a trading signal action
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Signal represents a trading decision from a strategy.
// StopLoss and TakeProfit are only meaningful for buy and sell.
type Signal struct {
	Symbol      string
	Action      Action
	Price       float64 // Last close at evaluation
	StopLoss    float64
	TakeProfit  float64
	Reason      string
	Strategy    string
	Metadata    map[string]any
	GeneratedAt time.Time
}

// HasLevels reports whether the signal carries stop-loss and take-profit levels
func (s Signal) HasLevels() bool {
	return s.Action == ActionBuy || s.Action == ActionSell
}

// Hold returns a signal without levels
func Hold(symbol, reason string) Signal {
	return Signal{Symbol: symbol, Action: ActionHold, Reason: reason}
}
