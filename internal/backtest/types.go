package backtest

import (
	"time"

	"github.com/newthinker/trendbot/internal/journal"
	"github.com/newthinker/trendbot/internal/ledger"
)

// Stop reasons
const (
	StopExhausted = "data_exhausted"
	StopTarget    = "target_reached"
)

// Result holds the complete backtest output
type Result struct {
	Strategy        string
	Symbols         []string
	Skipped         []string // symbols with too little history
	StartDate       time.Time
	EndDate         time.Time
	Steps           int
	StartingBalance float64
	FinalBalance    float64
	// Equity marks open positions at the last evaluated close
	Equity        float64
	OpenPositions []ledger.Position
	Trades        []journal.Trade
	Stats         Stats
	Summary       journal.Summary
	StopReason    string
}

// Stats holds performance statistics over closed trades
type Stats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // Percentage of profitable trades
	TotalReturn   float64 // Sum of per-trade returns, in percent
	MaxDrawdown   float64 // Largest peak-to-trough decline, in percent
	SharpeRatio   float64 // Per-trade Sharpe annualized by the observed trade rate
}

// BalanceReturn is the percentage change from starting to final balance
func (r *Result) BalanceReturn() float64 {
	if r.StartingBalance == 0 {
		return 0
	}
	return (r.FinalBalance - r.StartingBalance) / r.StartingBalance * 100
}
