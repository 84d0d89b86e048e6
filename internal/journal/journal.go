// Package journal records closed trades for reporting and backtest results.
package journal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one fully closed position
type Trade struct {
	ID         string
	PositionID string
	Symbol     string
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	OpenedAt   time.Time
	ClosedAt   time.Time
	PnL        float64
	Reason     string
}

// Return is PnL as a fraction of the entry cost
func (t Trade) Return() float64 {
	cost := t.Quantity * t.EntryPrice
	if cost == 0 {
		return 0
	}
	return t.PnL / cost
}

// Journal stores closed trades in close order
type Journal interface {
	Record(ctx context.Context, t Trade) error
	Trades(ctx context.Context) ([]Trade, error)
	Close() error
}

// Summary aggregates realized results with fixed-point sums
type Summary struct {
	Count       int
	Wins        int
	Losses      int
	GrossProfit decimal.Decimal
	GrossLoss   decimal.Decimal
	NetPnL      decimal.Decimal
}

// Summarize totals trades. Breakeven trades count toward neither wins nor losses.
func Summarize(trades []Trade) Summary {
	s := Summary{
		GrossProfit: decimal.Zero,
		GrossLoss:   decimal.Zero,
		NetPnL:      decimal.Zero,
	}
	for _, t := range trades {
		pnl := decimal.NewFromFloat(t.PnL)
		s.Count++
		s.NetPnL = s.NetPnL.Add(pnl)
		switch {
		case pnl.IsPositive():
			s.Wins++
			s.GrossProfit = s.GrossProfit.Add(pnl)
		case pnl.IsNegative():
			s.Losses++
			s.GrossLoss = s.GrossLoss.Add(pnl.Abs())
		}
	}
	return s
}

// ProfitFactor is gross profit over gross loss, zero when there were no losses
func (s Summary) ProfitFactor() decimal.Decimal {
	if s.GrossLoss.IsZero() {
		return decimal.Zero
	}
	return s.GrossProfit.DivRound(s.GrossLoss, 4)
}
