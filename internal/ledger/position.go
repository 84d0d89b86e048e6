package ledger

import "time"

// Position is an open holding in one instrument.
// Quantity and EntryPrice are positive while the position is open.
type Position struct {
	ID         string
	Symbol     string
	EntryPrice float64
	Quantity   float64
	StopLoss   float64
	TakeProfit float64
	OpenedAt   time.Time
}

// CostBasis is the cash committed when the position was opened
func (p Position) CostBasis() float64 {
	return p.Quantity * p.EntryPrice
}

// MarketValue values the position at price
func (p Position) MarketValue(price float64) float64 {
	return p.Quantity * price
}

// Exit reasons reported on close events
const (
	ReasonSignal     = "signal"
	ReasonStopLoss   = "stop_loss"
	ReasonTakeProfit = "take_profit"
)

// Breach reports whether price has reached the stop-loss or take-profit level.
// A stop-loss touch wins when both levels are crossed.
func (p Position) Breach(price float64) (string, bool) {
	switch {
	case price <= p.StopLoss:
		return ReasonStopLoss, true
	case price >= p.TakeProfit:
		return ReasonTakeProfit, true
	default:
		return "", false
	}
}

// Closed describes a fully closed position
type Closed struct {
	Position  Position
	ExitPrice float64
	Proceeds  float64
	PnL       float64
	Reason    string
	ClosedAt  time.Time
}

// Return is the fractional return on cost basis
func (c Closed) Return() float64 {
	cost := c.Position.CostBasis()
	if cost == 0 {
		return 0
	}
	return c.PnL / cost
}
