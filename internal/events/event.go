// Package events carries ledger activity to observability sinks as data.
package events

import "time"

// Kind identifies what happened
type Kind string

const (
	KindBought        Kind = "bought"
	KindSold          Kind = "sold"
	KindAutoClosed    Kind = "auto_closed"
	KindPersistFailed Kind = "persist_failed"
)

// Event is a structured record of a ledger change.
// Fields that do not apply to a kind are left zero.
type Event struct {
	Kind       Kind      `json:"kind"`
	PositionID string    `json:"position_id,omitempty"`
	Symbol     string    `json:"symbol,omitempty"`
	Quantity   float64   `json:"quantity,omitempty"`
	Price      float64   `json:"price,omitempty"`
	EntryPrice float64   `json:"entry_price,omitempty"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	TakeProfit float64   `json:"take_profit,omitempty"`
	Proceeds   float64   `json:"proceeds,omitempty"`
	PnL        float64   `json:"pnl,omitempty"`
	Balance    float64   `json:"balance"`
	OpenedAt   time.Time `json:"opened_at,omitzero"`
	Reason     string    `json:"reason,omitempty"`
	Time       time.Time `json:"time"`
}

// IsClose reports whether the event closed a position
func (e Event) IsClose() bool {
	return e.Kind == KindSold || e.Kind == KindAutoClosed
}
