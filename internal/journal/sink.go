package journal

import (
	"context"

	"github.com/google/uuid"
	"github.com/newthinker/trendbot/internal/events"
	"go.uber.org/zap"
)

// Sink records every position close it receives as a Trade
type Sink struct {
	journal Journal
	logger  *zap.Logger
}

// NewSink wraps j as an events.Sink
func NewSink(j Journal, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{journal: j, logger: logger}
}

func (s *Sink) Emit(e events.Event) {
	if !e.IsClose() {
		return
	}
	t := TradeFromEvent(e)
	if err := s.journal.Record(context.Background(), t); err != nil {
		s.logger.Warn("trade not journaled",
			zap.String("symbol", e.Symbol),
			zap.String("position_id", e.PositionID),
			zap.Error(err),
		)
	}
}

// TradeFromEvent converts a close event into a Trade with a fresh ID
func TradeFromEvent(e events.Event) Trade {
	return Trade{
		ID:         uuid.NewString(),
		PositionID: e.PositionID,
		Symbol:     e.Symbol,
		Quantity:   e.Quantity,
		EntryPrice: e.EntryPrice,
		ExitPrice:  e.Price,
		OpenedAt:   e.OpenedAt,
		ClosedAt:   e.Time,
		PnL:        e.PnL,
		Reason:     e.Reason,
	}
}
