package events

import "go.uber.org/zap"

// LogSink writes events as structured zap entries
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink; a nil logger discards output
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("ledger")}
}

func (s *LogSink) Emit(e Event) {
	fields := []zap.Field{
		zap.String("kind", string(e.Kind)),
		zap.Float64("balance", e.Balance),
	}
	if e.Symbol != "" {
		fields = append(fields, zap.String("symbol", e.Symbol))
	}
	if e.PositionID != "" {
		fields = append(fields, zap.String("position_id", e.PositionID))
	}

	switch e.Kind {
	case KindBought:
		fields = append(fields,
			zap.Float64("quantity", e.Quantity),
			zap.Float64("price", e.Price),
			zap.Float64("stop_loss", e.StopLoss),
			zap.Float64("take_profit", e.TakeProfit),
		)
		s.logger.Info("position opened", fields...)
	case KindSold, KindAutoClosed:
		fields = append(fields,
			zap.Float64("quantity", e.Quantity),
			zap.Float64("price", e.Price),
			zap.Float64("entry_price", e.EntryPrice),
			zap.Float64("proceeds", e.Proceeds),
			zap.Float64("pnl", e.PnL),
		)
		if e.Reason != "" {
			fields = append(fields, zap.String("reason", e.Reason))
		}
		s.logger.Info("position closed", fields...)
	case KindPersistFailed:
		s.logger.Warn("ledger snapshot not saved", append(fields, zap.String("reason", e.Reason))...)
	default:
		s.logger.Info("ledger event", fields...)
	}
}
