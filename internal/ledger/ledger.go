// Package ledger tracks a simulated cash balance and the open positions
// bought out of it.
package ledger

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/trendbot/internal/core"
	"github.com/newthinker/trendbot/internal/events"
	"go.uber.org/zap"
)

// Order is a request to open a position
type Order struct {
	Symbol     string
	Quantity   float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
}

// Ledger holds the cash balance and at most one open position per symbol.
// All mutations are serialized, so a Ledger may be shared between goroutines.
type Ledger struct {
	mu        sync.Mutex
	balance   float64
	positions map[string]*Position

	sink      events.Sink
	persister Persister
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Ledger
type Option func(*Ledger)

// WithSink sets the observability sink for ledger events
func WithSink(s events.Sink) Option {
	return func(l *Ledger) {
		if s != nil {
			l.sink = s
		}
	}
}

// WithPersister saves a snapshot after every buy and sell
func WithPersister(p Persister) Option {
	return func(l *Ledger) { l.persister = p }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides the time source used for open and close timestamps
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Ledger with the given starting balance
func New(balance float64, opts ...Option) *Ledger {
	l := &Ledger{
		balance:   balance,
		positions: make(map[string]*Position),
		sink:      events.Nop{},
		logger:    zap.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Balance returns the available cash
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Position returns a copy of the open position for symbol
func (l *Ledger) Position(symbol string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pos, ok := l.positions[symbol]; ok {
		return *pos, true
	}
	return Position{}, false
}

// Positions returns copies of all open positions ordered by symbol
func (l *Ledger) Positions() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.positionsLocked()
}

func (l *Ledger) positionsLocked() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Equity is cash plus open positions marked at prices. Positions without a
// price are carried at entry.
func (l *Ledger) Equity(prices map[string]float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := l.balance
	for sym, pos := range l.positions {
		if px, ok := prices[sym]; ok && px > 0 {
			total += pos.MarketValue(px)
		} else {
			total += pos.CostBasis()
		}
	}
	return total
}

// Buy opens a position, debiting Quantity*Price from the balance
func (l *Ledger) Buy(ctx context.Context, o Order) (Position, error) {
	if !validAmount(o.Quantity) || !validAmount(o.Price) {
		return Position{}, core.Rejectf(core.ErrInvalidOrder,
			"quantity and price must be greater than zero, got %v at %v", o.Quantity, o.Price)
	}
	if o.Symbol == "" {
		return Position{}, core.Rejectf(core.ErrInvalidOrder, "symbol is required")
	}
	if !finite(o.StopLoss) || !finite(o.TakeProfit) {
		return Position{}, core.Rejectf(core.ErrInvalidOrder,
			"%s stop-loss and take-profit must be finite, got %v/%v", o.Symbol, o.StopLoss, o.TakeProfit)
	}

	l.mu.Lock()

	if _, open := l.positions[o.Symbol]; open {
		l.mu.Unlock()
		return Position{}, core.Rejectf(core.ErrPositionAlreadyOpen, "%s", o.Symbol)
	}

	cost := o.Quantity * o.Price
	if cost > l.balance {
		balance := l.balance
		l.mu.Unlock()
		return Position{}, core.Rejectf(core.ErrInsufficientFunds,
			"%s costs %.2f, balance %.2f", o.Symbol, cost, balance)
	}

	l.balance -= cost
	pos := &Position{
		ID:         l.newID(),
		Symbol:     o.Symbol,
		EntryPrice: o.Price,
		Quantity:   o.Quantity,
		StopLoss:   o.StopLoss,
		TakeProfit: o.TakeProfit,
		OpenedAt:   l.now(),
	}
	l.positions[o.Symbol] = pos

	bought := events.Event{
		Kind:       events.KindBought,
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Quantity:   pos.Quantity,
		Price:      pos.EntryPrice,
		EntryPrice: pos.EntryPrice,
		StopLoss:   pos.StopLoss,
		TakeProfit: pos.TakeProfit,
		Balance:    l.balance,
		OpenedAt:   pos.OpenedAt,
		Time:       pos.OpenedAt,
	}
	persistErr := l.persistLocked(ctx)
	result := *pos
	l.mu.Unlock()

	l.sink.Emit(bought)
	l.reportPersist(persistErr, bought)
	return result, nil
}

// Sell closes the whole position for symbol at price and returns the close
func (l *Ledger) Sell(ctx context.Context, symbol string, price float64) (Closed, error) {
	closed, _, err := l.close(ctx, symbol, price, events.KindSold, time.Time{},
		func(Position) (string, bool) { return ReasonSignal, true })
	return closed, err
}

// CheckAutoClose sells the position for symbol at bar.Close when the close is
// at or beyond the stop-loss or take-profit. It reports whether a close happened.
func (l *Ledger) CheckAutoClose(ctx context.Context, symbol string, bar core.Bar) (Closed, bool, error) {
	if _, ok := l.Position(symbol); !ok {
		return Closed{}, false, nil
	}
	closed, ok, err := l.close(ctx, symbol, bar.Close, events.KindAutoClosed, bar.Time,
		func(pos Position) (string, bool) { return pos.Breach(bar.Close) })
	if errors.Is(err, core.ErrNoPosition) {
		// sold concurrently
		return Closed{}, false, nil
	}
	return closed, ok, err
}

// close removes the position for symbol when decide approves it. decide runs
// under the same lock as the removal, so it always sees the position it closes.
func (l *Ledger) close(ctx context.Context, symbol string, price float64, kind events.Kind, at time.Time,
	decide func(Position) (string, bool)) (Closed, bool, error) {
	l.mu.Lock()

	pos, ok := l.positions[symbol]
	if !ok {
		l.mu.Unlock()
		return Closed{}, false, core.Rejectf(core.ErrNoPosition, "%s", symbol)
	}
	reason, ok := decide(*pos)
	if !ok {
		l.mu.Unlock()
		return Closed{}, false, nil
	}
	if !validAmount(price) {
		l.mu.Unlock()
		return Closed{}, false, core.Rejectf(core.ErrInvalidOrder, "price must be greater than zero, got %v", price)
	}

	if at.IsZero() {
		at = l.now()
	}
	proceeds := pos.Quantity * price
	closed := Closed{
		Position:  *pos,
		ExitPrice: price,
		Proceeds:  proceeds,
		PnL:       proceeds - pos.CostBasis(),
		Reason:    reason,
		ClosedAt:  at,
	}

	l.balance += proceeds
	delete(l.positions, symbol)

	ev := events.Event{
		Kind:       kind,
		PositionID: pos.ID,
		Symbol:     symbol,
		Quantity:   pos.Quantity,
		Price:      price,
		EntryPrice: pos.EntryPrice,
		StopLoss:   pos.StopLoss,
		TakeProfit: pos.TakeProfit,
		Proceeds:   proceeds,
		PnL:        closed.PnL,
		Balance:    l.balance,
		OpenedAt:   pos.OpenedAt,
		Reason:     reason,
		Time:       at,
	}
	persistErr := l.persistLocked(ctx)
	l.mu.Unlock()

	l.sink.Emit(ev)
	l.reportPersist(persistErr, ev)
	return closed, true, nil
}

// persistLocked writes a snapshot; the in-memory state is kept on failure
func (l *Ledger) persistLocked(ctx context.Context) error {
	if l.persister == nil {
		return nil
	}
	data, err := l.snapshotLocked().Encode()
	if err != nil {
		return core.WrapError(core.ErrPersistFailed, err)
	}
	if err := l.persister.Save(ctx, data); err != nil {
		return core.WrapError(core.ErrPersistFailed, err)
	}
	return nil
}

func (l *Ledger) reportPersist(err error, trigger events.Event) {
	if err == nil {
		return
	}
	l.logger.Warn("ledger snapshot not saved",
		zap.String("trigger", string(trigger.Kind)),
		zap.String("symbol", trigger.Symbol),
		zap.Error(err),
	)
	l.sink.Emit(events.Event{
		Kind:    events.KindPersistFailed,
		Symbol:  trigger.Symbol,
		Balance: trigger.Balance,
		Reason:  err.Error(),
		Time:    trigger.Time,
	})
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
