package ledger

import (
	"encoding/json"
	"math"
	"time"

	"github.com/newthinker/trendbot/internal/core"
)

// SnapshotVersion is the schema version written by Encode
const SnapshotVersion = 1

// Snapshot is the persisted form of a Ledger
type Snapshot struct {
	Version   int                `json:"version"`
	Balance   float64            `json:"balance"`
	Positions []SnapshotPosition `json:"positions"`
	SavedAt   time.Time          `json:"saved_at"`
}

// SnapshotPosition is one open position in a Snapshot
type SnapshotPosition struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	OpenedAt   time.Time `json:"opened_at"`
}

// Snapshot captures the current balance and positions
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() Snapshot {
	open := l.positionsLocked()
	snap := Snapshot{
		Version:   SnapshotVersion,
		Balance:   l.balance,
		Positions: make([]SnapshotPosition, 0, len(open)),
		SavedAt:   l.now(),
	}
	for _, p := range open {
		snap.Positions = append(snap.Positions, SnapshotPosition{
			ID:         p.ID,
			Symbol:     p.Symbol,
			EntryPrice: p.EntryPrice,
			Quantity:   p.Quantity,
			StopLoss:   p.StopLoss,
			TakeProfit: p.TakeProfit,
			OpenedAt:   p.OpenedAt,
		})
	}
	return snap
}

// Encode serializes the snapshot as JSON
func (s Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses and validates a persisted snapshot.
// Unknown fields are ignored so newer writers stay readable.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, core.WrapError(core.ErrSnapshotCorrupt, err)
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Validate checks the snapshot is safe to restore
func (s Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return core.Rejectf(core.ErrSnapshotVersion, "got version %d, want %d", s.Version, SnapshotVersion)
	}
	if math.IsNaN(s.Balance) || math.IsInf(s.Balance, 0) || s.Balance < 0 {
		return core.Rejectf(core.ErrSnapshotCorrupt, "balance %v", s.Balance)
	}

	seen := make(map[string]struct{}, len(s.Positions))
	for i, p := range s.Positions {
		if p.Symbol == "" {
			return core.Rejectf(core.ErrSnapshotCorrupt, "position %d has no symbol", i)
		}
		if !validAmount(p.Quantity) || !validAmount(p.EntryPrice) {
			return core.Rejectf(core.ErrSnapshotCorrupt,
				"position %s: quantity %v entry %v", p.Symbol, p.Quantity, p.EntryPrice)
		}
		if math.IsNaN(p.StopLoss) || math.IsNaN(p.TakeProfit) {
			return core.Rejectf(core.ErrSnapshotCorrupt, "position %s has NaN exit levels", p.Symbol)
		}
		if _, dup := seen[p.Symbol]; dup {
			return core.Rejectf(core.ErrSnapshotCorrupt, "duplicate position for %s", p.Symbol)
		}
		seen[p.Symbol] = struct{}{}
	}
	return nil
}

// FromSnapshot builds a Ledger holding the snapshot's state
func FromSnapshot(s Snapshot, opts ...Option) (*Ledger, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	l := New(s.Balance, opts...)
	for _, p := range s.Positions {
		id := p.ID
		if id == "" {
			id = l.newID()
		}
		l.positions[p.Symbol] = &Position{
			ID:         id,
			Symbol:     p.Symbol,
			EntryPrice: p.EntryPrice,
			Quantity:   p.Quantity,
			StopLoss:   p.StopLoss,
			TakeProfit: p.TakeProfit,
			OpenedAt:   p.OpenedAt,
		}
	}
	return l, nil
}
