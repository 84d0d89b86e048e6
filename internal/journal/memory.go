package journal

import (
	"context"
	"sync"
)

// Memory keeps trades in process
type Memory struct {
	mu     sync.Mutex
	trades []Trade
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(_ context.Context, t Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, t)
	return nil
}

func (m *Memory) Trades(context.Context) ([]Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Trade, len(m.trades))
	copy(out, m.trades)
	return out, nil
}

func (m *Memory) Close() error { return nil }
