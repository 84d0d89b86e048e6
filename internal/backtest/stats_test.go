package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/newthinker/trendbot/internal/journal"
)

// trade builds a closed trade with the given fractional return on a 100 cost basis
func trade(ret float64) journal.Trade {
	return journal.Trade{Quantity: 1, EntryPrice: 100, ExitPrice: 100 * (1 + ret), PnL: 100 * ret}
}

func TestCalculateStats_Empty(t *testing.T) {
	stats := CalculateStats([]journal.Trade{})
	if stats.TotalTrades != 0 {
		t.Error("expected 0 trades for empty input")
	}
}

func TestCalculateStats_WinRate(t *testing.T) {
	trades := []journal.Trade{
		trade(0.10),  // win
		trade(0.05),  // win
		trade(-0.03), // loss
		trade(0.02),  // win
	}

	stats := CalculateStats(trades)

	if stats.TotalTrades != 4 {
		t.Errorf("TotalTrades = %d, want 4", stats.TotalTrades)
	}
	if stats.WinningTrades != 3 {
		t.Errorf("WinningTrades = %d, want 3", stats.WinningTrades)
	}
	if stats.WinRate != 75 {
		t.Errorf("WinRate = %f, want 75", stats.WinRate)
	}
}

func TestCalculateStats_TotalReturn(t *testing.T) {
	stats := CalculateStats([]journal.Trade{trade(0.10), trade(-0.05)})

	expected := 5.0 // (0.10 + -0.05) * 100
	if math.Abs(stats.TotalReturn-expected) > 0.001 {
		t.Errorf("TotalReturn = %f, want %f", stats.TotalReturn, expected)
	}
}

func TestCalculateStats_BreakevenIsLoss(t *testing.T) {
	stats := CalculateStats([]journal.Trade{trade(0)})
	if stats.LosingTrades != 1 || stats.WinRate != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestCalculateMaxDrawdown(t *testing.T) {
	// Simulate: +10%, +5%, -20%, +10%
	// Peak at 1.155, trough at 0.924, DD = 20%
	returns := []float64{0.10, 0.05, -0.20, 0.10}
	dd := calculateMaxDrawdown(returns)

	if dd < 0.19 || dd > 0.21 {
		t.Errorf("MaxDrawdown = %f, expected ~0.20", dd)
	}
}

func TestCalculateMaxDrawdown_FirstTradeLoss(t *testing.T) {
	dd := calculateMaxDrawdown([]float64{-0.10})
	if math.Abs(dd-0.10) > 1e-9 {
		t.Errorf("MaxDrawdown = %f, want 0.10", dd)
	}
}

func TestCalculateSharpeRatio(t *testing.T) {
	if got := calculateSharpeRatio([]float64{0.01}, 0); got != 0 {
		t.Errorf("single return should give 0, got %f", got)
	}
	if got := calculateSharpeRatio([]float64{0.01, 0.01}, 52); got != 0 {
		t.Errorf("zero variance should give 0, got %f", got)
	}

	// mean 0.02, sample std dev 0.02
	returns := []float64{0.02, 0.0, 0.04}
	if got := calculateSharpeRatio(returns, 0); math.Abs(got-1) > 1e-9 {
		t.Errorf("unannualized sharpe = %f, want 1", got)
	}
	if got := calculateSharpeRatio(returns, 16); math.Abs(got-4) > 1e-9 {
		t.Errorf("sharpe at 16 trades/year = %f, want 4", got)
	}
}

func TestTradesPerYear(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(days float64) journal.Trade {
		return journal.Trade{ClosedAt: base.Add(time.Duration(days * 24 * float64(time.Hour)))}
	}

	tests := []struct {
		name   string
		trades []journal.Trade
		want   float64
	}{
		{"none", nil, 0},
		{"single", []journal.Trade{at(0)}, 0},
		{"same instant", []journal.Trade{at(3), at(3)}, 0},
		{"four over half a year", []journal.Trade{at(0), at(60), at(120), at(365.25 / 2)}, 8},
		{"unordered", []journal.Trade{at(365.25), at(0)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tradesPerYear(tt.trades); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("tradesPerYear() = %f, want %f", got, tt.want)
			}
		})
	}
}
