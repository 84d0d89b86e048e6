package backtest

import (
	"math"

	"github.com/newthinker/trendbot/internal/journal"
)

// CalculateStats computes performance statistics from closed trades
func CalculateStats(trades []journal.Trade) Stats {
	if len(trades) == 0 {
		return Stats{}
	}

	var winning, losing int
	var totalReturn float64
	returns := make([]float64, 0, len(trades))

	for _, t := range trades {
		r := t.Return()
		returns = append(returns, r)
		totalReturn += r
		if t.PnL > 0 {
			winning++
		} else {
			losing++
		}
	}

	return Stats{
		TotalTrades:   len(trades),
		WinningTrades: winning,
		LosingTrades:  losing,
		WinRate:       float64(winning) / float64(len(trades)) * 100,
		TotalReturn:   totalReturn * 100, // Convert to percentage
		MaxDrawdown:   calculateMaxDrawdown(returns) * 100,
		SharpeRatio:   calculateSharpeRatio(returns, tradesPerYear(trades)),
	}
}

// calculateMaxDrawdown finds the largest peak-to-trough decline
func calculateMaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var maxDD float64
	peak := 1.0
	cumulative := 1.0

	for _, r := range returns {
		cumulative *= (1 + r)
		if cumulative > peak {
			peak = cumulative
		}
		if dd := (peak - cumulative) / peak; dd > maxDD {
			maxDD = dd
		}
	}

	return maxDD
}

// tradesPerYear is the closing rate of trades over the span between the
// first and last close, or 0 when the span is empty.
func tradesPerYear(trades []journal.Trade) float64 {
	if len(trades) < 2 {
		return 0
	}
	first, last := trades[0].ClosedAt, trades[0].ClosedAt
	for _, t := range trades[1:] {
		if t.ClosedAt.Before(first) {
			first = t.ClosedAt
		}
		if t.ClosedAt.After(last) {
			last = t.ClosedAt
		}
	}
	years := last.Sub(first).Hours() / (24 * 365.25)
	if years <= 0 {
		return 0
	}
	return float64(len(trades)) / years
}

// calculateSharpeRatio computes the per-trade Sharpe ratio with a zero
// risk-free rate, scaled by sqrt(periodsPerYear) when that is positive.
// Trades are not evenly spaced, so the annualized figure is an estimate.
func calculateSharpeRatio(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))

	if stdDev == 0 {
		return 0
	}

	sharpe := mean / stdDev
	if periodsPerYear > 0 {
		sharpe *= math.Sqrt(periodsPerYear)
	}
	return sharpe
}
