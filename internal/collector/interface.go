package collector

import (
	"context"
	"sort"

	"github.com/newthinker/trendbot/internal/core"
)

// Collector fetches OHLCV history for one instrument
type Collector interface {
	Name() string

	// Fetch returns bars covering period (e.g. "1mo") at interval (e.g. "1h"),
	// oldest first with unique timestamps.
	Fetch(ctx context.Context, symbol, period, interval string) ([]core.Bar, error)
}

// FetchSeries fetches bars and wraps them as a validated series
func FetchSeries(ctx context.Context, c Collector, symbol, period, interval string) (core.Series, error) {
	bars, err := c.Fetch(ctx, symbol, period, interval)
	if err != nil {
		return core.Series{}, err
	}
	return core.NewSeries(symbol, interval, bars)
}

// Normalize sorts bars by time and keeps the last bar seen for a duplicated
// timestamp, which is how providers revise the in-progress bar.
func Normalize(bars []core.Bar) []core.Bar {
	if len(bars) == 0 {
		return bars
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
