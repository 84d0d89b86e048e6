package indicator

import (
	"math"

	"github.com/newthinker/trendbot/internal/core"
)

// TrueRange is the largest of the bar's range and its gaps from the previous close
func TrueRange(curr, prev core.Bar) float64 {
	return math.Max(curr.High-curr.Low,
		math.Max(math.Abs(curr.High-prev.Close), math.Abs(curr.Low-prev.Close)))
}

// ATR calculates the Average True Range as the simple mean of the last
// period true ranges. It is undefined (ok == false) with fewer than period+1 bars.
func ATR(bars []core.Bar, period int) (float64, bool) {
	if period <= 0 || len(bars) < period+1 {
		return 0, false
	}

	var sum float64
	for i := len(bars) - period; i < len(bars); i++ {
		sum += TrueRange(bars[i], bars[i-1])
	}
	return sum / float64(period), true
}
