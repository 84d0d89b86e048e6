package indicator

import "github.com/newthinker/trendbot/internal/core"

// RSI calculates the Relative Strength Index for the most recent bar using
// simple averages of the last period close-to-close changes.
// It is undefined (ok == false) with fewer than period+1 bars.
func RSI(bars []core.Bar, period int) (float64, bool) {
	if period <= 0 || len(bars) < period+1 {
		return 0, false
	}

	var gains, losses float64
	for i := len(bars) - period; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}
