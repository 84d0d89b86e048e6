package market

import "time"

// DefaultPollInterval applies to intervals missing from the table
const DefaultPollInterval = time.Minute

var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
	"1wk": 7 * 24 * time.Hour,
	"1mo": 30 * 24 * time.Hour,
}

// IntervalDuration maps a bar interval to the pause between live evaluations
func IntervalDuration(interval string) time.Duration {
	if d, ok := intervals[interval]; ok {
		return d
	}
	return DefaultPollInterval
}
