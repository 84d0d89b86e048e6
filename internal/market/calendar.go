// Package market answers whether the exchange is trading and how long to wait.
package market

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Calendar is a daily trading session in one timezone. Both session bounds
// are inclusive and Saturday and Sunday are closed.
type Calendar struct {
	loc        *time.Location
	open       time.Duration
	close      time.Duration
	alwaysOpen bool
}

// Config describes the trading session
type Config struct {
	Timezone   string
	Open       string // HH:MM
	Close      string // HH:MM
	AlwaysOpen bool
}

// DefaultConfig is the US equity regular session
func DefaultConfig() Config {
	return Config{
		Timezone: "America/New_York",
		Open:     "09:30",
		Close:    "16:00",
	}
}

// NewCalendar validates cfg and builds a Calendar
func NewCalendar(cfg Config) (*Calendar, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}
	open, err := parseClock(cfg.Open)
	if err != nil {
		return nil, fmt.Errorf("market open: %w", err)
	}
	closeAt, err := parseClock(cfg.Close)
	if err != nil {
		return nil, fmt.Errorf("market close: %w", err)
	}
	if closeAt <= open {
		return nil, fmt.Errorf("market close %s must be after open %s", cfg.Close, cfg.Open)
	}
	return &Calendar{loc: loc, open: open, close: closeAt, alwaysOpen: cfg.AlwaysOpen}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// IsOpen reports whether t falls inside a session
func (c *Calendar) IsOpen(t time.Time) bool {
	if c.alwaysOpen {
		return true
	}
	local := t.In(c.loc)
	if isWeekend(local.Weekday()) {
		return false
	}
	clock := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())
	return clock >= c.open && clock <= c.close
}

// UntilOpen is how long after t the next session starts, zero when open
func (c *Calendar) UntilOpen(t time.Time) time.Duration {
	if c.IsOpen(t) {
		return 0
	}
	return c.NextOpen(t).Sub(t)
}

// NextOpen is the first session start strictly after t, or t itself when open
func (c *Calendar) NextOpen(t time.Time) time.Time {
	if c.IsOpen(t) {
		return t
	}
	local := t.In(c.loc)
	day := midnight(local)
	for i := 0; i < 8; i++ {
		start := sessionStart(day.AddDate(0, 0, i), c.open)
		if !isWeekend(start.Weekday()) && start.After(local) {
			return start
		}
	}
	// unreachable with at most two closed days in a row
	return sessionStart(day.AddDate(0, 0, 1), c.open)
}

// Location returns the calendar timezone
func (c *Calendar) Location() *time.Location {
	return c.loc
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// sessionStart builds the wall-clock open so DST shifts keep 09:30 local
func sessionStart(day time.Time, open time.Duration) time.Time {
	y, m, d := day.Date()
	h := int(open / time.Hour)
	minute := int((open % time.Hour) / time.Minute)
	return time.Date(y, m, d, h, minute, 0, 0, day.Location())
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
