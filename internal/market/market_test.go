package market

import (
	"testing"
	"time"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("loading location: %v", err)
	}
	return loc
}

func defaultCalendar(t *testing.T) *Calendar {
	t.Helper()
	c, err := NewCalendar(DefaultConfig())
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}
	return c
}

func TestCalendar_IsOpen(t *testing.T) {
	ny := newYork(t)
	c := defaultCalendar(t)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before open", time.Date(2024, 3, 6, 9, 29, 59, 0, ny), false},
		{"at open", time.Date(2024, 3, 6, 9, 30, 0, 0, ny), true},
		{"midday", time.Date(2024, 3, 6, 12, 0, 0, 0, ny), true},
		{"at close", time.Date(2024, 3, 6, 16, 0, 0, 0, ny), true},
		{"after close", time.Date(2024, 3, 6, 16, 0, 1, 0, ny), false},
		{"saturday", time.Date(2024, 3, 9, 12, 0, 0, 0, ny), false},
		{"sunday", time.Date(2024, 3, 10, 12, 0, 0, 0, ny), false},
		{"utc input converted", time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.IsOpen(tc.at); got != tc.want {
				t.Errorf("IsOpen(%s) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestCalendar_UntilOpen(t *testing.T) {
	ny := newYork(t)
	c := defaultCalendar(t)

	tests := []struct {
		name string
		at   time.Time
		want time.Duration
	}{
		{"open", time.Date(2024, 3, 6, 10, 0, 0, 0, ny), 0},
		{"early morning", time.Date(2024, 3, 6, 8, 0, 0, 0, ny), 90 * time.Minute},
		{"evening waits until tomorrow", time.Date(2024, 3, 6, 17, 0, 0, 0, ny), 16*time.Hour + 30*time.Minute},
		{"friday evening waits until monday", time.Date(2024, 3, 1, 17, 0, 0, 0, ny), 64*time.Hour + 30*time.Minute},
		{"saturday morning", time.Date(2024, 3, 2, 9, 30, 0, 0, ny), 48 * time.Hour},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.UntilOpen(tc.at); got != tc.want {
				t.Errorf("UntilOpen(%s) = %s, want %s", tc.at, got, tc.want)
			}
		})
	}
}

func TestCalendar_NextOpenAcrossDST(t *testing.T) {
	ny := newYork(t)
	c := defaultCalendar(t)

	// clocks spring forward on Sunday 2024-03-10
	next := c.NextOpen(time.Date(2024, 3, 8, 17, 0, 0, 0, ny))
	want := time.Date(2024, 3, 11, 9, 30, 0, 0, ny)
	if !next.Equal(want) {
		t.Errorf("NextOpen = %s, want %s", next, want)
	}
}

func TestCalendar_AlwaysOpen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlwaysOpen = true
	c, err := NewCalendar(cfg)
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}
	sunday := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)
	if !c.IsOpen(sunday) || c.UntilOpen(sunday) != 0 {
		t.Error("expected always-open calendar to be open")
	}
}

func TestNewCalendar_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad timezone", Config{Timezone: "Mars/Olympus", Open: "09:30", Close: "16:00"}},
		{"bad open", Config{Timezone: "UTC", Open: "9h", Close: "16:00"}},
		{"close before open", Config{Timezone: "UTC", Open: "16:00", Close: "09:30"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCalendar(tc.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIntervalDuration(t *testing.T) {
	tests := []struct {
		interval string
		want     time.Duration
	}{
		{"1m", 60 * time.Second},
		{"5m", 300 * time.Second},
		{"15m", 900 * time.Second},
		{"30m", 1800 * time.Second},
		{"1h", 3600 * time.Second},
		{"4h", 14400 * time.Second},
		{"1d", 86400 * time.Second},
		{"1wk", 604800 * time.Second},
		{"1mo", 2592000 * time.Second},
		{"2m", 60 * time.Second},
		{"", 60 * time.Second},
	}

	for _, tc := range tests {
		if got := IntervalDuration(tc.interval); got != tc.want {
			t.Errorf("IntervalDuration(%q) = %s, want %s", tc.interval, got, tc.want)
		}
	}
}
