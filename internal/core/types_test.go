package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func makeBars(n int) []Bar {
	base := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	bars := make([]Bar, n)
	for i := range bars {
		bars[i] = Bar{Time: base.Add(time.Duration(i) * time.Hour), Close: float64(100 + i)}
	}
	return bars
}

func TestBar_IsValid(t *testing.T) {
	b := Bar{Time: time.Now(), Close: 1680.50}
	if !b.IsValid() {
		t.Error("expected valid bar")
	}

	invalid := Bar{Close: 0}
	if invalid.IsValid() {
		t.Error("expected invalid bar")
	}
}

func TestNewSeries_Validation(t *testing.T) {
	tests := []struct {
		name    string
		bars    func() []Bar
		wantErr bool
	}{
		{"empty", func() []Bar { return nil }, false},
		{"ordered", func() []Bar { return makeBars(5) }, false},
		{"duplicate timestamp", func() []Bar {
			b := makeBars(3)
			b[2].Time = b[1].Time
			return b
		}, true},
		{"reversed", func() []Bar {
			b := makeBars(2)
			b[0], b[1] = b[1], b[0]
			return b
		}, true},
		{"nan high", func() []Bar {
			b := makeBars(3)
			b[1].High = math.NaN()
			return b
		}, true},
		{"infinite low", func() []Bar {
			b := makeBars(3)
			b[2].Low = math.Inf(-1)
			return b
		}, true},
		{"nan volume", func() []Bar {
			b := makeBars(3)
			b[0].Volume = math.NaN()
			return b
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSeries("AAPL", "1h", tt.bars())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSeries() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSeries) {
				t.Errorf("expected ErrInvalidSeries, got %v", err)
			}
		})
	}
}

func TestSeries_Window(t *testing.T) {
	s, err := NewSeries("AAPL", "1h", makeBars(10))
	if err != nil {
		t.Fatal(err)
	}

	w, err := s.Window(2, 3)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if w.Len() != 3 || w.Bars[0].Close != 102 {
		t.Errorf("unexpected window: len=%d first=%v", w.Len(), w.Bars[0].Close)
	}

	clamped, err := s.Window(8, 5)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if clamped.Len() != 2 {
		t.Errorf("expected clamped window of 2, got %d", clamped.Len())
	}

	if _, err := s.Window(10, 1); err == nil {
		t.Error("expected error for start out of bounds")
	}
	if _, err := s.Window(0, 0); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestSeries_LastAndCloses(t *testing.T) {
	var empty Series
	if _, ok := empty.Last(); ok {
		t.Error("empty series has no last bar")
	}

	s, _ := NewSeries("AAPL", "1h", makeBars(3))
	last, ok := s.Last()
	if !ok || last.Close != 102 {
		t.Errorf("Last() = %v, %v", last, ok)
	}
	closes := s.Closes()
	if len(closes) != 3 || closes[0] != 100 {
		t.Errorf("Closes() = %v", closes)
	}
}

func TestSignal_HasLevels(t *testing.T) {
	tests := []struct {
		action Action
		want   bool
	}{
		{ActionBuy, true},
		{ActionSell, true},
		{ActionHold, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := (Signal{Action: tt.action}).HasLevels(); got != tt.want {
				t.Errorf("HasLevels() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAction_Constants(t *testing.T) {
	actions := []Action{ActionBuy, ActionSell, ActionHold}
	expected := []string{"buy", "sell", "hold"}

	for i, a := range actions {
		if string(a) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], a)
		}
	}
}
