// Package risk sizes positions so that a single trade commits a bounded
// fraction of the account balance.
package risk

import (
	"math"

	"github.com/newthinker/trendbot/internal/core"
)

// Config defines position sizing parameters.
type Config struct {
	// RiskFraction is the portion of the balance committed to one trade, in (0, 1].
	RiskFraction float64
}

// DefaultConfig returns the live-trading default of 2% per trade.
func DefaultConfig() Config {
	return Config{RiskFraction: 0.02}
}

// Sizer computes quantities with a fixed risk fraction.
type Sizer struct {
	config Config
}

// NewSizer creates a Sizer with the given configuration.
func NewSizer(config Config) *Sizer {
	return &Sizer{config: config}
}

// Fraction returns the configured risk fraction.
func (s *Sizer) Fraction() float64 {
	return s.config.RiskFraction
}

// Size returns the quantity to buy at entryPrice out of balance.
func (s *Sizer) Size(balance, entryPrice float64) (float64, error) {
	return Size(balance, entryPrice, s.config.RiskFraction)
}

// Size returns (balance * riskFraction) / entryPrice. Invalid inputs yield a
// zero quantity and an ErrInvalidSizing rejection. Fractional quantities are
// valid; no lot rounding is applied.
func Size(balance, entryPrice, riskFraction float64) (float64, error) {
	if !(entryPrice > 0) || math.IsInf(entryPrice, 0) {
		return 0, core.Rejectf(core.ErrInvalidSizing, "entry price must be greater than zero, got %v", entryPrice)
	}
	if !(riskFraction > 0 && riskFraction <= 1) {
		return 0, core.Rejectf(core.ErrInvalidSizing, "risk fraction must be in (0, 1], got %v", riskFraction)
	}
	if !(balance > 0) || math.IsInf(balance, 0) {
		return 0, core.Rejectf(core.ErrInvalidSizing, "balance must be greater than zero, got %v", balance)
	}

	riskAmount := balance * riskFraction
	if riskAmount <= 0 || balance-riskAmount < 0 {
		return 0, core.Rejectf(core.ErrInvalidSizing, "risk amount %v not covered by balance %v", riskAmount, balance)
	}

	return riskAmount / entryPrice, nil
}
