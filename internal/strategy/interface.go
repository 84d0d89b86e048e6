package strategy

import (
	"github.com/newthinker/trendbot/internal/core"
)

// Strategy maps a window of bars to a trading signal.
// Implementations are stateless: the same window always yields the same signal.
type Strategy interface {
	Name() string
	Description() string
	// RequiredBars is the minimum window length before a non-hold signal is possible
	RequiredBars() int
	Evaluate(window core.Series) core.Signal
}
