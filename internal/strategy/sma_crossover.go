package strategy

import (
	"math"

	"github.com/vectra-quant/backsweep/internal/enrich"
	"github.com/vectra-quant/backsweep/internal/signal"
	"github.com/vectra-quant/backsweep/internal/types"
)

// SMACrossover signals an entry on each candle where the fast moving average
// crosses above the slow one. Parameters: fast_period, slow_period.
type SMACrossover struct {
	maxConcurrent int
}

// NewSMACrossover creates the crossover strategy with the given concurrency
// bound.
func NewSMACrossover(maxConcurrent int) *SMACrossover {
	return &SMACrossover{maxConcurrent: maxConcurrent}
}

// Name implements Strategy.
func (s *SMACrossover) Name() string {
	return "sma_crossover"
}

// RequiredIndicators implements Strategy.
func (s *SMACrossover) RequiredIndicators() []string {
	return []string{"sma_fast", "sma_slow"}
}

// MaxConcurrentPositions implements Strategy.
func (s *SMACrossover) MaxConcurrentPositions() int {
	return s.maxConcurrent
}

// Scan implements Strategy. A signal fires at index i when fast[i] > slow[i]
// and fast[i-1] <= slow[i-1], both averages being defined at both indices.
func (s *SMACrossover) Scan(ds *enrich.Dataset, _ types.ParameterSet) (signal.Set, error) {
	fast, err := ds.Column("sma_fast")
	if err != nil {
		return nil, err
	}

	slow, err := ds.Column("sma_slow")
	if err != nil {
		return nil, err
	}

	above := make([]bool, ds.Len())
	defined := make([]bool, ds.Len())

	for i := range above {
		defined[i] = !math.IsNaN(fast[i]) && !math.IsNaN(slow[i])
		above[i] = defined[i] && fast[i] > slow[i]
	}

	var signals signal.Set

	for i := 1; i < len(above); i++ {
		if above[i] && defined[i-1] && !above[i-1] && !ds.Core().IsGap(i) {
			signals = append(signals, i)
		}
	}

	return signals, nil
}
