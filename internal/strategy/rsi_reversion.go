package strategy

import (
	"math"

	"github.com/vectra-quant/backsweep/internal/enrich"
	"github.com/vectra-quant/backsweep/internal/signal"
	"github.com/vectra-quant/backsweep/internal/types"
)

// RSIReversion signals an entry when RSI crosses back up through the
// oversold threshold. Parameter: oversold (default 30).
type RSIReversion struct {
	maxConcurrent int
}

// NewRSIReversion creates the reversion strategy with the given concurrency
// bound.
func NewRSIReversion(maxConcurrent int) *RSIReversion {
	return &RSIReversion{maxConcurrent: maxConcurrent}
}

// Name implements Strategy.
func (s *RSIReversion) Name() string {
	return "rsi_reversion"
}

// RequiredIndicators implements Strategy.
func (s *RSIReversion) RequiredIndicators() []string {
	return []string{"rsi"}
}

// MaxConcurrentPositions implements Strategy.
func (s *RSIReversion) MaxConcurrentPositions() int {
	return s.maxConcurrent
}

// Scan implements Strategy. A signal fires at index i when rsi[i-1] was at or
// below the oversold threshold and rsi[i] moved above it.
func (s *RSIReversion) Scan(ds *enrich.Dataset, params types.ParameterSet) (signal.Set, error) {
	rsi, err := ds.Column("rsi")
	if err != nil {
		return nil, err
	}

	oversold := params.Get("oversold", 30)

	var signals signal.Set

	for i := 1; i < len(rsi); i++ {
		if math.IsNaN(rsi[i]) || math.IsNaN(rsi[i-1]) || ds.Core().IsGap(i) {
			continue
		}

		if rsi[i-1] <= oversold && rsi[i] > oversold {
			signals = append(signals, i)
		}
	}

	return signals, nil
}
