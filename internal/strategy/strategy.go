// Package strategy defines the capability contract a trading strategy must
// satisfy and the bundled reference strategies. The orchestrator depends only
// on the Strategy interface, never on a concrete strategy type.
package strategy

import (
	"github.com/vectra-quant/backsweep/internal/enrich"
	"github.com/vectra-quant/backsweep/internal/signal"
	"github.com/vectra-quant/backsweep/internal/types"
)

// Strategy is the fixed capability interface for entry-signal generation.
type Strategy interface {
	// Name returns the strategy identifier used in results.
	Name() string
	// RequiredIndicators lists the indicator names the strategy reads during
	// Scan. The enrichment engine computes them (and their dependencies)
	// before Scan runs.
	RequiredIndicators() []string
	// Scan returns the raw entry signal set over the enriched dataset using
	// array-level operations; implementations must not iterate the dataset
	// through per-row business logic.
	Scan(ds *enrich.Dataset, params types.ParameterSet) (signal.Set, error)
	// MaxConcurrentPositions bounds how many accepted positions may be open
	// at once. Non-positive disables concurrency filtering.
	MaxConcurrentPositions() int
}
