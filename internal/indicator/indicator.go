package indicator

// ColumnSource provides read access to the columns visible to a compute
// function: the core dataset columns plus every indicator column computed
// earlier in the resolved order.
type ColumnSource interface {
	// Len returns the number of rows.
	Len() int
	// Column returns a named column. The returned slice must not be modified.
	Column(name string) ([]float64, error)
}

// Columns is the named output of one compute invocation. Every slice must
// have the same length as the input source.
type Columns map[string][]float64

// ComputeFunc computes an indicator's output columns. Implementations must be
// pure: no mutation of any input column and bit-identical output for
// identical input.
type ComputeFunc func(src ColumnSource, params map[string]float64) (Columns, error)

// Spec describes one registrable indicator.
type Spec struct {
	// Name uniquely identifies the indicator. Lowercase letters, digits and
	// underscores only.
	Name string
	// Requires lists the column or indicator names this indicator reads.
	// Core columns (open, high, low, close, volume) are always satisfied.
	Requires []string
	// Provides lists the output column names produced by Compute.
	Provides []string
	// Params holds the default parameters. All of them are overridable at
	// enrichment time.
	Params map[string]float64
	// Version is the semantic version of the compute implementation.
	Version string
	// Compute produces the output columns.
	Compute ComputeFunc
}

// MergedParams overlays the given overrides onto the spec defaults without
// touching either map.
func (s Spec) MergedParams(overrides map[string]float64) map[string]float64 {
	merged := make(map[string]float64, len(s.Params)+len(overrides))
	for k, v := range s.Params {
		merged[k] = v
	}

	for k, v := range overrides {
		merged[k] = v
	}

	return merged
}
