package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParameterSet is one concrete parameter combination for a simulation.
// Values are plain float64; integer-valued parameters (periods, bar counts)
// are stored as whole floats and truncated by consumers.
type ParameterSet map[string]float64

// Keys returns the parameter names in sorted order.
func (p ParameterSet) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Get returns the value for name, or fallback if name is absent.
func (p ParameterSet) Get(name string, fallback float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}

	return fallback
}

// GetInt returns the value for name truncated to int, or fallback if absent.
func (p ParameterSet) GetInt(name string, fallback int) int {
	if v, ok := p[name]; ok {
		return int(v)
	}

	return fallback
}

// Clone returns an independent copy of the parameter set.
func (p ParameterSet) Clone() ParameterSet {
	out := make(ParameterSet, len(p))
	for k, v := range p {
		out[k] = v
	}

	return out
}

// CanonicalString renders the parameter set as "k1=v1,k2=v2" with sorted keys
// and a fixed float format, so that equal sets always produce equal strings.
// Used for reproducibility hashing and simulation identity.
func (p ParameterSet) CanonicalString() string {
	keys := p.Keys()

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, strconv.FormatFloat(p[k], 'g', -1, 64)))
	}

	return strings.Join(parts, ",")
}
