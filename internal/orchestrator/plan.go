package orchestrator

import (
	"github.com/vectra-quant/backsweep/internal/types"
	"github.com/vectra-quant/backsweep/pkg/errors"
	"go.uber.org/zap"
)

// ParameterRange is one swept parameter and its candidate values, in sweep
// order.
type ParameterRange struct {
	Name   string    `yaml:"name" validate:"required"`
	Values []float64 `yaml:"values" validate:"required,min=1"`
}

// Constraint prunes parameter combinations before any simulation is created.
// Accept returns false to skip the combination.
type Constraint struct {
	Name   string
	Accept func(params types.ParameterSet) bool
}

// LessThan builds the common ordering constraint: the combination is kept
// only when params[a] < params[b]. Useful for fast/slow period pairs.
func LessThan(a, b string) Constraint {
	return Constraint{
		Name: a + "<" + b,
		Accept: func(params types.ParameterSet) bool {
			return params[a] < params[b]
		},
	}
}

// Plan expands the Cartesian product of the ranges into concrete parameter
// sets, dropping combinations rejected by any constraint. Each skip is
// counted and logged, never raised. Expansion order is deterministic: the
// last range varies fastest. Returns the kept sets and the number of skipped
// combinations.
func (o *Orchestrator) Plan(ranges []ParameterRange, constraints []Constraint) ([]types.ParameterSet, int, error) {
	if len(ranges) == 0 {
		return nil, 0, errors.New(errors.ErrCodeEmptySweep, "parameter sweep has no ranges")
	}

	seen := make(map[string]bool, len(ranges))
	for _, r := range ranges {
		if r.Name == "" || len(r.Values) == 0 {
			return nil, 0, errors.Newf(errors.ErrCodeInvalidParameter, "parameter range %q is empty", r.Name)
		}

		if seen[r.Name] {
			return nil, 0, errors.Newf(errors.ErrCodeInvalidParameter, "duplicate parameter range %q", r.Name)
		}

		seen[r.Name] = true
	}

	total := 1
	for _, r := range ranges {
		total *= len(r.Values)
	}

	sets := make([]types.ParameterSet, 0, total)
	skipped := 0
	indices := make([]int, len(ranges))

	for {
		params := make(types.ParameterSet, len(ranges))
		for i, r := range ranges {
			params[r.Name] = r.Values[indices[i]]
		}

		if violated, ok := firstViolated(constraints, params); ok {
			skipped++
			o.log.Debug("skipping combination",
				zap.String("parameters", params.CanonicalString()),
				zap.String("constraint", violated),
			)
		} else {
			sets = append(sets, params)
		}

		// Odometer increment, last range fastest.
		pos := len(indices) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(ranges[pos].Values) {
				break
			}

			indices[pos] = 0
			pos--
		}

		if pos < 0 {
			break
		}
	}

	return sets, skipped, nil
}

// firstViolated returns the name of the first constraint rejecting the
// combination.
func firstViolated(constraints []Constraint, params types.ParameterSet) (string, bool) {
	for _, c := range constraints {
		if c.Accept != nil && !c.Accept(params) {
			return c.Name, true
		}
	}

	return "", false
}
