// Package enrich computes indicator columns for a core dataset under the
// dependency order resolved by the indicator registry.
package enrich

import (
	"time"

	"github.com/vectra-quant/backsweep/internal/indicator"
	"github.com/vectra-quant/backsweep/internal/logger"
	"github.com/vectra-quant/backsweep/internal/types"
	"github.com/vectra-quant/backsweep/pkg/errors"
	"go.uber.org/zap"
)

// Failure records one indicator that could not be computed in non-strict mode.
type Failure struct {
	Indicator string
	Err       error
}

// Result is the output of one enrichment call.
type Result struct {
	// Enriched holds the core dataset plus the computed indicator columns.
	Enriched *Dataset
	// IndicatorsApplied lists the successfully computed indicators in
	// execution order.
	IndicatorsApplied []string
	// FailedIndicators holds per-indicator failures. Populated only in
	// non-strict mode; in strict mode any failure aborts the call.
	FailedIndicators []Failure
	// Runtime is the wall-clock duration of the enrichment.
	Runtime time.Duration
}

// Engine invokes registry compute functions against a dataset copy without
// mutating the source.
type Engine struct {
	registry *indicator.Registry
	log      *logger.Logger
}

// NewEngine creates an enrichment engine backed by the given registry.
func NewEngine(registry *indicator.Registry, log *logger.Logger) *Engine {
	return &Engine{
		registry: registry,
		log:      log,
	}
}

// Enrich computes the requested indicators and their transitive dependencies
// over ds.
//
// In strict mode every requested name and every transitive dependency must be
// registered before any computation starts, and any compute failure aborts
// the whole call. In non-strict mode unknown and failing indicators are
// recorded in the result and skipped; sibling successes are kept.
//
// The core columns of the input are hashed before and after computation; a
// mismatch means a compute function mutated its input, which is a fatal
// internal invariant violation.
func (e *Engine) Enrich(ds *types.CoreDataset, indicators []string, overrides map[string]types.ParameterSet, strict bool) (*Result, error) {
	started := time.Now()

	seen := make(map[string]bool, len(indicators))
	for _, name := range indicators {
		if seen[name] {
			return nil, errors.Newf(errors.ErrCodeDuplicateIndicator, "indicator %q requested more than once", name)
		}

		seen[name] = true
	}

	coreHashBefore := ds.CoreHash()

	result := &Result{
		Enriched:          NewDataset(ds),
		IndicatorsApplied: nil,
		FailedIndicators:  nil,
		Runtime:           0,
	}

	order, failures, err := e.resolve(indicators, strict)
	if err != nil {
		return nil, err
	}

	result.FailedIndicators = failures

	applied := make(map[string]bool, len(order))

	for _, name := range order {
		spec, err := e.registry.Get(name)
		if err != nil {
			// resolve only returns registered names
			return nil, errors.Wrap(errors.ErrCodeInternal, "resolved indicator disappeared from registry", err)
		}

		if err := e.compute(result.Enriched, spec, overrides[name], applied); err != nil {
			if strict {
				return nil, err
			}

			e.log.Warn("indicator compute failed, skipping",
				zap.String("indicator", name),
				zap.Error(err),
			)
			result.FailedIndicators = append(result.FailedIndicators, Failure{Indicator: name, Err: err})

			continue
		}

		applied[name] = true
		result.IndicatorsApplied = append(result.IndicatorsApplied, name)
	}

	if ds.CoreHash() != coreHashBefore {
		return nil, errors.New(errors.ErrCodeCoreColumnsMutated,
			"core columns changed during enrichment: a compute function mutated its input")
	}

	result.Runtime = time.Since(started)

	return result, nil
}

// resolve produces the execution order. In non-strict mode each requested
// indicator resolves independently so that one unknown name cannot poison the
// rest; the per-name orders are merged preserving first occurrence.
func (e *Engine) resolve(indicators []string, strict bool) ([]string, []Failure, error) {
	if strict {
		order, err := e.registry.ResolveOrder(indicators)
		if err != nil {
			return nil, nil, err
		}

		return order, nil, nil
	}

	var (
		order    []string
		failures []Failure
	)

	included := make(map[string]bool)

	for _, name := range indicators {
		partial, err := e.registry.ResolveOrder([]string{name})
		if err != nil {
			failures = append(failures, Failure{Indicator: name, Err: err})

			continue
		}

		for _, resolved := range partial {
			if !included[resolved] {
				included[resolved] = true
				order = append(order, resolved)
			}
		}
	}

	return order, failures, nil
}

func (e *Engine) compute(ds *Dataset, spec indicator.Spec, overrides types.ParameterSet, applied map[string]bool) error {
	params := spec.MergedParams(overrides)

	// A dependency may have failed earlier in non-strict mode; surface that
	// as this indicator's failure instead of a confusing column lookup error.
	for _, dep := range spec.Requires {
		if !types.IsCoreColumn(dep) && !applied[dep] {
			return errors.Newf(errors.ErrCodeIndicatorCompute,
				"indicator %q requires %q which was not computed", spec.Name, dep)
		}
	}

	columns, err := spec.Compute(ds, params)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeIndicatorCompute, err, "indicator %q compute failed", spec.Name)
	}

	for _, provided := range spec.Provides {
		values, ok := columns[provided]
		if !ok {
			return errors.Newf(errors.ErrCodeIndicatorCompute,
				"indicator %q did not produce declared column %q", spec.Name, provided)
		}

		if err := ds.addColumn(provided, values); err != nil {
			return err
		}
	}

	return nil
}
