// Package sim runs one simulation end to end: enrichment, scan, filtering,
// execution and metrics aggregation.
package sim

import (
	"context"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/vectra-quant/backsweep/internal/blackout"
	"github.com/vectra-quant/backsweep/internal/enrich"
	"github.com/vectra-quant/backsweep/internal/indicator"
	"github.com/vectra-quant/backsweep/internal/logger"
	"github.com/vectra-quant/backsweep/internal/signal"
	"github.com/vectra-quant/backsweep/internal/strategy"
	"github.com/vectra-quant/backsweep/internal/types"
	"github.com/vectra-quant/backsweep/pkg/errors"
)

// Task is one self-contained (strategy, instrument, parameter set) unit of
// work. It holds a reference to the shared read-only core dataset plus its
// own parameter set, and performs its own enrichment, scan, filtering and
// execution. Tasks share no mutable state.
type Task struct {
	Core     *types.CoreDataset
	Registry *indicator.Registry
	Strategy strategy.Strategy
	Params   types.ParameterSet
	// Blackouts is the merged, disjoint window set; nil disables blackout
	// filtering.
	Blackouts []blackout.Window
	Fee       CommissionFee
	Strict    bool
	Log       *logger.Logger
}

// Outcome is a completed task's output.
type Outcome struct {
	Metrics          types.MetricsSummary
	Trades           []types.TradeExecution
	RawSignals       int
	AcceptedSignals  int
	FailedIndicators []enrich.Failure
}

// Run executes the task pipeline. Any panic inside the pipeline is recovered
// and returned as a simulation task error so one simulation cannot take down
// its siblings.
func (t *Task) Run(ctx context.Context) (outcome *Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = nil
			err = errors.Newf(errors.ErrCodeSimulationTask, "simulation panicked: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSimulationCancelled, "simulation cancelled before start", err)
	}

	log := t.Log
	if log == nil {
		log = logger.NewNopLogger()
	}

	engine := enrich.NewEngine(t.Registry, log)

	enriched, err := engine.Enrich(t.Core, t.Strategy.RequiredIndicators(), t.indicatorOverrides(), t.Strict)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSimulationTask, "enrichment failed", err)
	}

	raw, err := t.Strategy.Scan(enriched.Enriched, t.Params)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSimulationTask, "strategy scan failed", err)
	}

	// Exit indices are unknown before execution, so the concurrency filter
	// runs in its conservative mode.
	accepted, err := signal.FilterOverlapping(raw, optional.None[[]int](), t.Strategy.MaxConcurrentPositions())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSimulationTask, "concurrency filter failed", err)
	}

	if len(t.Blackouts) > 0 {
		accepted = signal.Set(blackout.FilterSignals(accepted, t.Core.Times(), t.Blackouts))
	}

	trades, err := SimulateExecutions(enriched.Enriched, accepted, NewExecutionParams(t.Params, t.Fee))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSimulationTask, "execution simulation failed", err)
	}

	return &Outcome{
		Metrics:          types.NewMetricsSummary(trades),
		Trades:           trades,
		RawSignals:       len(raw),
		AcceptedSignals:  len(accepted),
		FailedIndicators: enriched.FailedIndicators,
	}, nil
}

// indicatorOverrides extracts dotted parameters of the form
// "<indicator>.<param>" into per-indicator override sets, e.g.
// "sma_fast.period" = 8 overrides the fast average's period.
func (t *Task) indicatorOverrides() map[string]types.ParameterSet {
	overrides := make(map[string]types.ParameterSet)

	for key, value := range t.Params {
		name, param, found := strings.Cut(key, ".")
		if !found {
			continue
		}

		if overrides[name] == nil {
			overrides[name] = types.ParameterSet{}
		}

		overrides[name][param] = value
	}

	return overrides
}
