// Package orchestrator plans parameter sweeps and runs them as experiments
// over a bounded worker pool.
package orchestrator

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vectra-quant/backsweep/internal/blackout"
	"github.com/vectra-quant/backsweep/internal/indicator"
	"github.com/vectra-quant/backsweep/internal/logger"
	"github.com/vectra-quant/backsweep/internal/repro"
	"github.com/vectra-quant/backsweep/internal/sim"
	"github.com/vectra-quant/backsweep/internal/strategy"
	"github.com/vectra-quant/backsweep/internal/types"
	"github.com/vectra-quant/backsweep/pkg/errors"
	"go.uber.org/zap"
)

// Events are optional observer callbacks fired during a run. Callbacks are
// serialized; a slow callback stalls reporting, not workers.
type Events struct {
	OnTaskStarted  func(simulation *types.Simulation)
	OnTaskFinished func(simulation *types.Simulation)
	OnHeartbeat    func(completed, failed, total int)
}

// Recorder persists terminal simulations and their executions. Implemented
// by store.ResultStore.
type Recorder interface {
	RecordSimulation(experimentID string, simulation *types.Simulation, trades []types.TradeExecution) error
}

// Orchestrator turns a planned sweep into an experiment and drives it to a
// terminal state.
type Orchestrator struct {
	config   Config
	registry *indicator.Registry
	log      *logger.Logger
	recorder Recorder

	eventMu sync.Mutex
	events  Events
}

// NewOrchestrator creates an orchestrator over the given indicator registry.
func NewOrchestrator(config Config, registry *indicator.Registry, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Orchestrator{
		config:   config,
		registry: registry,
		log:      log,
	}
}

// SetEvents installs the observer callbacks. Must be called before Run.
func (o *Orchestrator) SetEvents(events Events) {
	o.events = events
}

// SetRecorder installs a persistence sink for terminal simulations. Must be
// called before Run. Recording failures are logged, never fatal.
func (o *Orchestrator) SetRecorder(recorder Recorder) {
	o.recorder = recorder
}

// NewExperiment materializes planned parameter sets into pending simulations.
func (o *Orchestrator) NewExperiment(name string, strat strategy.Strategy, instrument string, timeRange types.TimeRange, sets []types.ParameterSet, skipped int) (*types.Experiment, error) {
	if strat == nil {
		return nil, errors.New(errors.ErrCodeNoStrategy, "experiment requires a strategy")
	}

	if len(sets) == 0 {
		return nil, errors.New(errors.ErrCodeEmptySweep, "experiment has no parameter sets to run")
	}

	experiment := &types.Experiment{
		ID:                  uuid.New().String(),
		Name:                name,
		Simulations:         make([]*types.Simulation, 0, len(sets)),
		SkippedCombinations: skipped,
	}

	for _, params := range sets {
		experiment.Simulations = append(experiment.Simulations, &types.Simulation{
			ID:         uuid.New().String(),
			Strategy:   strat.Name(),
			Instrument: instrument,
			TimeRange:  timeRange,
			Parameters: params,
			Status:     types.SimulationStatusPending,
		})
	}

	return experiment, nil
}

// RunInput bundles the shared, read-only inputs of one experiment run.
type RunInput struct {
	Experiment *types.Experiment
	Core       *types.CoreDataset
	Strategy   strategy.Strategy
	// Blackouts must already be merged into a disjoint set; nil disables
	// blackout filtering.
	Blackouts []blackout.Window
	Manifest  repro.ManifestRef
}

// taskResult is one worker's terminal report. Workers hand results back by
// value so that only Run's goroutine ever writes experiment state.
type taskResult struct {
	index    int
	status   types.SimulationStatus
	errMsg   string
	metrics  *types.MetricsSummary
	hash     string
	duration time.Duration
	trades   []types.TradeExecution
}

// Run executes every pending simulation of the experiment over a bounded
// worker pool. Workers compute in isolation and report results over a
// channel; Run alone applies them to the experiment, so the caller can read
// it safely as soon as Run returns. On cancellation no further simulations
// are submitted and in-flight ones get a bounded grace period; work still in
// flight when the grace expires is abandoned and its simulation stays in the
// running state. Run returns the context error on cancellation, nil
// otherwise: individual simulation failures are recorded on the simulation,
// not returned.
func (o *Orchestrator) Run(ctx context.Context, input RunInput) error {
	if input.Experiment == nil || len(input.Experiment.Simulations) == 0 {
		return errors.New(errors.ErrCodeEmptySweep, "experiment has no simulations")
	}

	if input.Core == nil {
		return errors.New(errors.ErrCodeNoDataset, "experiment requires a core dataset")
	}

	if input.Strategy == nil {
		return errors.New(errors.ErrCodeNoStrategy, "experiment requires a strategy")
	}

	workers := o.config.EffectiveWorkers()
	total := len(input.Experiment.Simulations)

	o.log.Info("starting experiment",
		zap.String("experiment_id", input.Experiment.ID),
		zap.String("name", input.Experiment.Name),
		zap.Int("simulations", total),
		zap.Int("workers", workers),
	)

	var completed, failed atomic.Int64

	heartbeatDone := make(chan struct{})
	heartbeatStopped := make(chan struct{})

	go func() {
		defer close(heartbeatStopped)

		ticker := time.NewTicker(o.config.HeartbeatInterval())
		defer ticker.Stop()

		for {
			select {
			case <-heartbeatDone:
				return
			case <-ticker.C:
				done := int(completed.Load())
				bad := int(failed.Load())
				o.fireHeartbeat(done, bad, total)
				o.log.Info("experiment heartbeat",
					zap.String("experiment_id", input.Experiment.ID),
					zap.Int("completed", done),
					zap.Int("failed", bad),
					zap.Int("total", total),
				)
			}
		}
	}()

	sem := make(chan struct{}, workers)

	// Buffered to the full sweep so abandoned workers never block sending.
	results := make(chan taskResult, total)
	submitted := 0

submit:
	for index, simulation := range input.Experiment.Simulations {
		// Checked before the select: with the context already done both
		// cases would be ready and the pick nondeterministic.
		if ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			break submit
		case sem <- struct{}{}:
		}

		simulation.Status = types.SimulationStatusRunning
		o.fireTaskStarted(simulation)
		submitted++

		go func(index int) {
			defer func() { <-sem }()

			results <- o.runOne(ctx, input, index)
		}(index)
	}

	grace := o.config.CancelGrace()
	ctxDone := ctx.Done()

	var graceExpired <-chan time.Time

drain:
	for drained := 0; drained < submitted; {
		select {
		case result := <-results:
			o.apply(input, result)
			drained++

			if result.status == types.SimulationStatusCompleted {
				completed.Add(1)
			} else {
				failed.Add(1)
			}
		case <-ctxDone:
			ctxDone = nil
			graceExpired = time.After(grace)
		case <-graceExpired:
			o.log.Warn("grace period expired with simulations still in flight",
				zap.String("experiment_id", input.Experiment.ID),
				zap.Int("in_flight", submitted-drained),
				zap.Duration("grace", grace),
			)

			break drain
		}
	}

	close(heartbeatDone)
	<-heartbeatStopped

	// Final heartbeat so observers see the terminal counts.
	o.fireHeartbeat(int(completed.Load()), int(failed.Load()), total)

	o.log.Info("experiment finished",
		zap.String("experiment_id", input.Experiment.ID),
		zap.Int("completed", int(completed.Load())),
		zap.Int("failed", int(failed.Load())),
		zap.Int("pending", input.Experiment.CountByStatus(types.SimulationStatusPending)),
		zap.Int("skipped_combinations", input.Experiment.SkippedCombinations),
	)

	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeExperimentCancelled, "experiment cancelled", err)
	}

	return nil
}

// runOne drives a single simulation and reports its terminal state as a
// value. It reads only the immutable simulation fields; all experiment
// mutation happens in apply, on Run's goroutine.
func (o *Orchestrator) runOne(ctx context.Context, input RunInput, index int) taskResult {
	simulation := input.Experiment.Simulations[index]

	start := time.Now()

	var blackouts []blackout.Window
	if o.config.BlackoutEnabled {
		blackouts = input.Blackouts
	}

	task := &sim.Task{
		Core:      input.Core,
		Registry:  o.registry,
		Strategy:  input.Strategy,
		Params:    simulation.Parameters,
		Blackouts: blackouts,
		Fee:       sim.GetCommissionFee(sim.Broker(o.config.Broker)),
		Strict:    o.config.Strict,
		Log:       o.log,
	}

	outcome, err := task.Run(ctx)

	result := taskResult{
		index:    index,
		duration: time.Since(start),
	}

	if err != nil {
		result.status = types.SimulationStatusFailed
		result.errMsg = err.Error()

		return result
	}

	metrics := outcome.Metrics
	result.status = types.SimulationStatusCompleted
	result.metrics = &metrics
	result.hash = repro.HashRun(simulation.Parameters, input.Manifest, metrics)
	result.trades = outcome.Trades

	return result
}

// apply writes one worker's result onto its simulation, records it and fires
// the finished event.
func (o *Orchestrator) apply(input RunInput, result taskResult) {
	simulation := input.Experiment.Simulations[result.index]

	simulation.Status = result.status
	simulation.ExecutionTime = result.duration

	if result.status == types.SimulationStatusFailed {
		simulation.Error = result.errMsg
		o.log.Warn("simulation failed",
			zap.String("simulation_id", simulation.ID),
			zap.String("error", result.errMsg),
		)
	} else {
		simulation.Results = result.metrics
		simulation.ReproducibilityHash = result.hash
	}

	if o.recorder != nil {
		if err := o.recorder.RecordSimulation(input.Experiment.ID, simulation, result.trades); err != nil {
			o.log.Warn("failed to record simulation",
				zap.String("simulation_id", simulation.ID),
				zap.Error(err),
			)
		}
	}

	o.fireTaskFinished(simulation)
}

// Rank builds the experiment result: completed simulations in descending
// metric order with the simulation id as the deterministic tie-break, failed
// simulations listed separately.
func (o *Orchestrator) Rank(experiment *types.Experiment, metric string) (*types.ExperimentResult, error) {
	ranked := make([]*types.Simulation, 0, len(experiment.Simulations))
	failedSims := make([]*types.Simulation, 0)

	for _, simulation := range experiment.Simulations {
		switch simulation.Status {
		case types.SimulationStatusCompleted:
			if _, ok := simulation.Results.Metric(metric); !ok {
				return nil, errors.Newf(errors.ErrCodeInvalidMetric, "unknown rank metric %q", metric)
			}

			ranked = append(ranked, simulation)
		case types.SimulationStatusFailed:
			failedSims = append(failedSims, simulation)
		}
	}

	sortSimulations(ranked, metric)

	return &types.ExperimentResult{
		ExperimentID:        experiment.ID,
		Name:                experiment.Name,
		RankedBy:            metric,
		Ranked:              ranked,
		Failed:              failedSims,
		SkippedCombinations: experiment.SkippedCombinations,
	}, nil
}

// sortSimulations orders by the metric descending. Equal metric values fall
// back to the simulation id so rank order is reproducible across runs.
func sortSimulations(sims []*types.Simulation, metric string) {
	sort.Slice(sims, func(i, j int) bool {
		a, _ := sims[i].Results.Metric(metric)
		b, _ := sims[j].Results.Metric(metric)

		if a != b {
			return a > b
		}

		return sims[i].ID < sims[j].ID
	})
}

func (o *Orchestrator) fireTaskStarted(simulation *types.Simulation) {
	o.eventMu.Lock()
	defer o.eventMu.Unlock()

	if o.events.OnTaskStarted != nil {
		o.events.OnTaskStarted(simulation)
	}
}

func (o *Orchestrator) fireTaskFinished(simulation *types.Simulation) {
	o.eventMu.Lock()
	defer o.eventMu.Unlock()

	if o.events.OnTaskFinished != nil {
		o.events.OnTaskFinished(simulation)
	}
}

func (o *Orchestrator) fireHeartbeat(completed, failed, total int) {
	o.eventMu.Lock()
	defer o.eventMu.Unlock()

	if o.events.OnHeartbeat != nil {
		o.events.OnHeartbeat(completed, failed, total)
	}
}
