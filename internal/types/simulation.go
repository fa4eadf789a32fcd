package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SimulationStatus is the lifecycle state of one simulation.
type SimulationStatus string

const (
	// SimulationStatusPending means the simulation is created but not scheduled.
	SimulationStatusPending SimulationStatus = "pending"
	// SimulationStatusRunning means a worker picked up the simulation.
	SimulationStatusRunning SimulationStatus = "running"
	// SimulationStatusCompleted means the simulation finished with results.
	SimulationStatusCompleted SimulationStatus = "completed"
	// SimulationStatusFailed means the simulation raised an unrecovered error,
	// captured at the task boundary.
	SimulationStatusFailed SimulationStatus = "failed"
)

// IsTerminal reports whether the status is completed or failed.
func (s SimulationStatus) IsTerminal() bool {
	return s == SimulationStatusCompleted || s == SimulationStatusFailed
}

// TimeRange bounds a simulation to a slice of the dataset. Zero values mean
// unbounded on that side.
type TimeRange struct {
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
}

// Simulation is one (strategy, instrument, parameter set) unit of work.
// The orchestrator creates simulations in pending state; a worker moves them
// running and then to a terminal state. Simulations never outlive their
// experiment.
type Simulation struct {
	ID            string           `yaml:"id"`
	Strategy      string           `yaml:"strategy"`
	Instrument    string           `yaml:"instrument"`
	TimeRange     TimeRange        `yaml:"time_range"`
	Parameters    ParameterSet     `yaml:"parameters"`
	Status        SimulationStatus `yaml:"status"`
	Error         string           `yaml:"error,omitempty"`
	ExecutionTime time.Duration    `yaml:"execution_time"`
	Results       *MetricsSummary  `yaml:"results,omitempty"`
	// ReproducibilityHash binds parameters, data identity and results.
	// Populated only for completed simulations.
	ReproducibilityHash string `yaml:"reproducibility_hash,omitempty"`
}

// ExperimentStatus is the aggregate lifecycle state of an experiment.
type ExperimentStatus string

const (
	ExperimentStatusRunning   ExperimentStatus = "running"
	ExperimentStatusCompleted ExperimentStatus = "completed"
)

// Experiment owns an ordered list of simulations plus the accounting of
// parameter combinations skipped during planning.
type Experiment struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Simulations []*Simulation `yaml:"simulations"`
	// SkippedCombinations counts parameter combinations dropped by
	// cross-parameter constraints during planning.
	SkippedCombinations int `yaml:"skipped_combinations"`
}

// Status derives the aggregate state: running while any child is pending or
// running, completed once every child reached a terminal state.
func (e *Experiment) Status() ExperimentStatus {
	for _, sim := range e.Simulations {
		if !sim.Status.IsTerminal() {
			return ExperimentStatusRunning
		}
	}

	return ExperimentStatusCompleted
}

// CountByStatus returns how many simulations currently hold the given status.
func (e *Experiment) CountByStatus(status SimulationStatus) int {
	count := 0

	for _, sim := range e.Simulations {
		if sim.Status == status {
			count++
		}
	}

	return count
}

// ExperimentResult is the exported view of a finished experiment: simulations
// in rank order plus the skip accounting. Field-accessible plain data; file
// format serialization beyond WriteYAML is left to the caller.
type ExperimentResult struct {
	ExperimentID        string        `yaml:"experiment_id"`
	Name                string        `yaml:"name"`
	RankedBy            string        `yaml:"ranked_by"`
	Ranked              []*Simulation `yaml:"ranked"`
	Failed              []*Simulation `yaml:"failed"`
	SkippedCombinations int           `yaml:"skipped_combinations"`
}

// WriteYAML writes the result to path as YAML.
func (r *ExperimentResult) WriteYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal experiment result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write experiment result to file: %w", err)
	}

	return nil
}
