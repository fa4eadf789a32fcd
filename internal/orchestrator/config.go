package orchestrator

import (
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vectra-quant/backsweep/pkg/errors"
	"github.com/vectra-quant/backsweep/pkg/utils"
	"gopkg.in/yaml.v2"
)

// Config controls batch execution.
type Config struct {
	// WorkerCount is the worker pool size. Zero selects the default of
	// max(1, NumCPU-1).
	WorkerCount int `yaml:"worker_count" json:"worker_count" jsonschema:"title=Worker Count,description=Worker pool size; 0 selects max(1. NumCPU-1)" validate:"gte=0"`
	// MemoryCeilingMB caps total enrichment memory across workers. Zero
	// disables the cap.
	MemoryCeilingMB int `yaml:"memory_ceiling_mb" json:"memory_ceiling_mb" validate:"gte=0"`
	// PerWorkerPeakMB estimates one worker's peak memory: one enriched copy
	// of the dataset plus auxiliary arrays. Used only for pool sizing.
	PerWorkerPeakMB int `yaml:"per_worker_peak_mb" json:"per_worker_peak_mb" validate:"gte=0"`
	// HeartbeatSeconds is the progress reporting cadence.
	HeartbeatSeconds int `yaml:"heartbeat_seconds" json:"heartbeat_seconds" validate:"gte=1"`
	// CancelGraceSeconds bounds how long Run waits for in-flight tasks after
	// cancellation.
	CancelGraceSeconds int `yaml:"cancel_grace_seconds" json:"cancel_grace_seconds" validate:"gte=1"`
	// Strict aborts a simulation on any unknown indicator or compute failure
	// instead of recording and skipping it.
	Strict bool `yaml:"strict" json:"strict"`
	// BlackoutEnabled applies blackout windows to accepted signals. When
	// false, provided windows are ignored.
	BlackoutEnabled bool `yaml:"blackout_enabled" json:"blackout_enabled"`
	// Broker selects the commission model applied to executions.
	Broker string `yaml:"broker" json:"broker" validate:"omitempty,oneof=interactive_broker zero_commission"`
	// RankMetric orders completed simulations in the experiment result.
	RankMetric string `yaml:"rank_metric" json:"rank_metric" validate:"required"`
}

// EmptyConfig returns the defaults.
func EmptyConfig() Config {
	return Config{
		WorkerCount:        0,
		MemoryCeilingMB:    0,
		PerWorkerPeakMB:    0,
		HeartbeatSeconds:   5,
		CancelGraceSeconds: 10,
		Strict:             true,
		BlackoutEnabled:    true,
		Broker:             "zero_commission",
		RankMetric:         "total_pnl",
	}
}

// ParseConfig unmarshals and validates a YAML config, applying defaults for
// absent fields.
func ParseConfig(content string) (Config, error) {
	config := EmptyConfig()

	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := validator.New().Struct(config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "config validation failed", err)
	}

	return config, nil
}

// GenerateSchemaJSON returns the JSON schema of the configuration.
func (c Config) GenerateSchemaJSON() (string, error) {
	return utils.GetSchemaFromConfig(c)
}

// HeartbeatInterval returns the reporting cadence, clamped to one second so
// that a zero-value config cannot arm a ticker with a non-positive period.
func (c Config) HeartbeatInterval() time.Duration {
	seconds := c.HeartbeatSeconds
	if seconds < 1 {
		seconds = 1
	}

	return time.Duration(seconds) * time.Second
}

// CancelGrace returns how long Run waits for in-flight simulations after
// cancellation, clamped to one second like HeartbeatInterval.
func (c Config) CancelGrace() time.Duration {
	seconds := c.CancelGraceSeconds
	if seconds < 1 {
		seconds = 1
	}

	return time.Duration(seconds) * time.Second
}

// EffectiveWorkers resolves the pool size: the configured count or the
// default, then lowered until workers x per-worker peak memory fits under the
// ceiling. Memory budgeting is a scheduling constraint, not a correctness
// one.
func (c Config) EffectiveWorkers() int {
	workers := c.WorkerCount
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
	}

	if workers < 1 {
		workers = 1
	}

	if c.MemoryCeilingMB > 0 && c.PerWorkerPeakMB > 0 {
		budget := c.MemoryCeilingMB / c.PerWorkerPeakMB
		if budget < 1 {
			budget = 1
		}

		if workers > budget {
			workers = budget
		}
	}

	return workers
}
