package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type SimulationTestSuite struct {
	suite.Suite
}

func TestSimulationSuite(t *testing.T) {
	suite.Run(t, new(SimulationTestSuite))
}

func (suite *SimulationTestSuite) TestStatusTerminal() {
	suite.False(SimulationStatusPending.IsTerminal())
	suite.False(SimulationStatusRunning.IsTerminal())
	suite.True(SimulationStatusCompleted.IsTerminal())
	suite.True(SimulationStatusFailed.IsTerminal())
}

func (suite *SimulationTestSuite) TestExperimentStatus() {
	experiment := &Experiment{
		Simulations: []*Simulation{
			{ID: "a", Status: SimulationStatusCompleted},
			{ID: "b", Status: SimulationStatusRunning},
		},
	}
	suite.Equal(ExperimentStatusRunning, experiment.Status())

	experiment.Simulations[1].Status = SimulationStatusFailed
	suite.Equal(ExperimentStatusCompleted, experiment.Status())
	suite.Equal(1, experiment.CountByStatus(SimulationStatusCompleted))
	suite.Equal(1, experiment.CountByStatus(SimulationStatusFailed))
}

func (suite *SimulationTestSuite) TestParameterSetCanonicalString() {
	params := ParameterSet{"slow": 30, "fast": 10, "target": 1.5}
	suite.Equal("fast=10,slow=30,target=1.5", params.CanonicalString())

	clone := params.Clone()
	clone["fast"] = 12
	suite.Equal(10.0, params["fast"], "clone must be independent")
}

func (suite *SimulationTestSuite) TestParameterSetAccessors() {
	params := ParameterSet{"period": 14}
	suite.Equal(14, params.GetInt("period", 20))
	suite.Equal(20, params.GetInt("missing", 20))
	suite.Equal(14.0, params.Get("period", 20))
	suite.Equal(2.5, params.Get("missing", 2.5))
}

func (suite *SimulationTestSuite) TestWriteYAML() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "result.yaml")

	summary := NewMetricsSummary(nil)
	result := &ExperimentResult{
		ExperimentID: "exp-1",
		Name:         "smoke",
		RankedBy:     "total_pnl",
		Ranked: []*Simulation{
			{ID: "sim-1", Status: SimulationStatusCompleted, Results: &summary},
		},
	}

	suite.Require().NoError(result.WriteYAML(path))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Contains(string(data), "experiment_id: exp-1")
	suite.Contains(string(data), "ranked_by: total_pnl")
}
