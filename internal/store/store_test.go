package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vectra-quant/backsweep/internal/logger"
	"github.com/vectra-quant/backsweep/internal/types"
	"github.com/vectra-quant/backsweep/pkg/errors"
)

type StoreTestSuite struct {
	suite.Suite
	store *ResultStore
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (suite *StoreTestSuite) SetupTest() {
	store, err := NewResultStore("", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(store.Initialize())
	suite.store = store
}

func (suite *StoreTestSuite) TearDownTest() {
	suite.Require().NoError(suite.store.Close())
}

func (suite *StoreTestSuite) completedSimulation(id string, totalPnL float64) (*types.Simulation, []types.TradeExecution) {
	entry := time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)

	trades := []types.TradeExecution{{
		EntryIndex: 10,
		ExitIndex:  14,
		EntryTime:  entry,
		ExitTime:   entry.Add(4 * time.Minute),
		EntryPrice: 100,
		ExitPrice:  102,
		Quantity:   50,
		Fee:        1,
		ExitReason: types.ExitReasonTarget,
		PnL:        totalPnL,
	}}

	metrics := types.NewMetricsSummary(trades)

	return &types.Simulation{
		ID:                  id,
		Strategy:            "sma_crossover",
		Instrument:          "EURUSD",
		Parameters:          types.ParameterSet{"sma_fast.period": 5},
		Status:              types.SimulationStatusCompleted,
		ExecutionTime:       25 * time.Millisecond,
		Results:             &metrics,
		ReproducibilityHash: "hash-" + id,
	}, trades
}

func (suite *StoreTestSuite) TestRecordAndQuery() {
	first, firstTrades := suite.completedSimulation("sim-a", 40)
	second, secondTrades := suite.completedSimulation("sim-b", 99)

	suite.Require().NoError(suite.store.RecordSimulation("exp-1", first, firstTrades))
	suite.Require().NoError(suite.store.RecordSimulation("exp-1", second, secondTrades))

	records, err := suite.store.TopByMetric("exp-1", "total_pnl", 10)
	suite.Require().NoError(err)
	suite.Require().Len(records, 2)
	suite.Equal("sim-b", records[0].SimulationID)
	suite.InDelta(99.0, records[0].MetricValue, 1e-9)
	suite.Equal("sim-a", records[1].SimulationID)
	suite.Equal("hash-sim-a", records[1].ReproducibilityHash)
}

func (suite *StoreTestSuite) TestExecutionsRoundTrip() {
	simulation, trades := suite.completedSimulation("sim-a", 40)
	suite.Require().NoError(suite.store.RecordSimulation("exp-1", simulation, trades))

	stored, err := suite.store.ExecutionsFor("sim-a")
	suite.Require().NoError(err)
	suite.Require().Len(stored, 1)
	suite.Equal(trades[0].EntryIndex, stored[0].EntryIndex)
	suite.Equal(trades[0].ExitReason, stored[0].ExitReason)
	suite.InDelta(trades[0].PnL, stored[0].PnL, 1e-9)
	suite.True(trades[0].EntryTime.Equal(stored[0].EntryTime))
}

func (suite *StoreTestSuite) TestRecordFailedSimulation() {
	simulation := &types.Simulation{
		ID:       "sim-failed",
		Strategy: "sma_crossover",
		Status:   types.SimulationStatusFailed,
		Error:    "enrichment failed",
	}

	suite.Require().NoError(suite.store.RecordSimulation("exp-1", simulation, nil))

	// Failed simulations are stored but excluded from rankings.
	records, err := suite.store.TopByMetric("exp-1", "total_pnl", 10)
	suite.Require().NoError(err)
	suite.Empty(records)
}

func (suite *StoreTestSuite) TestRecordPendingRejected() {
	simulation := &types.Simulation{ID: "sim-pending", Status: types.SimulationStatusPending}

	err := suite.store.RecordSimulation("exp-1", simulation, nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStoreWriteFailed))
}

func (suite *StoreTestSuite) TestTopByMetricValidation() {
	_, err := suite.store.TopByMetric("exp-1", "sharpe_cubed", 10)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidMetric))

	_, err = suite.store.TopByMetric("exp-1", "total_pnl", 0)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *StoreTestSuite) TestWriteParquet() {
	simulation, trades := suite.completedSimulation("sim-a", 40)
	suite.Require().NoError(suite.store.RecordSimulation("exp-1", simulation, trades))

	dir := suite.T().TempDir()
	suite.Require().NoError(suite.store.Write(dir))
	suite.FileExists(dir + "/simulations.parquet")
	suite.FileExists(dir + "/executions.parquet")
}

func (suite *StoreTestSuite) TestCleanup() {
	simulation, trades := suite.completedSimulation("sim-a", 40)
	suite.Require().NoError(suite.store.RecordSimulation("exp-1", simulation, trades))
	suite.Require().NoError(suite.store.Cleanup())

	records, err := suite.store.TopByMetric("exp-1", "total_pnl", 10)
	suite.Require().NoError(err)
	suite.Empty(records)
}
