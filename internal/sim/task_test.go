package sim

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vectra-quant/backsweep/internal/blackout"
	"github.com/vectra-quant/backsweep/internal/enrich"
	"github.com/vectra-quant/backsweep/internal/indicator"
	"github.com/vectra-quant/backsweep/internal/logger"
	"github.com/vectra-quant/backsweep/internal/signal"
	"github.com/vectra-quant/backsweep/internal/strategy"
	"github.com/vectra-quant/backsweep/internal/types"
	"github.com/vectra-quant/backsweep/pkg/errors"
)

type TaskTestSuite struct {
	suite.Suite
	registry *indicator.Registry
	core     *types.CoreDataset
}

func TestTaskSuite(t *testing.T) {
	suite.Run(t, new(TaskTestSuite))
}

func (suite *TaskTestSuite) SetupTest() {
	suite.registry = indicator.NewRegistry()
	suite.Require().NoError(indicator.RegisterBuiltins(suite.registry))

	base := time.Date(2024, 4, 1, 13, 30, 0, 0, time.UTC)

	candles := make([]types.Candle, 300)
	for i := range candles {
		price := 100 + 10*math.Sin(float64(i)/15)
		candles[i] = types.Candle{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		}
	}

	var err error

	suite.core, err = types.NewCoreDataset(candles)
	suite.Require().NoError(err)
}

func (suite *TaskTestSuite) newTask() *Task {
	return &Task{
		Core:     suite.core,
		Registry: suite.registry,
		Strategy: strategy.NewSMACrossover(1),
		Params: types.ParameterSet{
			"sma_fast.period": 5,
			"sma_slow.period": 20,
			"target_pct":      0.02,
			"stop_pct":        0.01,
		},
		Fee:    NewZeroCommissionFee(),
		Strict: true,
		Log:    logger.NewNopLogger(),
	}
}

func (suite *TaskTestSuite) TestRunPipeline() {
	outcome, err := suite.newTask().Run(context.Background())
	suite.Require().NoError(err)
	suite.Require().NotNil(outcome)

	// A sine-wave price series must generate crossovers.
	suite.Positive(outcome.RawSignals)
	suite.LessOrEqual(outcome.AcceptedSignals, outcome.RawSignals)
	suite.Len(outcome.Trades, outcome.AcceptedSignals)
	suite.Equal(len(outcome.Trades), outcome.Metrics.NumberOfTrades)
	suite.Empty(outcome.FailedIndicators)
}

func (suite *TaskTestSuite) TestRunDeterministic() {
	first, err := suite.newTask().Run(context.Background())
	suite.Require().NoError(err)

	second, err := suite.newTask().Run(context.Background())
	suite.Require().NoError(err)

	suite.Equal(first.Metrics.Digest(), second.Metrics.Digest())
	suite.Equal(first.Trades, second.Trades)
}

func (suite *TaskTestSuite) TestRunWithBlackouts() {
	unfiltered, err := suite.newTask().Run(context.Background())
	suite.Require().NoError(err)
	suite.Require().Positive(unfiltered.AcceptedSignals)

	// Black out the whole dataset range; every signal must be rejected.
	task := suite.newTask()
	task.Blackouts = blackout.Merge([]blackout.Window{{
		Start: suite.core.Time(0),
		End:   suite.core.Time(suite.core.Len() - 1),
	}})

	outcome, err := task.Run(context.Background())
	suite.Require().NoError(err)
	suite.Zero(outcome.AcceptedSignals)
	suite.Empty(outcome.Trades)
}

func (suite *TaskTestSuite) TestRunCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.newTask().Run(ctx)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSimulationCancelled))
}

type panickingStrategy struct{}

func (panickingStrategy) Name() string                 { return "panicking" }
func (panickingStrategy) RequiredIndicators() []string { return nil }
func (panickingStrategy) MaxConcurrentPositions() int  { return 1 }

func (panickingStrategy) Scan(*enrich.Dataset, types.ParameterSet) (signal.Set, error) {
	panic("engineered panic")
}

func (suite *TaskTestSuite) TestRunRecoversPanic() {
	task := suite.newTask()
	task.Strategy = panickingStrategy{}

	outcome, err := task.Run(context.Background())
	suite.Require().Error(err)
	suite.Nil(outcome)
	suite.True(errors.HasCode(err, errors.ErrCodeSimulationTask))
	suite.Contains(err.Error(), "engineered panic")
}

func (suite *TaskTestSuite) TestRunUnknownIndicatorStrict() {
	task := suite.newTask()
	task.Strategy = strategy.NewRSIReversion(1)
	task.Registry = indicator.NewRegistry() // nothing registered

	_, err := task.Run(context.Background())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSimulationTask))
}
