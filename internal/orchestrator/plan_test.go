package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vectra-quant/backsweep/internal/logger"
	"github.com/vectra-quant/backsweep/internal/types"
	"github.com/vectra-quant/backsweep/pkg/errors"
)

type PlanTestSuite struct {
	suite.Suite
	orchestrator *Orchestrator
}

func TestPlanSuite(t *testing.T) {
	suite.Run(t, new(PlanTestSuite))
}

func (suite *PlanTestSuite) SetupTest() {
	suite.orchestrator = NewOrchestrator(EmptyConfig(), nil, logger.NewNopLogger())
}

func (suite *PlanTestSuite) TestCartesianExpansion() {
	sets, skipped, err := suite.orchestrator.Plan([]ParameterRange{
		{Name: "fast", Values: []float64{5, 10, 15}},
		{Name: "slow", Values: []float64{20, 30}},
	}, nil)
	suite.Require().NoError(err)
	suite.Zero(skipped)
	suite.Len(sets, 6)

	// Last range varies fastest, deterministically.
	suite.Equal(types.ParameterSet{"fast": 5, "slow": 20}, sets[0])
	suite.Equal(types.ParameterSet{"fast": 5, "slow": 30}, sets[1])
	suite.Equal(types.ParameterSet{"fast": 10, "slow": 20}, sets[2])
	suite.Equal(types.ParameterSet{"fast": 15, "slow": 30}, sets[5])
}

func (suite *PlanTestSuite) TestConstraintSkips() {
	sets, skipped, err := suite.orchestrator.Plan([]ParameterRange{
		{Name: "fast", Values: []float64{10, 30}},
		{Name: "slow", Values: []float64{20, 40}},
	}, []Constraint{LessThan("fast", "slow")})
	suite.Require().NoError(err)

	// (30, 20) violates fast < slow; the other three survive.
	suite.Equal(1, skipped)
	suite.Len(sets, 3)

	for _, params := range sets {
		suite.Less(params["fast"], params["slow"])
	}
}

func (suite *PlanTestSuite) TestSingleRange() {
	sets, skipped, err := suite.orchestrator.Plan([]ParameterRange{
		{Name: "period", Values: []float64{14}},
	}, nil)
	suite.Require().NoError(err)
	suite.Zero(skipped)
	suite.Require().Len(sets, 1)
	suite.Equal(14.0, sets[0]["period"])
}

func (suite *PlanTestSuite) TestEmptySweep() {
	_, _, err := suite.orchestrator.Plan(nil, nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeEmptySweep))
}

func (suite *PlanTestSuite) TestDuplicateRange() {
	_, _, err := suite.orchestrator.Plan([]ParameterRange{
		{Name: "period", Values: []float64{5}},
		{Name: "period", Values: []float64{10}},
	}, nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *PlanTestSuite) TestEmptyValues() {
	_, _, err := suite.orchestrator.Plan([]ParameterRange{{Name: "period"}}, nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}
