package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNew() {
	err := New(ErrCodeUnknownIndicator, "indicator not registered")
	suite.Require().NotNil(err)
	suite.Equal(ErrCodeUnknownIndicator, err.Code)
	suite.Equal("[301] indicator not registered", err.Error())
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestNewf() {
	err := Newf(ErrCodeDuplicateIndicator, "indicator %q already registered", "sma")
	suite.Equal(`[300] indicator "sma" already registered`, err.Error())
}

func (suite *ErrorTestSuite) TestWrap() {
	cause := stderrors.New("division by zero")
	err := Wrap(ErrCodeIndicatorCompute, "compute failed", cause)
	suite.Equal("[303] compute failed: division by zero", err.Error())
	suite.Equal(cause, err.Unwrap())
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestWrapf() {
	cause := stderrors.New("boom")
	err := Wrapf(ErrCodeSimulationTask, cause, "task %d failed", 3)
	suite.Equal("[500] task 3 failed: boom", err.Error())
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestGetCode() {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{"structured error", New(ErrCodeDependencyCycle, "cycle"), ErrCodeDependencyCycle},
		{"wrapped in fmt", fmt.Errorf("outer: %w", New(ErrCodeColumnNotFound, "missing")), ErrCodeColumnNotFound},
		{"plain error", stderrors.New("plain"), ErrCodeUnknown},
		{"nil error", nil, ErrCodeUnknown},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, GetCode(tc.err))
		})
	}
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeInvalidCoreDataset, "bad dataset")
	suite.True(HasCode(err, ErrCodeInvalidCoreDataset))
	suite.False(HasCode(err, ErrCodeUnknownIndicator))
}

func (suite *ErrorTestSuite) TestAs() {
	var target *Error

	err := fmt.Errorf("context: %w", New(ErrCodeStoreQueryFailed, "query failed"))
	suite.True(As(err, &target))
	suite.Equal(ErrCodeStoreQueryFailed, target.Code)
}
