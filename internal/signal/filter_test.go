package signal

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"github.com/vectra-quant/backsweep/pkg/errors"
)

type FilterTestSuite struct {
	suite.Suite
}

func TestFilterSuite(t *testing.T) {
	suite.Run(t, new(FilterTestSuite))
}

func (suite *FilterTestSuite) TestValidate() {
	suite.NoError(Set{1, 2, 10}.Validate())
	suite.NoError(Set{}.Validate())

	err := Set{5, 5, 9}.Validate()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSignalSequence))
}

func (suite *FilterTestSuite) TestConservativeExample() {
	// 12 is rejected because the position opened at 10 is still considered
	// open until the next raw signal has passed.
	out, err := FilterOverlapping(Set{10, 12, 50}, optional.None[[]int](), 1)
	suite.Require().NoError(err)
	suite.Equal(Set{10, 50}, out)
}

func (suite *FilterTestSuite) TestConservativeConsecutive() {
	out, err := FilterOverlapping(Set{1, 2, 3, 4}, optional.None[[]int](), 1)
	suite.Require().NoError(err)
	suite.Equal(Set{1, 3}, out)
}

func (suite *FilterTestSuite) TestPassThrough() {
	signals := Set{3, 7, 9}

	for _, maxConcurrent := range []int{0, -1} {
		out, err := FilterOverlapping(signals, optional.None[[]int](), maxConcurrent)
		suite.Require().NoError(err)
		suite.Equal(signals, out)
	}
}

func (suite *FilterTestSuite) TestWithExits() {
	signals := Set{10, 12, 50}
	exits := []int{11, 20, 60}

	// Position from 10 exits at 11, so 12 is free to enter.
	out, err := FilterOverlapping(signals, optional.Some(exits), 1)
	suite.Require().NoError(err)
	suite.Equal(Set{10, 12, 50}, out)
}

func (suite *FilterTestSuite) TestWithExitsOverlapRejected() {
	signals := Set{10, 12, 50}
	exits := []int{30, 20, 60}

	// Position from 10 stays open through 30; 12 violates maxConcurrent=1.
	out, err := FilterOverlapping(signals, optional.Some(exits), 1)
	suite.Require().NoError(err)
	suite.Equal(Set{10, 50}, out)
}

func (suite *FilterTestSuite) TestWithExitsMaxConcurrentTwo() {
	signals := Set{10, 12, 14, 50}
	exits := []int{30, 20, 40, 60}

	out, err := FilterOverlapping(signals, optional.Some(exits), 2)
	suite.Require().NoError(err)
	suite.Equal(Set{10, 12, 50}, out)
}

func (suite *FilterTestSuite) TestWithExitsValidation() {
	_, err := FilterOverlapping(Set{10, 20}, optional.Some([]int{15}), 1)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = FilterOverlapping(Set{10, 20}, optional.Some([]int{5, 25}), 1)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *FilterTestSuite) TestOutputIsSubsequence() {
	signals := Set{2, 4, 6, 8, 10, 12, 14}

	out, err := FilterOverlapping(signals, optional.None[[]int](), 1)
	suite.Require().NoError(err)

	// Subsequence check: every accepted index appears in the input in order.
	pos := 0
	for _, idx := range out {
		found := false

		for pos < len(signals) {
			if signals[pos] == idx {
				found = true
				pos++

				break
			}
			pos++
		}

		suite.True(found, "index %d is not an in-order member of the input", idx)
	}

	suite.NoError(out.Validate())
}

func (suite *FilterTestSuite) TestInvalidInputRejected() {
	_, err := FilterOverlapping(Set{5, 3}, optional.None[[]int](), 1)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSignalSequence))
}
