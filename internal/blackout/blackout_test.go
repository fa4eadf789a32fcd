package blackout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vectra-quant/backsweep/pkg/errors"
)

type BlackoutTestSuite struct {
	suite.Suite
}

func TestBlackoutSuite(t *testing.T) {
	suite.Run(t, new(BlackoutTestSuite))
}

func utc(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func (suite *BlackoutTestSuite) TestNewsWindows() {
	events := []CalendarEvent{
		{Name: "NFP", Currency: "USD", Time: utc(2024, 6, 7, 12, 30)},
		{Name: "CPI", Currency: "USD", Time: utc(2024, 6, 12, 12, 30)},
	}

	windows := NewsWindows(events, 15*time.Minute, 30*time.Minute)
	suite.Require().Len(windows, 2)
	suite.Equal(utc(2024, 6, 7, 12, 15), windows[0].Start)
	suite.Equal(utc(2024, 6, 7, 13, 0), windows[0].End)
	suite.Equal(SourceNews, windows[0].Source)
}

func (suite *BlackoutTestSuite) TestSessionWindowsDST() {
	anchors := []SessionAnchor{
		{Name: "ny_close", StartHour: 17, StartMinute: 0, Duration: time.Hour, Location: "America/New_York"},
	}

	// US daylight saving started 2024-03-10. The 17:00 New York wall-clock
	// anchor is 22:00 UTC before the transition and 21:00 UTC after it.
	windows, err := SessionWindows(utc(2024, 3, 8, 0, 0), utc(2024, 3, 12, 23, 59), anchors)
	suite.Require().NoError(err)
	suite.Require().Len(windows, 5)

	suite.Equal(utc(2024, 3, 8, 22, 0), windows[0].Start)
	suite.Equal(utc(2024, 3, 11, 21, 0), windows[3].Start)
}

func (suite *BlackoutTestSuite) TestSessionWindowsInvalidRange() {
	_, err := SessionWindows(utc(2024, 3, 12, 0, 0), utc(2024, 3, 8, 0, 0), nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeRange))
}

func (suite *BlackoutTestSuite) TestSessionWindowsUnknownLocation() {
	anchors := []SessionAnchor{{Name: "bad", Location: "Atlantis/Capital"}}

	_, err := SessionWindows(utc(2024, 3, 8, 0, 0), utc(2024, 3, 9, 0, 0), anchors)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *BlackoutTestSuite) TestMergeOverlapping() {
	// Windows [100,200] and [180,250] merge to [100,250].
	base := utc(2024, 1, 1, 0, 0)
	windows := []Window{
		{Start: base.Add(100 * time.Minute), End: base.Add(200 * time.Minute), Source: SourceNews},
		{Start: base.Add(180 * time.Minute), End: base.Add(250 * time.Minute), Source: SourceSession},
	}

	merged := Merge(windows)
	suite.Require().Len(merged, 1)
	suite.Equal(base.Add(100*time.Minute), merged[0].Start)
	suite.Equal(base.Add(250*time.Minute), merged[0].End)
}

func (suite *BlackoutTestSuite) TestMergeIdempotent() {
	base := utc(2024, 1, 1, 0, 0)
	windows := []Window{
		{Start: base.Add(5 * time.Hour), End: base.Add(6 * time.Hour)},
		{Start: base, End: base.Add(time.Hour)},
		{Start: base.Add(30 * time.Minute), End: base.Add(2 * time.Hour)},
	}

	once := Merge(windows)
	twice := Merge(once)
	suite.Equal(once, twice)

	// Result must be disjoint and sorted.
	for i := 1; i < len(once); i++ {
		suite.True(once[i].Start.After(once[i-1].End))
	}
}

func (suite *BlackoutTestSuite) TestContains() {
	base := utc(2024, 1, 1, 0, 0)
	merged := Merge([]Window{
		{Start: base, End: base.Add(time.Hour)},
		{Start: base.Add(3 * time.Hour), End: base.Add(4 * time.Hour)},
	})

	suite.True(Contains(merged, base))
	suite.True(Contains(merged, base.Add(time.Hour))) // inclusive end
	suite.False(Contains(merged, base.Add(90*time.Minute)))
	suite.True(Contains(merged, base.Add(210*time.Minute)))
	suite.False(Contains(merged, base.Add(5*time.Hour)))
	suite.False(Contains(nil, base))
}

func (suite *BlackoutTestSuite) TestFilterSignals() {
	base := utc(2024, 1, 1, 0, 0)

	timestamps := make([]time.Time, 100)
	for i := range timestamps {
		timestamps[i] = base.Add(time.Duration(i) * time.Minute)
	}

	merged := Merge([]Window{
		{Start: base.Add(10 * time.Minute), End: base.Add(20 * time.Minute)},
		{Start: base.Add(50 * time.Minute), End: base.Add(55 * time.Minute)},
	})

	signals := []int{5, 10, 15, 21, 52, 80}
	filtered := FilterSignals(signals, timestamps, merged)
	suite.Equal([]int{5, 21, 80}, filtered)
}

func (suite *BlackoutTestSuite) TestFilterSignalsNoWindows() {
	signals := []int{1, 2, 3}
	suite.Equal(signals, FilterSignals(signals, nil, nil))
}
