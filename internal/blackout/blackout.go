// Package blackout builds and merges the time windows during which new
// entries are disallowed: scheduled news events and recurring session gaps.
package blackout

import (
	"sort"
	"time"

	"github.com/vectra-quant/backsweep/pkg/errors"
)

// Source identifies what produced a window.
type Source string

const (
	SourceNews    Source = "news"
	SourceSession Source = "session"
	// SourceManual marks windows supplied directly by the operator rather
	// than derived from a calendar or session schedule.
	SourceManual Source = "manual"
)

// Window is one blackout interval. Both bounds are inclusive.
type Window struct {
	Start  time.Time `yaml:"start"`
	End    time.Time `yaml:"end"`
	Source Source    `yaml:"source"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// CalendarEvent is a scheduled news release supplied by the calendar
// collaborator.
type CalendarEvent struct {
	Name     string
	Currency string
	Time     time.Time
}

// NewsWindows emits one window per event spanning
// [event - pre, event + post].
func NewsWindows(events []CalendarEvent, pre, post time.Duration) []Window {
	windows := make([]Window, 0, len(events))

	for _, event := range events {
		windows = append(windows, Window{
			Start:  event.Time.Add(-pre).UTC(),
			End:    event.Time.Add(post).UTC(),
			Source: SourceNews,
		})
	}

	return windows
}

// SessionAnchor describes one recurring daily blackout in local wall-clock
// time, e.g. NY close through Asian open. Each anchor converts to UTC using
// its own timezone, so daylight saving shifts are handled per anchor.
type SessionAnchor struct {
	// Name labels the anchor for diagnostics.
	Name string
	// StartHour/StartMinute are the local wall-clock start.
	StartHour   int
	StartMinute int
	// Duration is how long the blackout lasts from the local start.
	Duration time.Duration
	// Location is the IANA timezone name, e.g. "America/New_York".
	Location string
}

// SessionWindows emits one window per anchor per day of [from, to].
// Days iterate in the anchor's local calendar so that the wall-clock start
// stays fixed across daylight saving transitions.
func SessionWindows(from, to time.Time, anchors []SessionAnchor) ([]Window, error) {
	if to.Before(from) {
		return nil, errors.Newf(errors.ErrCodeInvalidTimeRange,
			"session range end %s before start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}

	var windows []Window

	for _, anchor := range anchors {
		loc, err := time.LoadLocation(anchor.Location)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err,
				"session anchor %q has unknown location %q", anchor.Name, anchor.Location)
		}

		localFrom := from.In(loc)
		day := time.Date(localFrom.Year(), localFrom.Month(), localFrom.Day(), 0, 0, 0, 0, loc)

		for !day.After(to.In(loc)) {
			start := time.Date(day.Year(), day.Month(), day.Day(), anchor.StartHour, anchor.StartMinute, 0, 0, loc)
			end := start.Add(anchor.Duration)

			if end.After(from) && start.Before(to) {
				windows = append(windows, Window{
					Start:  start.UTC(),
					End:    end.UTC(),
					Source: SourceSession,
				})
			}

			day = day.AddDate(0, 0, 1)
		}
	}

	return windows, nil
}

// Merge sorts the windows by start and unions any overlapping or touching
// pair. The result is disjoint, sorted and minimal. Merging is idempotent.
// A merged window keeps the source of its first member.
func Merge(windows []Window) []Window {
	if len(windows) == 0 {
		return nil
	}

	sorted := make([]Window, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}

		return sorted[i].End.Before(sorted[j].End)
	})

	merged := []Window{sorted[0]}

	for _, w := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !w.Start.After(last.End) {
			if w.End.After(last.End) {
				last.End = w.End
			}

			continue
		}

		merged = append(merged, w)
	}

	return merged
}

// Contains reports whether t lies in any of the merged windows using binary
// search. The windows must be disjoint and sorted, i.e. output of Merge.
func Contains(merged []Window, t time.Time) bool {
	// First window starting after t; the candidate is the one before it.
	idx := sort.Search(len(merged), func(i int) bool {
		return merged[i].Start.After(t)
	})

	if idx == 0 {
		return false
	}

	return merged[idx-1].Contains(t)
}

// FilterSignals drops every signal whose timestamp falls in a blackout
// window. The mask is built by intersecting per-window rejections over the
// signal array only; the full dataset is never scanned.
func FilterSignals(signals []int, timestamps []time.Time, merged []Window) []int {
	if len(signals) == 0 || len(merged) == 0 {
		return signals
	}

	keep := make([]bool, len(signals))
	for i := range keep {
		keep[i] = true
	}

	// Signals are increasing, so each window masks a contiguous run found by
	// binary search over the signal timestamps.
	for _, w := range merged {
		lo := sort.Search(len(signals), func(i int) bool {
			return !timestamps[signals[i]].Before(w.Start)
		})
		hi := sort.Search(len(signals), func(i int) bool {
			return timestamps[signals[i]].After(w.End)
		})

		for i := lo; i < hi; i++ {
			keep[i] = false
		}
	}

	out := make([]int, 0, len(signals))

	for i, idx := range signals {
		if keep[i] {
			out = append(out, idx)
		}
	}

	return out
}
