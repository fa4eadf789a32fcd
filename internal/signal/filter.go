// Package signal holds entry-signal sets and the filters that enforce
// position-concurrency bounds on them.
package signal

import (
	"container/heap"

	"github.com/moznion/go-optional"
	"github.com/vectra-quant/backsweep/pkg/errors"
)

// Set is an ordered sequence of candle indices where a strategy's entry
// conditions are met. Indices are strictly increasing.
type Set []int

// Validate checks the strictly-increasing invariant.
func (s Set) Validate() error {
	for i := 1; i < len(s); i++ {
		if s[i] <= s[i-1] {
			return errors.Newf(errors.ErrCodeInvalidSignalSequence,
				"signal indices must be strictly increasing: index %d (%d) not after %d", i, s[i], s[i-1])
		}
	}

	return nil
}

// exitHeap is a min-heap over the exit indices of currently open positions.
type exitHeap []int

func (h exitHeap) Len() int           { return len(h) }
func (h exitHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h exitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *exitHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *exitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]

	return x
}

// FilterOverlapping removes signals that would exceed maxConcurrent open
// positions. The output is a subsequence of the input.
//
// When exits is provided it must be the same length as signals, with each
// exit index >= its entry; a signal is accepted when fewer than maxConcurrent
// accepted positions remain open at its index (open means exit index >= the
// current signal index).
//
// When exits is absent the filter is conservative: each accepted signal
// occupies the window up to the next raw signal, so with maxConcurrent=1 a
// signal is rejected while the previous accepted one is not yet known closed.
// This rejects more than a perfectly informed filter would; that trade-off is
// deliberate because exit timing is unknown at filter time.
//
// maxConcurrent <= 0 disables filtering and returns the input unchanged.
func FilterOverlapping(signals Set, exits optional.Option[[]int], maxConcurrent int) (Set, error) {
	if err := signals.Validate(); err != nil {
		return nil, err
	}

	if maxConcurrent <= 0 || len(signals) == 0 {
		return signals, nil
	}

	if exits.IsSome() {
		return filterWithExits(signals, exits.Unwrap(), maxConcurrent)
	}

	return filterConservative(signals, maxConcurrent), nil
}

func filterWithExits(signals Set, exits []int, maxConcurrent int) (Set, error) {
	if len(exits) != len(signals) {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"exits length %d does not match signals length %d", len(exits), len(signals))
	}

	open := &exitHeap{}
	heap.Init(open)

	accepted := make(Set, 0, len(signals))

	for i, idx := range signals {
		if exits[i] < idx {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter,
				"exit index %d precedes its entry %d", exits[i], idx)
		}

		// Retire positions whose exit is strictly before this signal.
		for open.Len() > 0 && (*open)[0] < idx {
			heap.Pop(open)
		}

		if open.Len() < maxConcurrent {
			accepted = append(accepted, idx)
			heap.Push(open, exits[i])
		}
	}

	return accepted, nil
}

// filterConservative treats each accepted signal as occupying the window up
// to the next raw signal. With maxConcurrent=1 this degenerates to accepting
// every other eligible signal boundary: a signal is accepted only if the
// previously accepted one's occupation window (which ends at the raw signal
// following it) has passed.
func filterConservative(signals Set, maxConcurrent int) Set {
	accepted := make(Set, 0, len(signals))

	// openUntil holds, for each accepted position, the raw-signal index after
	// which it is considered closed.
	open := &exitHeap{}
	heap.Init(open)

	for i, idx := range signals {
		for open.Len() > 0 && (*open)[0] < idx {
			heap.Pop(open)
		}

		if open.Len() < maxConcurrent {
			accepted = append(accepted, idx)

			// The position stays open through the next raw signal's index;
			// the signal after that sees it closed.
			if i+1 < len(signals) {
				heap.Push(open, signals[i+1])
			} else {
				heap.Push(open, signals[i])
			}
		}
	}

	return accepted
}
