package indicator

import "math"

// Rolling window primitives used by the built-in indicators and the
// vectorized strategies. All of them run in O(n) regardless of window size:
// sums and means keep a running total, extremes use a monotonic deque.
// Positions before the window is filled hold NaN.

// RollingSum returns the sum of each trailing window.
func RollingSum(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || window > len(values) {
		return out
	}

	sum := 0.0

	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}

		if i >= window-1 {
			out[i] = sum
		}
	}

	return out
}

// RollingMean returns the mean of each trailing window.
func RollingMean(values []float64, window int) []float64 {
	out := RollingSum(values, window)
	for i, v := range out {
		if !math.IsNaN(v) {
			out[i] = v / float64(window)
		}
	}

	return out
}

// RollingStd returns the population standard deviation of each trailing
// window, computed from running sums of values and squares.
func RollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || window > len(values) {
		return out
	}

	var sum, sumSq float64

	for i, v := range values {
		sum += v
		sumSq += v * v

		if i >= window {
			prev := values[i-window]
			sum -= prev
			sumSq -= prev * prev
		}

		if i >= window-1 {
			n := float64(window)
			mean := sum / n

			variance := sumSq/n - mean*mean
			if variance < 0 {
				variance = 0 // numeric noise
			}

			out[i] = math.Sqrt(variance)
		}
	}

	return out
}

// RollingMax returns the maximum of each trailing window using a monotonic
// deque of candidate indices.
func RollingMax(values []float64, window int) []float64 {
	return rollingExtreme(values, window, func(a, b float64) bool { return a >= b })
}

// RollingMin returns the minimum of each trailing window.
func RollingMin(values []float64, window int) []float64 {
	return rollingExtreme(values, window, func(a, b float64) bool { return a <= b })
}

// rollingExtreme keeps deque entries whose values dominate every later entry,
// so the front is always the current window's extreme.
func rollingExtreme(values []float64, window int, dominates func(a, b float64) bool) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || window > len(values) {
		return out
	}

	deque := make([]int, 0, window)

	for i, v := range values {
		// Drop indices that fell out of the window.
		for len(deque) > 0 && deque[0] <= i-window {
			deque = deque[1:]
		}

		// Drop dominated candidates from the back.
		for len(deque) > 0 && dominates(v, values[deque[len(deque)-1]]) {
			deque = deque[:len(deque)-1]
		}

		deque = append(deque, i)

		if i >= window-1 {
			out[i] = values[deque[0]]
		}
	}

	return out
}

// EWMA returns the exponentially weighted moving average with
// alpha = 2/(period+1), seeded with the simple average of the first period
// values. Positions before the seed hold NaN.
func EWMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || period > len(values) {
		return out
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}

	seed /= float64(period)
	out[period-1] = seed

	alpha := 2.0 / float64(period+1)

	ema := seed
	for i := period; i < len(values); i++ {
		ema = values[i]*alpha + ema*(1-alpha)
		out[i] = ema
	}

	return out
}

// WilderSmooth applies Wilder's smoothing (alpha = 1/period) seeded with the
// simple average of the first period values.
func WilderSmooth(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || period > len(values) {
		return out
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}

	seed /= float64(period)
	out[period-1] = seed

	smoothed := seed
	for i := period; i < len(values); i++ {
		smoothed = (smoothed*float64(period-1) + values[i]) / float64(period)
		out[i] = smoothed
	}

	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}
