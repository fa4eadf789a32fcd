package indicator

import (
	"math"

	"github.com/vectra-quant/backsweep/internal/types"
	"github.com/vectra-quant/backsweep/pkg/errors"
)

// RegisterBuiltins registers the stock indicator set. The fast/slow moving
// average pair exists as separate specs so that strategies can depend on both
// at once with independent periods.
func RegisterBuiltins(registry *Registry) error {
	specs := []Spec{
		{
			Name:     "sma",
			Requires: []string{types.ColumnClose},
			Provides: []string{"sma"},
			Params:   map[string]float64{"period": 20},
			Version:  "1.0.0",
			Compute:  computeSMA("sma"),
		},
		{
			Name:     "sma_fast",
			Requires: []string{types.ColumnClose},
			Provides: []string{"sma_fast"},
			Params:   map[string]float64{"period": 10},
			Version:  "1.0.0",
			Compute:  computeSMA("sma_fast"),
		},
		{
			Name:     "sma_slow",
			Requires: []string{types.ColumnClose},
			Provides: []string{"sma_slow"},
			Params:   map[string]float64{"period": 30},
			Version:  "1.0.0",
			Compute:  computeSMA("sma_slow"),
		},
		{
			Name:     "ema",
			Requires: []string{types.ColumnClose},
			Provides: []string{"ema"},
			Params:   map[string]float64{"period": 20},
			Version:  "1.0.0",
			Compute:  computeEMA,
		},
		{
			Name:     "rsi",
			Requires: []string{types.ColumnClose},
			Provides: []string{"rsi"},
			Params:   map[string]float64{"period": 14},
			Version:  "1.1.0",
			Compute:  computeRSI,
		},
		{
			Name:     "atr",
			Requires: []string{types.ColumnHigh, types.ColumnLow, types.ColumnClose},
			Provides: []string{"atr"},
			Params:   map[string]float64{"period": 14},
			Version:  "1.0.0",
			Compute:  computeATR,
		},
		{
			Name:     "bollinger_bands",
			Requires: []string{types.ColumnClose},
			Provides: []string{"bollinger_upper", "bollinger_lower", "bollinger_width"},
			Params:   map[string]float64{"period": 20, "std_dev": 2},
			Version:  "1.1.0",
			Compute:  computeBollinger,
		},
		{
			Name:     "rolling_high",
			Requires: []string{types.ColumnHigh},
			Provides: []string{"rolling_high"},
			Params:   map[string]float64{"period": 20},
			Version:  "1.0.0",
			Compute:  computeRollingHigh,
		},
		{
			Name:     "rolling_low",
			Requires: []string{types.ColumnLow},
			Provides: []string{"rolling_low"},
			Params:   map[string]float64{"period": 20},
			Version:  "1.0.0",
			Compute:  computeRollingLow,
		},
		{
			Name:     "returns",
			Requires: []string{types.ColumnClose},
			Provides: []string{"returns"},
			Params:   map[string]float64{},
			Version:  "1.0.0",
			Compute:  computeReturns,
		},
	}

	for _, spec := range specs {
		if err := registry.Register(spec); err != nil {
			return err
		}
	}

	return nil
}

func periodParam(params map[string]float64, src ColumnSource) (int, error) {
	period := int(params["period"])
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	if period > src.Len() {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod,
			"period %d exceeds dataset length %d", period, src.Len())
	}

	return period, nil
}

func computeSMA(provides string) ComputeFunc {
	return func(src ColumnSource, params map[string]float64) (Columns, error) {
		period, err := periodParam(params, src)
		if err != nil {
			return nil, err
		}

		closeCol, err := src.Column(types.ColumnClose)
		if err != nil {
			return nil, err
		}

		return Columns{provides: RollingMean(closeCol, period)}, nil
	}
}

func computeEMA(src ColumnSource, params map[string]float64) (Columns, error) {
	period, err := periodParam(params, src)
	if err != nil {
		return nil, err
	}

	closeCol, err := src.Column(types.ColumnClose)
	if err != nil {
		return nil, err
	}

	return Columns{"ema": EWMA(closeCol, period)}, nil
}

func computeRSI(src ColumnSource, params map[string]float64) (Columns, error) {
	period, err := periodParam(params, src)
	if err != nil {
		return nil, err
	}

	closeCol, err := src.Column(types.ColumnClose)
	if err != nil {
		return nil, err
	}

	gains := make([]float64, len(closeCol))
	losses := make([]float64, len(closeCol))

	for i := 1; i < len(closeCol); i++ {
		delta := closeCol[i] - closeCol[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := WilderSmooth(gains[1:], period)
	avgLoss := WilderSmooth(losses[1:], period)

	rsi := nanSlice(len(closeCol))

	for i := range avgGain {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			continue
		}

		if avgLoss[i] == 0 {
			rsi[i+1] = 100
			continue
		}

		rs := avgGain[i] / avgLoss[i]
		rsi[i+1] = 100 - 100/(1+rs)
	}

	return Columns{"rsi": rsi}, nil
}

func computeATR(src ColumnSource, params map[string]float64) (Columns, error) {
	period, err := periodParam(params, src)
	if err != nil {
		return nil, err
	}

	high, err := src.Column(types.ColumnHigh)
	if err != nil {
		return nil, err
	}

	low, err := src.Column(types.ColumnLow)
	if err != nil {
		return nil, err
	}

	closeCol, err := src.Column(types.ColumnClose)
	if err != nil {
		return nil, err
	}

	trueRange := make([]float64, len(high))
	trueRange[0] = high[0] - low[0]

	for i := 1; i < len(high); i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - closeCol[i-1])
		lc := math.Abs(low[i] - closeCol[i-1])
		trueRange[i] = math.Max(hl, math.Max(hc, lc))
	}

	return Columns{"atr": WilderSmooth(trueRange, period)}, nil
}

func computeBollinger(src ColumnSource, params map[string]float64) (Columns, error) {
	period, err := periodParam(params, src)
	if err != nil {
		return nil, err
	}

	stdDev := params["std_dev"]
	if stdDev <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "std_dev must be positive, got %g", stdDev)
	}

	closeCol, err := src.Column(types.ColumnClose)
	if err != nil {
		return nil, err
	}

	// Middle band and deviation share one window so a period override moves
	// both together.
	middle := RollingMean(closeCol, period)
	std := RollingStd(closeCol, period)

	upper := nanSlice(len(closeCol))
	lower := nanSlice(len(closeCol))
	width := nanSlice(len(closeCol))

	for i := range closeCol {
		if math.IsNaN(middle[i]) || math.IsNaN(std[i]) {
			continue
		}

		upper[i] = middle[i] + stdDev*std[i]
		lower[i] = middle[i] - stdDev*std[i]

		if middle[i] != 0 {
			width[i] = (upper[i] - lower[i]) / middle[i]
		}
	}

	return Columns{
		"bollinger_upper": upper,
		"bollinger_lower": lower,
		"bollinger_width": width,
	}, nil
}

func computeRollingHigh(src ColumnSource, params map[string]float64) (Columns, error) {
	period, err := periodParam(params, src)
	if err != nil {
		return nil, err
	}

	high, err := src.Column(types.ColumnHigh)
	if err != nil {
		return nil, err
	}

	return Columns{"rolling_high": RollingMax(high, period)}, nil
}

func computeRollingLow(src ColumnSource, params map[string]float64) (Columns, error) {
	period, err := periodParam(params, src)
	if err != nil {
		return nil, err
	}

	low, err := src.Column(types.ColumnLow)
	if err != nil {
		return nil, err
	}

	return Columns{"rolling_low": RollingMin(low, period)}, nil
}

func computeReturns(src ColumnSource, _ map[string]float64) (Columns, error) {
	closeCol, err := src.Column(types.ColumnClose)
	if err != nil {
		return nil, err
	}

	out := nanSlice(len(closeCol))

	for i := 1; i < len(closeCol); i++ {
		if closeCol[i-1] != 0 {
			out[i] = closeCol[i]/closeCol[i-1] - 1
		}
	}

	return Columns{"returns": out}, nil
}
