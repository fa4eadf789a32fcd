package sim

import (
	"github.com/vectra-quant/backsweep/internal/enrich"
	"github.com/vectra-quant/backsweep/internal/signal"
	"github.com/vectra-quant/backsweep/internal/types"
	"github.com/vectra-quant/backsweep/pkg/errors"
)

// ExecutionParams are the exit rule parameters applied to every accepted
// entry. Percent parameters are fractions (0.02 = 2%). A zero percentage
// disables that exit rule; MaxHoldingBars zero disables time expiry.
type ExecutionParams struct {
	TargetPct      float64
	StopPct        float64
	TrailingPct    float64
	MaxHoldingBars int
	Quantity       float64
	Fee            CommissionFee
}

// NewExecutionParams derives execution parameters from a parameter set,
// falling back to the given defaults for absent keys.
func NewExecutionParams(params types.ParameterSet, fee CommissionFee) ExecutionParams {
	return ExecutionParams{
		TargetPct:      params.Get("target_pct", 0.02),
		StopPct:        params.Get("stop_pct", 0.01),
		TrailingPct:    params.Get("trailing_pct", 0),
		MaxHoldingBars: params.GetInt("max_holding_bars", 0),
		Quantity:       params.Get("quantity", 100),
		Fee:            fee,
	}
}

// SimulateExecutions produces one trade per accepted signal. Entries fill at
// the signal candle's close. On each following candle the exit rules evaluate
// in fixed precedence — fixed target, then trailing stop, then hard stop,
// then time expiry — so simultaneous conditions resolve deterministically.
// A position still open at the last candle closes there with reason
// end_of_data.
func SimulateExecutions(ds *enrich.Dataset, accepted signal.Set, p ExecutionParams) ([]types.TradeExecution, error) {
	if p.Quantity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "quantity must be positive, got %g", p.Quantity)
	}

	if p.Fee == nil {
		p.Fee = NewZeroCommissionFee()
	}

	core := ds.Core()

	high, err := ds.Column(types.ColumnHigh)
	if err != nil {
		return nil, err
	}

	low, err := ds.Column(types.ColumnLow)
	if err != nil {
		return nil, err
	}

	closeCol, err := ds.Column(types.ColumnClose)
	if err != nil {
		return nil, err
	}

	trades := make([]types.TradeExecution, 0, len(accepted))

	for _, entryIdx := range accepted {
		if entryIdx < 0 || entryIdx >= core.Len() {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter, "signal index %d out of range", entryIdx)
		}

		entryPrice := closeCol[entryIdx]
		target := entryPrice * (1 + p.TargetPct)
		stop := entryPrice * (1 - p.StopPct)
		peak := entryPrice

		exitIdx := core.Len() - 1
		exitPrice := closeCol[exitIdx]
		exitReason := types.ExitReasonEndOfData

		for i := entryIdx + 1; i < core.Len(); i++ {
			if p.TrailingPct > 0 && closeCol[i-1] > peak {
				peak = closeCol[i-1]
			}

			if p.TargetPct > 0 && high[i] >= target {
				exitIdx, exitPrice, exitReason = i, target, types.ExitReasonTarget

				break
			}

			if p.TrailingPct > 0 {
				trail := peak * (1 - p.TrailingPct)
				if low[i] <= trail {
					exitIdx, exitPrice, exitReason = i, trail, types.ExitReasonTrailingStop

					break
				}
			}

			if p.StopPct > 0 && low[i] <= stop {
				exitIdx, exitPrice, exitReason = i, stop, types.ExitReasonStopLoss

				break
			}

			if p.MaxHoldingBars > 0 && i-entryIdx >= p.MaxHoldingBars {
				exitIdx, exitPrice, exitReason = i, closeCol[i], types.ExitReasonTimeExpiry

				break
			}
		}

		fee := p.Fee.Calculate(p.Quantity) * 2 // entry and exit side

		trades = append(trades, types.TradeExecution{
			EntryIndex: entryIdx,
			ExitIndex:  exitIdx,
			EntryTime:  core.Time(entryIdx),
			ExitTime:   core.Time(exitIdx),
			EntryPrice: entryPrice,
			ExitPrice:  exitPrice,
			Quantity:   p.Quantity,
			Fee:        fee,
			ExitReason: exitReason,
			PnL:        types.ComputePnL(entryPrice, exitPrice, p.Quantity, fee),
		})
	}

	return trades, nil
}
