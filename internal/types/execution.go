package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExitReason identifies which exit rule closed a trade. When several exit
// conditions are true on the same candle, the rule with the smallest
// precedence value wins, so results are deterministic for identical inputs.
type ExitReason string

const (
	ExitReasonTarget       ExitReason = "target"
	ExitReasonTrailingStop ExitReason = "trailing_stop"
	ExitReasonStopLoss     ExitReason = "stop_loss"
	ExitReasonTimeExpiry   ExitReason = "time_expiry"
	ExitReasonEndOfData    ExitReason = "end_of_data"
)

// TradeExecution is one simulated trade produced for an accepted entry signal.
type TradeExecution struct {
	EntryIndex int        `csv:"entry_index"`
	ExitIndex  int        `csv:"exit_index"`
	EntryTime  time.Time  `csv:"entry_time"`
	ExitTime   time.Time  `csv:"exit_time"`
	EntryPrice float64    `csv:"entry_price"`
	ExitPrice  float64    `csv:"exit_price"`
	Quantity   float64    `csv:"quantity"`
	Fee        float64    `csv:"fee"`
	ExitReason ExitReason `csv:"exit_reason"`
	// PnL is (exit - entry) * quantity net of fees, computed with decimal
	// arithmetic to avoid float drift across large sweeps.
	PnL float64 `csv:"pnl"`
}

// HoldingSeconds returns the holding time of the trade in seconds.
func (t TradeExecution) HoldingSeconds() int {
	return int(t.ExitTime.Sub(t.EntryTime) / time.Second)
}

// ComputePnL calculates the net profit of a long trade using decimal math.
func ComputePnL(entryPrice, exitPrice, quantity, fee float64) float64 {
	entry := decimal.NewFromFloat(entryPrice).Mul(decimal.NewFromFloat(quantity))
	exit := decimal.NewFromFloat(exitPrice).Mul(decimal.NewFromFloat(quantity))
	net := exit.Sub(entry).Sub(decimal.NewFromFloat(fee))

	pnl, _ := net.Float64()

	return pnl
}
