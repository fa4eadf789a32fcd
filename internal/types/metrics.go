package types

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// HoldingTimeStats summarizes trade holding times in seconds.
type HoldingTimeStats struct {
	// Minimum holding time of a trade in seconds
	Min int `yaml:"min"`
	// Maximum holding time of a trade in seconds
	Max int `yaml:"max"`
	// Average holding time of a trade in seconds
	Avg int `yaml:"avg"`
}

// MetricsSummary is an immutable record of aggregate trade statistics for one
// simulation. It is produced once by NewMetricsSummary and never mutated
// afterwards.
type MetricsSummary struct {
	// Count of all trades.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of winning trades with positive pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of losing trades with negative pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Win rate over all trades.
	WinRate float64 `yaml:"win_rate"`
	// Sum of all trade pnl.
	TotalPnL float64 `yaml:"total_pnl"`
	// Largest single-trade profit.
	MaximumProfit float64 `yaml:"maximum_profit"`
	// Largest single-trade loss.
	MaximumLoss float64 `yaml:"maximum_loss"`
	// Average pnl per trade.
	Expectancy float64 `yaml:"expectancy"`
	// Gross profit divided by gross loss. Zero when there are no losses.
	ProfitFactor float64 `yaml:"profit_factor"`
	// Largest peak-to-trough decline of the cumulative pnl curve.
	MaxDrawdown float64 `yaml:"max_drawdown"`
	// Cumulative pnl after each trade, in trade order.
	DrawdownCurve []float64 `yaml:"drawdown_curve,flow"`
	// Holding time stats over all trades.
	HoldingTime HoldingTimeStats `yaml:"holding_time"`
	// Total fees paid.
	TotalFees float64 `yaml:"total_fees"`
}

// NewMetricsSummary aggregates the executed trades into a frozen summary.
// An empty trade list yields a zero-valued summary.
func NewMetricsSummary(trades []TradeExecution) MetricsSummary {
	summary := MetricsSummary{}
	if len(trades) == 0 {
		return summary
	}

	summary.NumberOfTrades = len(trades)
	summary.MaximumProfit = math.Inf(-1)
	summary.MaximumLoss = math.Inf(1)
	summary.DrawdownCurve = make([]float64, len(trades))
	summary.HoldingTime.Min = math.MaxInt

	var (
		grossProfit  float64
		grossLoss    float64
		cumulative   float64
		peak         float64
		totalHolding int
	)

	for i, trade := range trades {
		if trade.PnL > 0 {
			summary.NumberOfWinningTrades++
			grossProfit += trade.PnL
		} else if trade.PnL < 0 {
			summary.NumberOfLosingTrades++
			grossLoss += -trade.PnL
		}

		if trade.PnL > summary.MaximumProfit {
			summary.MaximumProfit = trade.PnL
		}

		if trade.PnL < summary.MaximumLoss {
			summary.MaximumLoss = trade.PnL
		}

		cumulative += trade.PnL
		summary.DrawdownCurve[i] = cumulative

		if cumulative > peak {
			peak = cumulative
		}

		if dd := peak - cumulative; dd > summary.MaxDrawdown {
			summary.MaxDrawdown = dd
		}

		holding := trade.HoldingSeconds()
		totalHolding += holding

		if holding < summary.HoldingTime.Min {
			summary.HoldingTime.Min = holding
		}

		if holding > summary.HoldingTime.Max {
			summary.HoldingTime.Max = holding
		}

		summary.TotalFees += trade.Fee
	}

	summary.TotalPnL = cumulative
	summary.WinRate = float64(summary.NumberOfWinningTrades) / float64(summary.NumberOfTrades)
	summary.Expectancy = cumulative / float64(summary.NumberOfTrades)
	summary.HoldingTime.Avg = totalHolding / summary.NumberOfTrades

	if grossLoss > 0 {
		summary.ProfitFactor = grossProfit / grossLoss
	}

	return summary
}

// Metric returns the named scalar metric for ranking. The second return is
// false when the name is unknown.
func (m MetricsSummary) Metric(name string) (float64, bool) {
	switch name {
	case "total_pnl":
		return m.TotalPnL, true
	case "expectancy":
		return m.Expectancy, true
	case "win_rate":
		return m.WinRate, true
	case "profit_factor":
		return m.ProfitFactor, true
	case "max_drawdown":
		// Negated so that "descending by metric" prefers smaller drawdowns.
		return -m.MaxDrawdown, true
	case "number_of_trades":
		return float64(m.NumberOfTrades), true
	default:
		return 0, false
	}
}

// Digest computes a SHA-256 digest over the scalar fields and drawdown curve.
// Feeds the reproducibility hash.
func (m MetricsSummary) Digest() string {
	h := sha256.New()

	var buf [8]byte

	writeFloat := func(v float64) {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	writeInt := func(v int) {
		binary.BigEndian.PutUint64(buf[:], uint64(int64(v)))
		h.Write(buf[:])
	}

	writeInt(m.NumberOfTrades)
	writeInt(m.NumberOfWinningTrades)
	writeInt(m.NumberOfLosingTrades)
	writeFloat(m.WinRate)
	writeFloat(m.TotalPnL)
	writeFloat(m.MaximumProfit)
	writeFloat(m.MaximumLoss)
	writeFloat(m.Expectancy)
	writeFloat(m.ProfitFactor)
	writeFloat(m.MaxDrawdown)
	writeFloat(m.TotalFees)
	writeInt(m.HoldingTime.Min)
	writeInt(m.HoldingTime.Max)
	writeInt(m.HoldingTime.Avg)

	for _, v := range m.DrawdownCurve {
		writeFloat(v)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// RankMetrics lists the metric names accepted by Metric.
var RankMetrics = []string{"total_pnl", "expectancy", "win_rate", "profit_factor", "max_drawdown", "number_of_trades"}
