package engine

import (
	"math"
	"time"

	"github.com/quantrill/stockscreen/internal/types"
)

// tradingDaysPerYear annualizes the Sharpe ratio.
const tradingDaysPerYear = 252

// annualizedReturn compounds the total return over the elapsed calendar
// days, scaled to a 365-day year. Windows under a day return the total
// return unchanged.
func annualizedReturn(totalReturn float64, start, end time.Time) float64 {
	days := end.Sub(start).Hours() / 24
	if days < 1 {
		return totalReturn
	}

	return math.Pow(1+totalReturn, 365/days) - 1
}

// maxDrawdown is the largest peak-to-trough decline of the value series,
// as a positive fraction.
func maxDrawdown(values []float64) float64 {
	var peak, worst float64

	for _, v := range values {
		if v > peak {
			peak = v
		}

		if peak > 0 {
			dd := 1 - v/peak
			if dd > worst {
				worst = dd
			}
		}
	}

	return worst
}

// sharpeRatio is mean/stddev of the daily returns scaled by sqrt(252).
// Fewer than two points, or zero variance, yields zero.
func sharpeRatio(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}

		returns = append(returns, values[i]/values[i-1]-1)
	}

	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}

	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}

	variance /= float64(len(returns))

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	return mean / std * math.Sqrt(tradingDaysPerYear)
}

// buyAndHoldReturn is the benchmark's close-to-close return across the
// simulated window, zero without at least two bars inside it.
func buyAndHoldReturn(benchmark *types.History, start, end time.Time) float64 {
	if benchmark == nil {
		return 0
	}

	var first, last float64

	for _, bar := range benchmark.Bars {
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}

		if first == 0 {
			first = bar.Close
		}

		last = bar.Close
	}

	if first == 0 {
		return 0
	}

	return last/first - 1
}

// computeSummary derives the headline statistics from the finished run.
func computeSummary(cfg Config, equity []types.DailyValue, outcome TradeOutcome, totalTrades int, benchmark *types.History) types.PerformanceSummary {
	summary := types.PerformanceSummary{
		InitialCapital: cfg.InitialCapital,
		FinalValue:     cfg.InitialCapital,
		TotalTrades:    totalTrades,
		WinningTrades:  outcome.WinningSells,
		LosingTrades:   outcome.LosingSells,
		AvgHoldingDays: outcome.AvgHoldingDays,
		TradingDays:    len(equity),
	}

	if len(equity) == 0 {
		return summary
	}

	start := equity[0].Date
	end := equity[len(equity)-1].Date
	summary.StartDate = start.Format(dateLayout)
	summary.EndDate = end.Format(dateLayout)

	values := make([]float64, len(equity))
	for i, dv := range equity {
		values[i] = dv.Value
	}

	summary.FinalValue = values[len(values)-1]
	summary.TotalReturn = summary.FinalValue/cfg.InitialCapital - 1
	summary.AnnualizedReturn = annualizedReturn(summary.TotalReturn, start, end)
	summary.MaxDrawdown = maxDrawdown(values)
	summary.SharpeRatio = sharpeRatio(values)
	summary.BenchmarkReturn = buyAndHoldReturn(benchmark, start, end)

	if outcome.TotalSells > 0 {
		summary.WinRate = float64(outcome.WinningSells) / float64(outcome.TotalSells)
	}

	return summary
}
