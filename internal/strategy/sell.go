package strategy

import (
	"github.com/quantrill/stockscreen/internal/types"
)

// ShouldSell evaluates every exit condition for an open position at bar i.
// Any condition firing is sufficient; the returned reason follows the fixed
// precedence stop-loss, take-profit, trailing-stop, trend-breakdown, MACD
// dead cross, time-stop, so the reported cause is deterministic when
// several co-fire. The caller must never pass the entry bar itself.
func (ev *Evaluator) ShouldSell(pos *types.Position, i int) (bool, string) {
	if pos == nil || i <= 0 || i >= ev.history.Len() {
		return false, ""
	}

	bar := ev.history.Bars[i]
	if !bar.Date.After(pos.EntryDate) {
		return false, ""
	}

	ret := pos.UnrealizedReturn(bar.Close)

	if ret <= -ev.cfg.StopLossPct {
		return true, types.ReasonStopLoss
	}

	if ret >= ev.cfg.TakeProfitPct {
		return true, types.ReasonTakeProfit
	}

	if pos.DrawdownFromPeak(bar.Close) >= ev.cfg.TrailingStopPct && ret > ev.cfg.TrailingMinProfit {
		return true, types.ReasonTrailingStop
	}

	// Trend breakdown and the MACD cross need the indicator set, which a
	// short history never gets; the hard stops above still protect it.
	if ev.set != nil {
		if bar.Close < ev.set.ma10[i] {
			return true, types.ReasonTrendBreak
		}

		if ev.macdDeadCross(i) {
			return true, types.ReasonMACDDeadCross
		}
	}

	if ev.cfg.MaxHoldingDays > 0 && pos.BarsHeld >= ev.cfg.MaxHoldingDays {
		return true, types.ReasonTimeStop
	}

	return false, ""
}

// macdDeadCross reports whether the signal line crossed above the diff at
// bar i.
func (ev *Evaluator) macdDeadCross(i int) bool {
	if i <= 0 {
		return false
	}

	diff := ev.set.macd.Diff
	signal := ev.set.macd.Signal

	return signal[i] > diff[i] && signal[i-1] <= diff[i-1]
}
