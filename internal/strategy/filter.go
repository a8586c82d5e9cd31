package strategy

import (
	"github.com/quantrill/stockscreen/internal/types"
)

// passBar is the per-bar screening predicate. Both evaluation modes go
// through it, which makes the fast-mode/full-mode agreement on the last bar
// hold by construction.
func passBar(cfg Config, bars []types.Bar, i int) bool {
	bar := bars[i]

	if bar.Close <= cfg.MinPrice || bar.Close >= cfg.MaxPrice {
		return false
	}

	if bar.Amount <= cfg.MinTurnover {
		return false
	}

	// Free-float cap window; absent or zero means unknown and passes.
	if floatCap := bar.FloatCap.TakeOr(0); floatCap > 0 {
		if floatCap < cfg.MinCap {
			return false
		}

		if cfg.MaxCap > 0 && floatCap >= cfg.MaxCap {
			return false
		}
	}

	// Limit-move exclusion needs the previous close; without it the bar
	// cannot be cleared.
	if i == 0 {
		return false
	}

	multiplier := 1.10
	if types.HighVolatilityBoard(bar.Symbol) {
		multiplier = 1.20
	}

	limitPrice := bars[i-1].Close*multiplier - cfg.LimitMoveMargin

	return bar.Close < limitPrice
}

// Filter evaluates the screening predicate over the full history and
// returns a boolean series aligned to the bars.
func Filter(cfg Config, history *types.History) []bool {
	out := make([]bool, history.Len())
	for i := range history.Bars {
		out[i] = passBar(cfg, history.Bars, i)
	}

	return out
}

// FilterLatest evaluates only the most recent bar. Used by the screener's
// fast mode; agrees with the last element of Filter for the same history.
func FilterLatest(cfg Config, history *types.History) bool {
	if history.Len() == 0 {
		return false
	}

	return passBar(cfg, history.Bars, history.Len()-1)
}
