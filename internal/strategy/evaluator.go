package strategy

import (
	"github.com/quantrill/stockscreen/internal/types"
	"github.com/quantrill/stockscreen/pkg/errors"
)

// Evaluator binds a config to one instrument's history with all derived
// series computed up front. It is the single code path behind screening,
// signal-series generation and the backtest engine's per-bar decisions.
type Evaluator struct {
	cfg       Config
	history   *types.History
	set       *indicatorSet
	favorable RegimeLookup
	buy       []bool
}

// NewEvaluator computes every series the config needs over the history.
// Histories shorter than 60 bars still construct (with an all-false buy
// series) so callers can treat short instruments uniformly.
func NewEvaluator(cfg Config, history *types.History, favorable RegimeLookup) (*Evaluator, error) {
	if history == nil || history.Len() == 0 {
		return nil, errors.New(errors.ErrCodeNoDataFound, "evaluator needs at least one bar")
	}

	if favorable == nil {
		favorable = AlwaysFavorable
	}

	ev := &Evaluator{
		cfg:       cfg,
		history:   history,
		favorable: favorable,
	}

	if history.Len() >= minSignalBars {
		set, err := computeIndicators(history)
		if err != nil {
			return nil, err
		}

		ev.set = set
	}

	buy := make([]bool, history.Len())
	if ev.set != nil {
		for i := range history.Bars {
			buy[i] = buyAt(cfg, history, ev.set, favorable, i)
		}
	}

	ev.buy = buy

	return ev, nil
}

// History returns the bar sequence the evaluator was built over.
func (ev *Evaluator) History() *types.History {
	return ev.history
}

// BuySeries returns the buy-signal series aligned to the bars.
func (ev *Evaluator) BuySeries() []bool {
	return ev.buy
}

// BuyAt reports whether the buy signal fires at bar i.
func (ev *Evaluator) BuyAt(i int) bool {
	return i >= 0 && i < len(ev.buy) && ev.buy[i]
}

// PassesFilter reports whether the most recent bar clears the screening
// filter (fast mode).
func (ev *Evaluator) PassesFilter() bool {
	return FilterLatest(ev.cfg, ev.history)
}

// SignalSeries walks the history once, maintaining explicit position state,
// and returns aligned buy and sell series plus the sell reasons. Buy
// signals that fire while a position is already open are suppressed; a new
// buy after a close opens an independent position. Sell never fires on the
// entry bar.
func (ev *Evaluator) SignalSeries() (buys, sells []bool, reasons []string) {
	n := ev.history.Len()
	buys = make([]bool, n)
	sells = make([]bool, n)
	reasons = make([]string, n)

	var pos *types.Position

	for i := 0; i < n; i++ {
		bar := ev.history.Bars[i]

		if pos != nil {
			pos.MarkBar(bar.High)

			if fire, reason := ev.ShouldSell(pos, i); fire {
				sells[i] = true
				reasons[i] = reason
				pos = nil

				continue
			}
		}

		if pos == nil && ev.BuyAt(i) {
			buys[i] = true
			pos = &types.Position{
				Symbol:         ev.history.Symbol,
				EntryDate:      bar.Date,
				EntryPrice:     bar.Close,
				HighSinceEntry: bar.High,
			}
		}
	}

	return buys, sells, reasons
}
