package strategy

import (
	"math"
	"time"

	"github.com/quantrill/stockscreen/internal/indicator"
	"github.com/quantrill/stockscreen/internal/types"
)

// minSignalBars is the longest lookback any buy condition needs.
const minSignalBars = 60

// macdDiffFloor is the small negative floor under which the momentum
// fallback (diff rising but not yet crossed) stops counting.
const macdDiffFloor = -0.1

// indicatorSet holds every derived series the buy evaluator and the scorer
// share, computed once per history.
type indicatorSet struct {
	ma5, ma10, ma20, ma60 []float64
	volMA5                []float64
	macd                  *indicator.MACDResult
	rsi                   []float64
	high20, low20         []float64
	closeCrossMA5         []bool
	closeCrossMA20        []bool
	macdBullCross         []bool
}

func computeIndicators(history *types.History) (*indicatorSet, error) {
	closes := history.Closes()
	volumes := history.Volumes()

	set := &indicatorSet{}

	var err error
	if set.ma5, err = indicator.SMA(closes, 5); err != nil {
		return nil, err
	}

	if set.ma10, err = indicator.SMA(closes, 10); err != nil {
		return nil, err
	}

	if set.ma20, err = indicator.SMA(closes, 20); err != nil {
		return nil, err
	}

	if set.ma60, err = indicator.SMA(closes, 60); err != nil {
		return nil, err
	}

	if set.volMA5, err = indicator.SMA(volumes, 5); err != nil {
		return nil, err
	}

	if set.macd, err = indicator.MACD(closes, 12, 26, 9); err != nil {
		return nil, err
	}

	if set.rsi, err = indicator.RSI(closes, 14); err != nil {
		return nil, err
	}

	if set.high20, err = indicator.HHV(history.Highs(), 20); err != nil {
		return nil, err
	}

	if set.low20, err = indicator.LLV(history.Lows(), 20); err != nil {
		return nil, err
	}

	set.closeCrossMA5 = indicator.CrossOver(closes, set.ma5)
	set.closeCrossMA20 = indicator.CrossOver(closes, set.ma20)
	set.macdBullCross = indicator.CrossOver(set.macd.Diff, set.macd.Signal)

	return set, nil
}

// volumeRatio measures the bar's volume against the previous bar's 5-day
// average, so a surge is judged against the baseline it breaks out of
// rather than an average it already inflates.
func (set *indicatorSet) volumeRatio(volume float64, i int) float64 {
	if i <= 0 || !indicator.IsDefined(set.volMA5, i-1) || set.volMA5[i-1] <= 0 {
		return math.NaN()
	}

	return volume / set.volMA5[i-1]
}

// RegimeLookup answers whether the market was favorable on a date. The
// screener builds one from the benchmark classification and shares it
// across every instrument in a run.
type RegimeLookup func(date time.Time) bool

// AlwaysFavorable is a lookup for runs without a benchmark.
func AlwaysFavorable(time.Time) bool { return true }

// BuySignals evaluates the composite buy condition over the full history
// and returns a boolean series aligned to the bars. A true value at t means
// the signal fires at the close of t. Histories shorter than 60 bars yield
// all-false.
func BuySignals(cfg Config, history *types.History, favorable RegimeLookup) ([]bool, error) {
	out := make([]bool, history.Len())
	if history.Len() < minSignalBars {
		return out, nil
	}

	set, err := computeIndicators(history)
	if err != nil {
		return nil, err
	}

	for i := range history.Bars {
		out[i] = buyAt(cfg, history, set, favorable, i)
	}

	return out, nil
}

func buyAt(cfg Config, history *types.History, set *indicatorSet, favorable RegimeLookup, i int) bool {
	if i == 0 {
		return false
	}

	bar := history.Bars[i]

	if !favorable(bar.Date) {
		return false
	}

	if !maOrdered(cfg, set, i) {
		return false
	}

	if !momentumConfirmed(set, i) {
		return false
	}

	if !breakout(cfg, history, set, i) {
		return false
	}

	if !(set.volumeRatio(bar.Volume, i) > cfg.VolumeRatioThreshold) {
		return false
	}

	// Undefined RSI passes: a monotonic rise with zero losses is not
	// "overbought" evidence.
	if set.rsi[i] >= cfg.RSIOverbought {
		return false
	}

	if !trendProximity(cfg, history, set, i) {
		return false
	}

	return passBar(cfg, history.Bars, i)
}

func maOrdered(cfg Config, set *indicatorSet, i int) bool {
	if !(set.ma5[i] > set.ma20[i] && set.ma20[i] > set.ma60[i]) {
		return false
	}

	if cfg.StrictMAOrdering {
		return set.ma5[i] > set.ma10[i] && set.ma10[i] > set.ma20[i]
	}

	return true
}

func momentumConfirmed(set *indicatorSet, i int) bool {
	if set.macdBullCross[i] {
		return true
	}

	diff := set.macd.Diff[i]
	prev := set.macd.Diff[i-1]

	return diff > macdDiffFloor && diff > prev
}

func breakout(cfg Config, history *types.History, set *indicatorSet, i int) bool {
	cross := set.closeCrossMA5
	if cfg.BreakoutRef == BreakoutMA20 {
		cross = set.closeCrossMA20
	}

	if cross[i] {
		return true
	}

	// Fresh 20-bar high: above the prior bar's rolling high.
	return indicator.IsDefined(set.high20, i-1) && history.Bars[i].Close > set.high20[i-1]
}

// trendProximity rejects chasing: the close must ride above MA60 but stay
// within the configured extension of it, and must clear the prior day's
// limit-down price so the signal never buys into a crash.
func trendProximity(cfg Config, history *types.History, set *indicatorSet, i int) bool {
	bar := history.Bars[i]

	if !(bar.Close > set.ma60[i] && bar.Close < set.ma60[i]*(1+cfg.MaxMA60Extension)) {
		return false
	}

	downMultiplier := 0.90
	if types.HighVolatilityBoard(bar.Symbol) {
		downMultiplier = 0.80
	}

	limitDown := history.Bars[i-1].Close*downMultiplier + cfg.LimitMoveMargin

	return bar.Close > limitDown
}
