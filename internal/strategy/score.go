package strategy

import (
	"math"
)

// Score assigns a 0-100 composite ranking score to bar i from five
// 20-point factors: moving-average compression, volume surge, MACD
// histogram magnitude, RSI band and position of the close inside the
// 20-bar range. A ranking aid only; it never gates the buy or sell
// decision. Histories too short for the indicator set score 0.
func (ev *Evaluator) Score(i int) float64 {
	if ev.set == nil || i < 0 || i >= ev.history.Len() {
		return 0
	}

	total := ev.compressionScore(i) +
		ev.volumeScore(i) +
		ev.oscillatorScore(i) +
		ev.rsiScore(i) +
		ev.rangePositionScore(i)

	return math.Max(0, math.Min(100, total))
}

// compressionScore rewards a tight bundle of moving averages: the spread
// between the highest and lowest of MA5/MA10/MA20/MA60, as a percentage of
// MA60, scores 20 minus the spread, zero at 15% or wider.
func (ev *Evaluator) compressionScore(i int) float64 {
	set := ev.set
	if !allDefined(i, set.ma5, set.ma10, set.ma20, set.ma60) || set.ma60[i] == 0 {
		return 0
	}

	high := math.Max(math.Max(set.ma5[i], set.ma10[i]), math.Max(set.ma20[i], set.ma60[i]))
	low := math.Min(math.Min(set.ma5[i], set.ma10[i]), math.Min(set.ma20[i], set.ma60[i]))
	spreadPct := (high - low) / set.ma60[i] * 100

	if spreadPct >= 15 {
		return 0
	}

	return math.Min(20, 20-spreadPct)
}

func (ev *Evaluator) volumeScore(i int) float64 {
	ratio := ev.set.volumeRatio(ev.history.Bars[i].Volume, i)
	if math.IsNaN(ratio) {
		return 0
	}

	return math.Min(20, 10*ratio)
}

func (ev *Evaluator) oscillatorScore(i int) float64 {
	hist := ev.set.macd.Hist[i]
	if math.IsNaN(hist) {
		return 0
	}

	return math.Min(20, 100*math.Abs(hist))
}

// rsiScore grants full credit in the [50,70] band, partial credit in the
// adjacent bands, zero elsewhere. Undefined RSI means the trailing window
// had zero losses, the strongest momentum reading there is, and scores
// full credit rather than zero.
func (ev *Evaluator) rsiScore(i int) float64 {
	rsi := ev.set.rsi[i]
	if math.IsNaN(rsi) {
		return 20
	}

	switch {
	case rsi >= 50 && rsi <= 70:
		return 20
	case rsi >= 40 && rsi < 50:
		return 15
	case rsi > 70 && rsi <= 80:
		return 10
	default:
		return 0
	}
}

// rangePositionScore places the close inside the trailing 20-bar high/low
// range: the middle band [0.4,0.7] is the sweet spot, just below it earns
// partial credit.
func (ev *Evaluator) rangePositionScore(i int) float64 {
	high := ev.set.high20[i]
	low := ev.set.low20[i]

	if math.IsNaN(high) || math.IsNaN(low) || high <= low {
		return 0
	}

	position := (ev.history.Bars[i].Close - low) / (high - low)

	switch {
	case position >= 0.4 && position <= 0.7:
		return 20
	case position >= 0.2 && position < 0.4:
		return 15
	default:
		return 0
	}
}

func allDefined(i int, series ...[]float64) bool {
	for _, s := range series {
		if i >= len(s) || math.IsNaN(s[i]) {
			return false
		}
	}

	return true
}
