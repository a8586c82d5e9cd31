package indicator

import "math"

// RSI computes the relative strength index using trailing simple means of
// gains and losses over the window. Positions before the window fills are
// NaN, and so are positions where the average loss is zero (the classic
// division-by-zero case on monotonic rises).
func RSI(closes []float64, window int) ([]float64, error) {
	if err := validateWindow(window); err != nil {
		return nil, err
	}

	out := filled(len(closes))
	if len(closes) < window+1 {
		return out, nil
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < len(closes); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > window {
			gainSum -= gains[i-window]
			lossSum -= losses[i-window]
		}

		if i < window {
			continue
		}

		avgLoss := lossSum / float64(window)
		if avgLoss == 0 {
			out[i] = math.NaN()
			continue
		}

		avgGain := gainSum / float64(window)
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}

	return out, nil
}
