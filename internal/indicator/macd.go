package indicator

// MACDResult holds the three MACD series. Hist uses the doubled convention
// common on Chinese trading terminals: Hist = 2 x (Diff - Signal).
type MACDResult struct {
	Diff   []float64
	Signal []float64
	Hist   []float64
}

// MACD computes the MACD indicator from closes using EMA spans fast, slow
// and signal.
func MACD(closes []float64, fast, slow, signal int) (*MACDResult, error) {
	fastEMA, err := EMA(closes, fast)
	if err != nil {
		return nil, err
	}

	slowEMA, err := EMA(closes, slow)
	if err != nil {
		return nil, err
	}

	diff := make([]float64, len(closes))
	for i := range closes {
		diff[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine, err := EMA(diff, signal)
	if err != nil {
		return nil, err
	}

	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = 2 * (diff[i] - signalLine[i])
	}

	return &MACDResult{
		Diff:   diff,
		Signal: signalLine,
		Hist:   hist,
	}, nil
}
