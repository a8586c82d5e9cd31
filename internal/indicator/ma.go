package indicator

// SMA computes the simple moving average over the given window. Positions
// before window-1 are NaN.
func SMA(values []float64, window int) ([]float64, error) {
	if err := validateWindow(window); err != nil {
		return nil, err
	}

	out := filled(len(values))
	if len(values) < window {
		return out, nil
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}

		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}

	return out, nil
}

// EMA computes the exponential moving average with smoothing factor
// alpha = 2/(span+1), seeded with the first value. Every position of a
// non-empty input is defined.
func EMA(values []float64, span int) ([]float64, error) {
	if err := validateWindow(span); err != nil {
		return nil, err
	}

	out := filled(len(values))
	if len(values) == 0 {
		return out, nil
	}

	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}

	return out, nil
}
