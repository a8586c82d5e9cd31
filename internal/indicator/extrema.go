package indicator

// HHV computes the highest value over the trailing window. Positions before
// window-1 are NaN.
func HHV(values []float64, window int) ([]float64, error) {
	if err := validateWindow(window); err != nil {
		return nil, err
	}

	out := filled(len(values))
	for i := window - 1; i < len(values); i++ {
		max := values[i-window+1]
		for j := i - window + 2; j <= i; j++ {
			if values[j] > max {
				max = values[j]
			}
		}

		out[i] = max
	}

	return out, nil
}

// LLV computes the lowest value over the trailing window. Positions before
// window-1 are NaN.
func LLV(values []float64, window int) ([]float64, error) {
	if err := validateWindow(window); err != nil {
		return nil, err
	}

	out := filled(len(values))
	for i := window - 1; i < len(values); i++ {
		min := values[i-window+1]
		for j := i - window + 2; j <= i; j++ {
			if values[j] < min {
				min = values[j]
			}
		}

		out[i] = min
	}

	return out, nil
}
