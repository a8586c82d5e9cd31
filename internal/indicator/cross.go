package indicator

import "math"

// CrossOver reports, per position, whether series a crossed above series b:
// a[t] > b[t] while a[t-1] <= b[t-1]. Position 0 is always false, and any
// NaN among the four operands makes the position false. A series that stays
// above b never "re-crosses" without first closing at or below it.
func CrossOver(a, b []float64) []bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	out := make([]bool, n)
	for i := 1; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) || math.IsNaN(a[i-1]) || math.IsNaN(b[i-1]) {
			continue
		}

		out[i] = a[i] > b[i] && a[i-1] <= b[i-1]
	}

	return out
}

// CrossUnder reports, per position, whether series a crossed below series
// b: a[t] < b[t] while a[t-1] >= b[t-1]. Same NaN and boundary handling as
// CrossOver.
func CrossUnder(a, b []float64) []bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	out := make([]bool, n)
	for i := 1; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) || math.IsNaN(a[i-1]) || math.IsNaN(b[i-1]) {
			continue
		}

		out[i] = a[i] < b[i] && a[i-1] >= b[i-1]
	}

	return out
}
