// Package indicator implements the technical indicator calculations used by
// screening and backtesting. All indicators operate on date-ascending
// float64 series and mark positions where the value is undefined (warmup
// windows, division by zero) with NaN. Conditions comparing against NaN
// evaluate to false, so undefined values never satisfy a signal.
package indicator

import (
	"math"

	"github.com/quantrill/stockscreen/pkg/errors"
)

// IsDefined reports whether the value at index i of the series is defined.
func IsDefined(series []float64, i int) bool {
	return i >= 0 && i < len(series) && !math.IsNaN(series[i])
}

// Last returns the final value of the series, or NaN when it is empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}

	return series[len(series)-1]
}

// filled returns a series of the given length with every position NaN.
func filled(length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

// validateWindow rejects non-positive windows up front so each indicator
// does not have to.
func validateWindow(window int) error {
	if window <= 0 {
		return errors.Newf(errors.ErrCodeInvalidWindow, "window must be positive, got %d", window)
	}

	return nil
}
