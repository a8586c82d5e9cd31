package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Bar is one trading day's OHLCV record for an instrument. Bars are
// immutable once recorded and ordered by date with no gaps inside one
// instrument's history.
type Bar struct {
	Symbol string    `csv:"symbol" yaml:"symbol" json:"symbol"`
	Date   time.Time `csv:"date" yaml:"date" json:"date"`
	Open   float64   `csv:"open" yaml:"open" json:"open"`
	High   float64   `csv:"high" yaml:"high" json:"high"`
	Low    float64   `csv:"low" yaml:"low" json:"low"`
	Close  float64   `csv:"close" yaml:"close" json:"close"`
	Volume float64   `csv:"volume" yaml:"volume" json:"volume"`
	// Amount is the turnover value of the session (price x volume traded).
	Amount float64 `csv:"amount" yaml:"amount" json:"amount"`
	// FloatCap is the free-float market capitalization when the vendor
	// provides it. Absent or zero means "unknown" and screening treats the
	// cap window as passed.
	FloatCap optional.Option[float64] `csv:"float_cap" yaml:"float_cap,omitempty" json:"float_cap,omitempty"`
}

// History is one instrument's contiguous, date-ascending bar sequence.
type History struct {
	Symbol string
	Bars   []Bar
}

// Closes returns the close column.
func (h *History) Closes() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Close
	}

	return out
}

// Highs returns the high column.
func (h *History) Highs() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.High
	}

	return out
}

// Lows returns the low column.
func (h *History) Lows() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Low
	}

	return out
}

// Volumes returns the volume column.
func (h *History) Volumes() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Volume
	}

	return out
}

// Len returns the number of bars.
func (h *History) Len() int {
	return len(h.Bars)
}

// HighVolatilityBoard reports whether the instrument trades on a board with
// the 20% daily price band. STAR Market tickers start with 688 and ChiNext
// tickers with 300; everything else uses the 10% band.
func HighVolatilityBoard(symbol string) bool {
	return len(symbol) >= 3 && (symbol[:3] == "688" || symbol[:3] == "300")
}
