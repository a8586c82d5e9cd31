// Package market classifies the benchmark index into a per-bar favorable /
// unfavorable regime used to gate individual-instrument buy signals.
package market

import (
	"time"

	"github.com/quantrill/stockscreen/internal/indicator"
	"github.com/quantrill/stockscreen/internal/types"
)

const minRegimeBars = 60

// RegimeConfig tunes the classifier. The three-factor structure (trend
// ordering, momentum sign, volume non-collapse) is fixed; only the
// strictness of the trend ordering and the volume floor vary.
type RegimeConfig struct {
	// Strict requires MA5 > MA20 > MA60; otherwise MA20 > MA60 suffices.
	Strict bool
	// VolumeFloor is the minimum fraction of the 5-day average volume.
	VolumeFloor float64
}

// DefaultRegimeConfig mirrors the enhanced strategy preset.
func DefaultRegimeConfig() RegimeConfig {
	return RegimeConfig{Strict: true, VolumeFloor: 0.8}
}

// Classify reduces the benchmark history to a boolean series: true where
// the market is favorable. Derived only from the benchmark's own bars and
// computed once per run. Fewer than 60 bars yields all-false, never true
// by default.
func Classify(benchmark *types.History, cfg RegimeConfig) ([]bool, error) {
	out := make([]bool, benchmark.Len())
	if benchmark.Len() < minRegimeBars {
		return out, nil
	}

	closes := benchmark.Closes()
	volumes := benchmark.Volumes()

	ma5, err := indicator.SMA(closes, 5)
	if err != nil {
		return nil, err
	}

	ma20, err := indicator.SMA(closes, 20)
	if err != nil {
		return nil, err
	}

	ma60, err := indicator.SMA(closes, 60)
	if err != nil {
		return nil, err
	}

	macd, err := indicator.MACD(closes, 12, 26, 9)
	if err != nil {
		return nil, err
	}

	volMA5, err := indicator.SMA(volumes, 5)
	if err != nil {
		return nil, err
	}

	for i := range out {
		trend := ma20[i] > ma60[i]
		if cfg.Strict {
			trend = ma5[i] > ma20[i] && trend
		}

		momentum := macd.Diff[i] > 0
		volumeOK := volumes[i] >= cfg.VolumeFloor*volMA5[i]

		out[i] = trend && momentum && volumeOK
	}

	return out, nil
}

// Lookup turns a classification into a date-keyed predicate shared across
// every instrument in a run. Dates absent from the benchmark calendar are
// unfavorable.
func Lookup(benchmark *types.History, series []bool) func(time.Time) bool {
	byDate := make(map[time.Time]bool, len(series))
	for i, favorable := range series {
		if i < benchmark.Len() {
			byDate[dateKey(benchmark.Bars[i].Date)] = favorable
		}
	}

	return func(date time.Time) bool {
		return byDate[dateKey(date)]
	}
}

func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
