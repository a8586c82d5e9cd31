package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantrill/stockscreen/internal/types"
)

type RegimeTestSuite struct {
	suite.Suite
}

func TestRegimeSuite(t *testing.T) {
	suite.Run(t, new(RegimeTestSuite))
}

func makeHistory(symbol string, closes, volumes []float64) *types.History {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))
	for i := range closes {
		bars[i] = types.Bar{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i),
			Open:   closes[i],
			High:   closes[i],
			Low:    closes[i],
			Close:  closes[i],
			Volume: volumes[i],
			Amount: closes[i] * volumes[i],
		}
	}

	return &types.History{Symbol: symbol, Bars: bars}
}

func (suite *RegimeTestSuite) TestFlatSeriesAllFalse() {
	closes := make([]float64, 100)
	volumes := make([]float64, 100)
	for i := range closes {
		closes[i] = 10
		volumes[i] = 1_000_000
	}

	out, err := Classify(makeHistory("000300", closes, volumes), DefaultRegimeConfig())
	suite.Require().NoError(err)
	suite.Require().Len(out, 100)

	for i, favorable := range out {
		suite.False(favorable, "flat market must never classify favorable (bar %d)", i)
	}
}

func (suite *RegimeTestSuite) TestShortHistoryAllFalse() {
	closes := make([]float64, 59)
	volumes := make([]float64, 59)
	for i := range closes {
		closes[i] = 10 + float64(i)
		volumes[i] = 1_000_000
	}

	out, err := Classify(makeHistory("000300", closes, volumes), DefaultRegimeConfig())
	suite.Require().NoError(err)

	for _, favorable := range out {
		suite.False(favorable)
	}
}

func (suite *RegimeTestSuite) TestSteadyUptrendFavorable() {
	closes := make([]float64, 120)
	volumes := make([]float64, 120)
	price := 10.0
	for i := range closes {
		closes[i] = price
		price *= 1.01
		volumes[i] = 1_000_000
	}

	out, err := Classify(makeHistory("000300", closes, volumes), DefaultRegimeConfig())
	suite.Require().NoError(err)
	suite.True(out[len(out)-1], "a steady 1%%/day uptrend with stable volume should be favorable")
}

func (suite *RegimeTestSuite) TestVolumeCollapseUnfavorable() {
	closes := make([]float64, 120)
	volumes := make([]float64, 120)
	price := 10.0
	for i := range closes {
		closes[i] = price
		price *= 1.01
		volumes[i] = 1_000_000
	}

	// Volume drops to a fifth of its recent average on the last bar.
	volumes[119] = 200_000

	out, err := Classify(makeHistory("000300", closes, volumes), DefaultRegimeConfig())
	suite.Require().NoError(err)
	suite.False(out[119])
}

func (suite *RegimeTestSuite) TestLenientOrdering() {
	// Recent pullback: MA5 dips below MA20 while the longer ordering holds.
	closes := make([]float64, 120)
	volumes := make([]float64, 120)
	price := 10.0
	for i := range closes {
		closes[i] = price
		if i < 110 {
			price *= 1.01
		} else {
			price *= 0.998
		}

		volumes[i] = 1_000_000
	}

	strict, err := Classify(makeHistory("000300", closes, volumes), RegimeConfig{Strict: true, VolumeFloor: 0.8})
	suite.Require().NoError(err)

	lenient, err := Classify(makeHistory("000300", closes, volumes), RegimeConfig{Strict: false, VolumeFloor: 0.8})
	suite.Require().NoError(err)

	// Lenient can only be more permissive than strict.
	for i := range strict {
		if strict[i] {
			suite.True(lenient[i], "strict favorable implies lenient favorable (bar %d)", i)
		}
	}
}
