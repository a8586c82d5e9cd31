package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type MACDTestSuite struct {
	suite.Suite
}

func TestMACDSuite(t *testing.T) {
	suite.Run(t, new(MACDTestSuite))
}

func (suite *MACDTestSuite) TestConstantSeriesIsZero() {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 10
	}

	res, err := MACD(closes, 12, 26, 9)
	suite.Require().NoError(err)

	for i := range closes {
		suite.InDelta(0.0, res.Diff[i], 1e-9)
		suite.InDelta(0.0, res.Signal[i], 1e-9)
		suite.InDelta(0.0, res.Hist[i], 1e-9)
	}
}

func (suite *MACDTestSuite) TestRisingSeriesPositiveHist() {
	closes := make([]float64, 60)
	price := 10.0
	for i := range closes {
		closes[i] = price
		price *= 1.02
	}

	res, err := MACD(closes, 12, 26, 9)
	suite.Require().NoError(err)

	last := len(closes) - 1
	suite.Greater(res.Diff[last], 0.0, "fast EMA should sit above slow EMA on a steady rise")
	suite.Greater(res.Hist[last], 0.0)
}

func (suite *MACDTestSuite) TestHistDoublesDiffMinusSignal() {
	closes := []float64{10, 11, 10.5, 12, 13, 12.5, 14, 15, 14.2, 16, 17, 16.5, 18}

	res, err := MACD(closes, 5, 10, 4)
	suite.Require().NoError(err)

	for i := range closes {
		suite.InDelta(2*(res.Diff[i]-res.Signal[i]), res.Hist[i], 1e-9)
	}
}

func (suite *MACDTestSuite) TestInvalidSpans() {
	_, err := MACD([]float64{1, 2, 3}, 0, 26, 9)
	suite.Error(err)

	_, err = MACD([]float64{1, 2, 3}, 12, -1, 9)
	suite.Error(err)
}
