package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func (suite *MetricsTestSuite) TestAnnualizedReturn() {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	// 10% over exactly one year stays 10%.
	suite.InDelta(0.10, annualizedReturn(0.10, start, start.AddDate(1, 0, 0)), 1e-9)

	// 10% over half a year compounds to (1.1)^2 - 1.
	halfYear := start.Add(time.Hour * 24 * 365 / 2)
	suite.InDelta(math.Pow(1.1, 2)-1, annualizedReturn(0.10, start, halfYear), 1e-6)

	// Degenerate window returns the raw figure.
	suite.InDelta(0.10, annualizedReturn(0.10, start, start), 1e-9)
}

func (suite *MetricsTestSuite) TestMaxDrawdown() {
	suite.InDelta(0.0, maxDrawdown([]float64{100, 110, 120}), 1e-9)
	suite.InDelta(0.5, maxDrawdown([]float64{100, 200, 100, 150}), 1e-9)
	suite.InDelta(0.25, maxDrawdown([]float64{100, 80, 120, 90}), 1e-9)
	suite.InDelta(0.0, maxDrawdown(nil), 1e-9)
}

func (suite *MetricsTestSuite) TestSharpeRatio() {
	// Perfectly steady growth has zero variance.
	suite.InDelta(0.0, sharpeRatio([]float64{100, 101, 102.01}), 1e-6)

	// A small gain followed by a larger loss nets a negative mean return.
	suite.Less(sharpeRatio([]float64{100, 105, 94.5}), 0.0)

	suite.InDelta(0.0, sharpeRatio([]float64{100}), 1e-9)
}

func (suite *MetricsTestSuite) TestSharpeSteadyGainPositive() {
	values := []float64{100, 101, 102, 103.5, 104}
	suite.Greater(sharpeRatio(values), 0.0)
}
