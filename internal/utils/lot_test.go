package utils

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type LotTestSuite struct {
	suite.Suite
}

func TestLotSuite(t *testing.T) {
	suite.Run(t, new(LotTestSuite))
}

func (suite *LotTestSuite) TestRoundToLot() {
	suite.Equal(0.0, RoundToLot(99))
	suite.Equal(100.0, RoundToLot(100))
	suite.Equal(100.0, RoundToLot(199.9))
	suite.Equal(300.0, RoundToLot(350))
	suite.Equal(0.0, RoundToLot(-50))
}

func (suite *LotTestSuite) TestAffordableQuantity() {
	noFee := func(float64) float64 { return 0 }

	// 10,000 notional at price 33: 303 shares floored to 300.
	suite.Equal(300.0, AffordableQuantity(10_000, 33, 100_000, noFee))

	// Cash below the notional shrinks the order.
	suite.Equal(200.0, AffordableQuantity(10_000, 33, 7_000, noFee))

	// Not even one lot affordable.
	suite.Equal(0.0, AffordableQuantity(10_000, 33, 3_000, noFee))
}

func (suite *LotTestSuite) TestAffordableQuantityWithFee() {
	fee := func(amount float64) float64 { return amount * 0.0003 }

	// 100 shares at 100 = 10,000 plus 3 fee; 10,002 cash cannot cover it.
	suite.Equal(0.0, AffordableQuantity(10_000, 100, 10_002, fee))
	suite.Equal(100.0, AffordableQuantity(10_000, 100, 10_003, fee))
}

func (suite *LotTestSuite) TestDegenerateInputs() {
	noFee := func(float64) float64 { return 0 }

	suite.Equal(0.0, AffordableQuantity(10_000, 0, 100_000, noFee))
	suite.Equal(0.0, AffordableQuantity(0, 10, 100_000, noFee))
	suite.Equal(0.0, AffordableQuantity(10_000, 10, 0, noFee))
}
