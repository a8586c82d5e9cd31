package commission_fee

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CommissionFeeTestSuite struct {
	suite.Suite
}

func TestCommissionFeeSuite(t *testing.T) {
	suite.Run(t, new(CommissionFeeTestSuite))
}

func (suite *CommissionFeeTestSuite) TestAShareRates() {
	fee := NewAShareCommissionFee()

	suite.InDelta(3.0, fee.BuyFee(10_000), 1e-9)
	suite.InDelta(13.0, fee.SellFee(10_000), 1e-9)
}

func (suite *CommissionFeeTestSuite) TestCustomRates() {
	fee := NewCustomCommissionFee(0.001, 0.002)

	suite.InDelta(10.0, fee.BuyFee(10_000), 1e-9)
	suite.InDelta(20.0, fee.SellFee(10_000), 1e-9)
}

func (suite *CommissionFeeTestSuite) TestZeroFee() {
	fee := NewZeroCommissionFee()

	suite.Zero(fee.BuyFee(10_000))
	suite.Zero(fee.SellFee(10_000))
}

func (suite *CommissionFeeTestSuite) TestSellSideCostsMore() {
	fee := NewAShareCommissionFee()
	suite.Greater(fee.SellFee(50_000), fee.BuyFee(50_000))
}
