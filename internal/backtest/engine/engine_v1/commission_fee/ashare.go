package commission_fee

import "github.com/shopspring/decimal"

// AShareCommissionFee models A-share trading costs as flat proportional
// rates: brokerage on both sides, stamp duty and transfer fee folded into
// the sell side. Defaults are 0.03% on buys and 0.13% on sells.
type AShareCommissionFee struct {
	buyRate  decimal.Decimal
	sellRate decimal.Decimal
}

// NewAShareCommissionFee returns the default A-share fee model.
func NewAShareCommissionFee() *AShareCommissionFee {
	return &AShareCommissionFee{
		buyRate:  decimal.NewFromFloat(0.0003),
		sellRate: decimal.NewFromFloat(0.0013),
	}
}

// NewCustomCommissionFee returns a proportional fee model with explicit
// rates.
func NewCustomCommissionFee(buyRate, sellRate float64) *AShareCommissionFee {
	return &AShareCommissionFee{
		buyRate:  decimal.NewFromFloat(buyRate),
		sellRate: decimal.NewFromFloat(sellRate),
	}
}

// BuyFee returns the fee on a buy of the given gross amount.
func (f *AShareCommissionFee) BuyFee(amount float64) float64 {
	fee, _ := decimal.NewFromFloat(amount).Mul(f.buyRate).Float64()

	return fee
}

// SellFee returns the fee on a sell of the given gross amount.
func (f *AShareCommissionFee) SellFee(amount float64) float64 {
	fee, _ := decimal.NewFromFloat(amount).Mul(f.sellRate).Float64()

	return fee
}
