package commission_fee

// ZeroCommissionFee charges nothing. Used by tests and cost-free
// what-if runs.
type ZeroCommissionFee struct{}

// NewZeroCommissionFee returns a fee model that always charges zero.
func NewZeroCommissionFee() *ZeroCommissionFee {
	return &ZeroCommissionFee{}
}

// BuyFee always returns zero.
func (f *ZeroCommissionFee) BuyFee(amount float64) float64 {
	return 0
}

// SellFee always returns zero.
func (f *ZeroCommissionFee) SellFee(amount float64) float64 {
	return 0
}
