// Package commission_fee models proportional transaction costs applied to
// fill amounts.
package commission_fee

// CommissionFee computes the fee charged on a fill of the given gross
// amount (price x quantity).
type CommissionFee interface {
	BuyFee(amount float64) float64
	SellFee(amount float64) float64
}
