// Package utils holds small helpers shared across the engine: lot
// rounding and order sizing.
package utils

import "math"

// LotSize is the minimum tradable quantity on A-share boards.
const LotSize = 100

// RoundToLot floors a share quantity to a whole number of lots.
func RoundToLot(quantity float64) float64 {
	if quantity <= 0 {
		return 0
	}

	return math.Floor(quantity/LotSize) * LotSize
}

// AffordableQuantity sizes a buy: the fixed notional divided by price,
// floored to whole lots, then shrunk lot by lot until the gross amount
// plus fee fits inside the available cash. Returns 0 when not even one
// lot fits.
func AffordableQuantity(notional, price, cash float64, feeOf func(amount float64) float64) float64 {
	if price <= 0 || notional <= 0 || cash <= 0 {
		return 0
	}

	quantity := RoundToLot(notional / price)
	for quantity > 0 {
		amount := quantity * price
		if amount+feeOf(amount) <= cash {
			return quantity
		}

		quantity -= LotSize
	}

	return 0
}
