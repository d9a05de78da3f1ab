package domain

import "github.com/shopspring/decimal"

var (
	coefficientFront  = decimal.New(5, -1) // 0.5
	coefficientBack   = decimal.New(1, 0)
	coefficientMiddle = decimal.New(2, 0)
)

// RowCoefficient returns the price multiplier for a 1-based row position in
// a hall with totalRows distinct rows. Halls with a single row are not
// differentiated; the front row is discounted, the back row keeps the base
// price and the middle rows are the most expensive.
func RowCoefficient(row, totalRows int) decimal.Decimal {
	if totalRows <= 1 {
		return coefficientBack
	}

	if row <= 1 {
		return coefficientFront
	}

	if row >= totalRows {
		return coefficientBack
	}

	return coefficientMiddle
}

// SeatPrice applies the row coefficient to a session's base price. The
// result is exact: both operands are fixed-point decimals.
func SeatPrice(basePrice decimal.Decimal, row, totalRows int) decimal.Decimal {
	return basePrice.Mul(RowCoefficient(row, totalRows))
}
