// Package money holds decimal helpers shared by the ledger and reports.
package money

import (
	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits stored for every amount.
const Places = 2

// Round quantizes d to cents, rounding halves away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// OrZero returns the value of a nullable sum, treating NULL as zero.
func OrZero(n decimal.NullDecimal) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Decimal
}
