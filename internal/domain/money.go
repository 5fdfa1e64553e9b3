package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a rupee amount stored as BIGINT paise (10^-2) to avoid
// floating point errors in the ledger.
type Money struct {
	Paise int64
}

// NewMoney creates a Money from paise.
func NewMoney(paise int64) Money {
	return Money{Paise: paise}
}

// FromRupees converts a decimal rupee value to paise, rounding half-up to
// two decimal places first.
func FromRupees(d decimal.Decimal) Money {
	return Money{Paise: d.Round(2).Mul(decimal.NewFromInt(100)).IntPart()}
}

// ToDecimal converts paise to a rupee decimal.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.NewFromInt(m.Paise).Div(decimal.NewFromInt(100))
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Paise > 0
}

// String renders the amount with two decimal places.
func (m Money) String() string {
	return fmt.Sprintf("INR %s", m.ToDecimal().StringFixed(2))
}

// RoundRupees rounds a rupee decimal half-up to two decimal places.
// decimal.Round rounds half away from zero, which matches round-half-up for
// the non-negative amounts the engines deal in.
func RoundRupees(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
