package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places every monetary amount is
// rounded to. All rounding in the system is half-up: the midpoint rounds
// away from zero, which is what decimal.Round and decimal.DivRound do.
const MoneyScale = 2

// DefaultCurrency is used when a request does not tag its amount.
const DefaultCurrency = "USD"

var oneHundred = decimal.NewFromInt(100)

// RoundMoney rounds an amount half-up to the money scale.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// DivMoney divides amount by divisor, rounding half-up to the money scale.
func DivMoney(amount, divisor decimal.Decimal) decimal.Decimal {
	return amount.DivRound(divisor, MoneyScale)
}

// PercentOf returns pct percent of total, rounded half-up to the money scale.
func PercentOf(total, pct decimal.Decimal) decimal.Decimal {
	return total.Mul(pct).DivRound(oneHundred, MoneyScale)
}
