// Package core holds the domain model shared by every other package:
// money, transactions, scopes, balances, projects, debts and transfers.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (tiyin for UZS, cents for USD).
// All arithmetic is integer; decimals exist only at the parsing and
// formatting boundary.
type Money struct {
	Cents int64
}

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string ("12000", "12.50", "12,50") into
// Money with half-up rounding past two fractional digits. Only positive
// amounts are accepted.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() || !cents.IsInteger() {
		return Money{}, ErrInvalidAmount
	}
	v := cents.IntPart()
	if v <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: v}, nil
}

// MoneyFromDecimal converts an already-parsed decimal magnitude into Money.
// Used when candidates arrive from the extraction service as numbers.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Format renders the amount with space-grouped thousands and a currency
// suffix: 1234500 tiyin -> "12 345 so'm". A fractional part is shown only
// when nonzero.
func (m Money) Format(c Currency) string {
	neg := m.Cents < 0
	cents := m.Cents
	if neg {
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100

	digits := decimal.NewFromInt(whole).String()
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if frac != 0 {
		b.WriteByte('.')
		b.WriteByte(byte('0' + frac/10))
		b.WriteByte(byte('0' + frac%10))
	}
	b.WriteByte(' ')
	b.WriteString(c.Suffix())
	return b.String()
}

// FormatSigned prefixes income with "+" and expense with "-".
func (m Money) FormatSigned(kind TransactionKind, c Currency) string {
	if kind == Expense {
		return "-" + m.Format(c)
	}
	return "+" + m.Format(c)
}

// Suffix is the display suffix for amounts in this currency.
func (c Currency) Suffix() string {
	if c == UZS {
		return "so'm"
	}
	return string(c)
}
