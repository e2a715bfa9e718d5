// Package core provides money formatting helpers.
//
// Amounts are decimal values as returned by the aggregation API. Formatting
// follows the pt-BR convention used by the statement screens: "R$ 1.234,56".
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formats value with two decimals, '.' thousands and ',' decimals.
//
// Examples:
//
//	FormatMoney(decimal.RequireFromString("1234.5"), false)  -> "1.234,50"
//	FormatMoney(decimal.RequireFromString("-40"), false)     -> "-40,00"
//	FormatMoney(decimal.RequireFromString("-40"), true)      -> "40,00"
func FormatMoney(value decimal.Decimal, absolute bool) string {
	if absolute {
		value = value.Abs()
	}
	s := value.Round(2).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := b.String() + "," + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

// FormatBRL prefixes FormatMoney with the currency symbol.
func FormatBRL(value decimal.Decimal, absolute bool) string {
	return "R$ " + FormatMoney(value, absolute)
}

// SignedAmount renders a transaction amount the way statement rows show it:
// DEBIT amounts get a leading '-' and the absolute value, CREDIT the absolute value.
func SignedAmount(t Transaction) string {
	prefix := ""
	if t.Type == Debit {
		prefix = "-"
	}
	return prefix + "R$ " + FormatMoney(t.Amount, true)
}
