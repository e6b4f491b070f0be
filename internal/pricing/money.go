// Package pricing implements the deterministic estimate calculation core:
// line amounts, VAT, surcharges and totals. All arithmetic uses exact
// decimals; binary floating point never touches a monetary value.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// VATRate is the fixed Korean value-added tax rate applied to estimate
// subtotals.
var VATRate = decimal.NewFromFloat(0.10)

// RoundHalfUp rounds to the smallest currency unit (whole won), rounding
// exactly-half values away from zero. This must stay half-away-from-zero,
// not banker's rounding, so amounts reconcile against issued documents.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// CalculateVAT derives the VAT amount for a subtotal.
func CalculateVAT(subtotal decimal.Decimal) decimal.Decimal {
	return RoundHalfUp(subtotal.Mul(VATRate))
}

// FormatKRW renders a whole-won amount with grouped thousands and the won
// suffix, e.g. "1,500,000원". Presentation only; stored values are never
// derived from the formatted string.
func FormatKRW(amount decimal.Decimal) string {
	s := RoundHalfUp(amount).String()

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteString("원")
	return b.String()
}
