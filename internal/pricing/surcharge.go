package pricing

import "github.com/shopspring/decimal"

// SurchargeKind selects how a surcharge adjusts a base amount
type SurchargeKind string

const (
	SurchargePercent SurchargeKind = "percent"
	SurchargeFixed   SurchargeKind = "fixed"
)

var oneHundred = decimal.NewFromInt(100)

// ApplySurcharge layers a percentage or fixed adjustment on a base amount.
// Used for floor/height premiums, rush fees and similar add-ons.
//
// An unrecognized kind returns the base amount unchanged. This passthrough
// is long-standing observed behavior that downstream documents rely on;
// changing it to an error needs product sign-off first.
func ApplySurcharge(base decimal.Decimal, kind SurchargeKind, value decimal.Decimal) decimal.Decimal {
	switch kind {
	case SurchargePercent:
		return RoundHalfUp(base.Mul(decimal.NewFromInt(1).Add(value.Div(oneHundred))))
	case SurchargeFixed:
		return base.Add(value)
	default:
		return base
	}
}
