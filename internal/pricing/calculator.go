package pricing

import (
	"time"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/shopspring/decimal"
)

// CalculateLineAmount computes the amount for one estimate line from its
// quantity and snapshotted unit price, rounded half-up to whole won.
func CalculateLineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return RoundHalfUp(quantity.Mul(unitPrice))
}

// RecalculateEstimate recomputes every line amount and the derived
// subtotal/VAT/total triple on the estimate, in place, and returns it.
//
// Line amounts are always derived from the unit-price snapshot, never from
// a live catalog read. The subtotal is an exact sum with no intermediate
// rounding; VAT is rounded half-up once. Calling this twice with unchanged
// lines yields identical results.
func RecalculateEstimate(est *domain.Estimate) *domain.Estimate {
	subtotal := decimal.Zero
	for i := range est.Lines {
		est.Lines[i].Amount = CalculateLineAmount(est.Lines[i].Quantity, est.Lines[i].UnitPriceSnapshot)
		subtotal = subtotal.Add(est.Lines[i].Amount)
	}

	est.Subtotal = subtotal
	est.VATAmount = CalculateVAT(subtotal)
	est.TotalAmount = est.Subtotal.Add(est.VATAmount)
	est.UpdatedAt = time.Now().UTC()

	return est
}
