package pricing_test

import (
	"testing"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCalculateLineAmount_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		name      string
		quantity  string
		unitPrice string
		want      string
	}{
		{"exact product", "3", "50000", "150000"},
		{"fractional rounds up", "3", "333.33", "1000"},
		{"half rounds up not down", "2", "0.5", "1"},
		{"half rounds away from zero when negative", "-2", "0.5", "-1"},
		{"just below half rounds down", "1", "0.49", "0"},
		{"fractional quantity", "2.5", "40000", "100000"},
		{"zero quantity", "0", "50000", "0"},
		{"zero price", "10", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pricing.CalculateLineAmount(d(tt.quantity), d(tt.unitPrice))
			assert.True(t, d(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestRecalculateEstimate_DerivesConsistentTriple(t *testing.T) {
	est := &domain.Estimate{
		Lines: []domain.EstimateLine{
			{Quantity: d("3"), UnitPriceSnapshot: d("50000")},
			{Quantity: d("12.5"), UnitPriceSnapshot: d("8000")},
		},
	}

	pricing.RecalculateEstimate(est)

	assert.True(t, d("150000").Equal(est.Lines[0].Amount))
	assert.True(t, d("100000").Equal(est.Lines[1].Amount))
	assert.True(t, d("250000").Equal(est.Subtotal))
	assert.True(t, d("25000").Equal(est.VATAmount))
	assert.True(t, d("275000").Equal(est.TotalAmount))

	// the triple is always mutually consistent
	assert.True(t, est.TotalAmount.Equal(est.Subtotal.Add(est.VATAmount)))
	assert.True(t, est.VATAmount.Equal(pricing.CalculateVAT(est.Subtotal)))
	assert.False(t, est.UpdatedAt.IsZero())
}

func TestRecalculateEstimate_SubtotalSumsWithoutIntermediateRounding(t *testing.T) {
	// each line amount is rounded, but the subtotal is the exact sum of the
	// rounded amounts; no re-rounding happens at the subtotal step
	est := &domain.Estimate{
		Lines: []domain.EstimateLine{
			{Quantity: d("3"), UnitPriceSnapshot: d("333.33")}, // 999.99 -> 1000
			{Quantity: d("2"), UnitPriceSnapshot: d("0.5")},    // 1 -> 1
		},
	}

	pricing.RecalculateEstimate(est)

	assert.True(t, d("1001").Equal(est.Subtotal))
	assert.True(t, d("100").Equal(est.VATAmount))
	assert.True(t, d("1101").Equal(est.TotalAmount))
}

func TestRecalculateEstimate_Idempotent(t *testing.T) {
	est := &domain.Estimate{
		Lines: []domain.EstimateLine{
			{Quantity: d("7"), UnitPriceSnapshot: d("14285.71")},
			{Quantity: d("1.333"), UnitPriceSnapshot: d("99999")},
		},
	}

	pricing.RecalculateEstimate(est)
	first := struct{ sub, vat, total decimal.Decimal }{est.Subtotal, est.VATAmount, est.TotalAmount}

	pricing.RecalculateEstimate(est)

	assert.True(t, first.sub.Equal(est.Subtotal))
	assert.True(t, first.vat.Equal(est.VATAmount))
	assert.True(t, first.total.Equal(est.TotalAmount))
}

func TestRecalculateEstimate_EmptyLines(t *testing.T) {
	est := &domain.Estimate{}

	pricing.RecalculateEstimate(est)

	assert.True(t, est.Subtotal.IsZero())
	assert.True(t, est.VATAmount.IsZero())
	assert.True(t, est.TotalAmount.IsZero())
}

func TestRecalculateEstimate_IgnoresStaleAmounts(t *testing.T) {
	// pre-existing amounts and totals must be overwritten, never trusted
	est := &domain.Estimate{
		Subtotal:    d("999999"),
		VATAmount:   d("1"),
		TotalAmount: d("42"),
		Lines: []domain.EstimateLine{
			{Quantity: d("3"), UnitPriceSnapshot: d("50000"), Amount: d("777")},
		},
	}

	pricing.RecalculateEstimate(est)

	require.True(t, d("150000").Equal(est.Lines[0].Amount))
	assert.True(t, d("150000").Equal(est.Subtotal))
	assert.True(t, d("15000").Equal(est.VATAmount))
	assert.True(t, d("165000").Equal(est.TotalAmount))
}

func TestCalculateVAT(t *testing.T) {
	assert.True(t, d("15000").Equal(pricing.CalculateVAT(d("150000"))))
	// half-up at the VAT boundary: 10% of 15 = 1.5 -> 2
	assert.True(t, d("2").Equal(pricing.CalculateVAT(d("15"))))
	assert.True(t, decimal.Zero.Equal(pricing.CalculateVAT(decimal.Zero)))
}
