package pricing_test

import (
	"testing"

	"github.com/bangsu-tech/estimate-api/internal/pricing"
	"github.com/stretchr/testify/assert"
)

func TestApplySurcharge_Percent(t *testing.T) {
	got := pricing.ApplySurcharge(d("100000"), pricing.SurchargePercent, d("10"))
	assert.True(t, d("110000").Equal(got))

	// percent result is rounded half-up to whole won
	got = pricing.ApplySurcharge(d("333"), pricing.SurchargePercent, d("15"))
	assert.True(t, d("383").Equal(got), "382.95 rounds to 383, got %s", got)
}

func TestApplySurcharge_Fixed(t *testing.T) {
	got := pricing.ApplySurcharge(d("100000"), pricing.SurchargeFixed, d("5000"))
	assert.True(t, d("105000").Equal(got))
}

func TestApplySurcharge_UnknownKindPassesThrough(t *testing.T) {
	// documented passthrough: an unrecognized kind leaves the base untouched
	got := pricing.ApplySurcharge(d("100000"), pricing.SurchargeKind("bogus"), d("5000"))
	assert.True(t, d("100000").Equal(got))

	got = pricing.ApplySurcharge(d("100000"), pricing.SurchargeKind(""), d("10"))
	assert.True(t, d("100000").Equal(got))
}

func TestFormatKRW(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"1500000", "1,500,000원"},
		{"0", "0원"},
		{"999", "999원"},
		{"1000", "1,000원"},
		{"165000", "165,000원"},
		{"-25000", "-25,000원"},
		{"1234567890", "1,234,567,890원"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, pricing.FormatKRW(d(tt.amount)))
	}
}
