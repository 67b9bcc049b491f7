package pricing

import (
	"testing"

	"github.com/aapiden/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var honeyTariff = NewTariff(1000, 500)

func honeyJar() CartLine {
	return CartLine{ProductID: "miel-500g", UnitPrice: d("3000"), Quantity: 2, WeightKg: d("1"), TaxRatePercent: d("1")}
}

func TestCalculate_WithShipping(t *testing.T) {
	s, err := Calculate([]CartLine{honeyJar()}, honeyTariff, true, false)
	require.NoError(t, err)

	assert.Equal(t, 2, s.NumberOfItems)
	assert.True(t, d("6000").Equal(s.SubTotal), s.SubTotal.String())
	assert.True(t, d("60").Equal(s.Tax), s.Tax.String())
	assert.True(t, d("2").Equal(s.TotalWeight))
	assert.True(t, d("1500").Equal(s.ShippingFee), s.ShippingFee.String())
	assert.True(t, d("7560").Equal(s.Total), s.Total.String())
}

func TestCalculate_Pickup(t *testing.T) {
	s, err := Calculate([]CartLine{honeyJar()}, honeyTariff, false, false)
	require.NoError(t, err)

	assert.True(t, s.ShippingFee.IsZero())
	assert.True(t, d("6060").Equal(s.Total), s.Total.String())
}

func TestCalculate_FreeShippingOverride(t *testing.T) {
	for _, needsShipping := range []bool{true, false} {
		for _, weight := range []string{"0", "0.4", "1", "25"} {
			line := honeyJar()
			line.WeightKg = d(weight)
			s, err := Calculate([]CartLine{line}, honeyTariff, needsShipping, true)
			require.NoError(t, err)
			assert.True(t, s.ShippingFee.IsZero(), "weight %s needsShipping %v", weight, needsShipping)
		}
	}
}

func TestCalculate_ZeroWeightIsFree(t *testing.T) {
	line := honeyJar()
	line.WeightKg = decimal.Zero
	s, err := Calculate([]CartLine{line}, honeyTariff, true, false)
	require.NoError(t, err)
	assert.True(t, s.ShippingFee.IsZero())
}

func TestShippingFee_BelowOneKgIsLinear(t *testing.T) {
	assert.True(t, d("250").Equal(ShippingFee(d("0.25"), honeyTariff)))
	assert.True(t, d("500").Equal(ShippingFee(d("0.5"), honeyTariff)))
	assert.True(t, d("999").Equal(ShippingFee(d("0.999"), honeyTariff)))
}

func TestShippingFee_MonotonicAboveOneKg(t *testing.T) {
	prev := ShippingFee(d("1"), honeyTariff)
	assert.True(t, d("1000").Equal(prev))
	for w := 1.1; w < 30; w += 0.7 {
		fee := ShippingFee(decimal.NewFromFloat(w), honeyTariff)
		assert.True(t, fee.GreaterThanOrEqual(prev), "fee decreased at %.2f kg", w)
		prev = fee
	}
}

func TestCalculate_MixedTaxRates(t *testing.T) {
	lines := []CartLine{
		{ProductID: "miel", UnitPrice: d("2500"), Quantity: 3, WeightKg: d("0.5"), TaxRatePercent: d("1")},
		{ProductID: "polen", UnitPrice: d("4200.50"), Quantity: 1, WeightKg: d("0.25"), TaxRatePercent: d("13")},
		{ProductID: "cera", UnitPrice: d("1000"), Quantity: 2, WeightKg: d("0.1"), TaxRatePercent: d("0")},
	}
	s, err := Calculate(lines, honeyTariff, true, false)
	require.NoError(t, err)

	assert.Equal(t, 6, s.NumberOfItems)
	assert.True(t, d("13700.50").Equal(s.SubTotal), s.SubTotal.String())
	// 75 + 546.065 + 0
	assert.True(t, d("621.065").Equal(s.Tax), s.Tax.String())
	assert.True(t, d("1.95").Equal(s.TotalWeight))
	assert.True(t, d("1475").Equal(s.ShippingFee), s.ShippingFee.String())
	assert.True(t, s.SubTotal.Add(s.Tax).Add(s.ShippingFee).Equal(s.Total))
}

func TestCalculate_Idempotent(t *testing.T) {
	lines := []CartLine{honeyJar(), {ProductID: "propoleo", UnitPrice: d("1999.99"), Quantity: 4, WeightKg: d("0.03"), TaxRatePercent: d("13")}}
	first, err := Calculate(lines, honeyTariff, true, false)
	require.NoError(t, err)
	second, err := Calculate(lines, honeyTariff, true, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first.Rounded(), second.Rounded())
}

func TestCalculate_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		line CartLine
	}{
		{"zero quantity", CartLine{UnitPrice: d("1"), Quantity: 0, WeightKg: d("1"), TaxRatePercent: d("1")}},
		{"negative price", CartLine{UnitPrice: d("-1"), Quantity: 1, WeightKg: d("1"), TaxRatePercent: d("1")}},
		{"negative weight", CartLine{UnitPrice: d("1"), Quantity: 1, WeightKg: d("-0.1"), TaxRatePercent: d("1")}},
		{"tax above 100", CartLine{UnitPrice: d("1"), Quantity: 1, WeightKg: d("1"), TaxRatePercent: d("101")}},
		{"negative tax", CartLine{UnitPrice: d("1"), Quantity: 1, WeightKg: d("1"), TaxRatePercent: d("-1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculate([]CartLine{tt.line}, honeyTariff, true, false)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := Calculate(nil, honeyTariff, true, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRounded_TotalIsSumOfParts(t *testing.T) {
	lines := []CartLine{{UnitPrice: d("1999.995"), Quantity: 3, WeightKg: d("0.333"), TaxRatePercent: d("13")}}
	s, err := Calculate(lines, honeyTariff, true, false)
	require.NoError(t, err)

	a := s.Rounded()
	sum := decimal.NewFromFloat(a.SubTotal).Add(decimal.NewFromFloat(a.Tax)).Add(decimal.NewFromFloat(a.ShippingFee))
	assert.True(t, sum.Equal(decimal.NewFromFloat(a.Total)), "%v != %v", sum, a.Total)
}

func TestVerifyTotal(t *testing.T) {
	s, err := Calculate([]CartLine{honeyJar()}, honeyTariff, true, false)
	require.NoError(t, err)

	assert.NoError(t, VerifyTotal(s, 7560))
	assert.NoError(t, VerifyTotal(s, 7560.004))
	assert.ErrorIs(t, VerifyTotal(s, 7560.01), domain.ErrTotalMismatch)
	assert.ErrorIs(t, VerifyTotal(s, 6060), domain.ErrTotalMismatch)
}

func TestVerifyTotal_MatchesStoredTotal(t *testing.T) {
	lines := []CartLine{{UnitPrice: d("0.004"), Quantity: 1, WeightKg: d("0"), TaxRatePercent: d("100")}}
	s, err := Calculate(lines, honeyTariff, false, false)
	require.NoError(t, err)

	stored := s.Rounded().Total
	assert.Equal(t, 0.0, stored)
	assert.NoError(t, VerifyTotal(s, stored))
	assert.ErrorIs(t, VerifyTotal(s, 0.01), domain.ErrTotalMismatch)
}
