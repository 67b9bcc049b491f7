// Package pricing turns cart lines into the money amounts stored on an order.
// Every amount is computed with exact decimals and only rounded by Rounded.
package pricing

import (
	"fmt"

	"github.com/aapiden/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// MismatchTolerance is the largest accepted difference between the
// client-submitted total and the recomputed one.
var MismatchTolerance = decimal.RequireFromString("0.005")

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

type CartLine struct {
	ProductID      string
	UnitPrice      decimal.Decimal
	Quantity       int
	WeightKg       decimal.Decimal
	TaxRatePercent decimal.Decimal
}

// Tariff is the two-rate shipping schedule, in CRC per kilogram.
type Tariff struct {
	FirstKgRate      decimal.Decimal
	AdditionalKgRate decimal.Decimal
}

func NewTariff(firstKgRate, additionalKgRate float64) Tariff {
	return Tariff{
		FirstKgRate:      decimal.NewFromFloat(firstKgRate),
		AdditionalKgRate: decimal.NewFromFloat(additionalKgRate),
	}
}

type Summary struct {
	NumberOfItems int
	SubTotal      decimal.Decimal
	Tax           decimal.Decimal
	TotalWeight   decimal.Decimal
	ShippingFee   decimal.Decimal
	Total         decimal.Decimal
}

// Amounts is the persisted form of a Summary.
type Amounts struct {
	NumberOfItems int
	SubTotal      float64
	Tax           float64
	ShippingFee   float64
	Total         float64
}

// Calculate reduces lines into a Summary. It has no side effects.
func Calculate(lines []CartLine, tariff Tariff, needsShipping, freeShippingOverride bool) (Summary, error) {
	if len(lines) == 0 {
		return Summary{}, fmt.Errorf("%w: cart is empty", domain.ErrInvalidInput)
	}
	if tariff.FirstKgRate.IsNegative() || tariff.AdditionalKgRate.IsNegative() {
		return Summary{}, fmt.Errorf("%w: shipping rates must not be negative", domain.ErrInvalidInput)
	}

	s := Summary{
		SubTotal:    decimal.Zero,
		Tax:         decimal.Zero,
		TotalWeight: decimal.Zero,
	}
	for i, line := range lines {
		if err := validateLine(line); err != nil {
			return Summary{}, fmt.Errorf("line %d: %w", i, err)
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		lineTotal := line.UnitPrice.Mul(qty)

		s.NumberOfItems += line.Quantity
		s.SubTotal = s.SubTotal.Add(lineTotal)
		s.Tax = s.Tax.Add(lineTotal.Mul(line.TaxRatePercent).Div(hundred))
		s.TotalWeight = s.TotalWeight.Add(line.WeightKg.Mul(qty))
	}

	s.ShippingFee = decimal.Zero
	if needsShipping && !freeShippingOverride {
		s.ShippingFee = ShippingFee(s.TotalWeight, tariff)
	}
	s.Total = s.SubTotal.Add(s.Tax).Add(s.ShippingFee)
	return s, nil
}

// ShippingFee applies the tariff with its single breakpoint at 1kg.
func ShippingFee(totalWeight decimal.Decimal, tariff Tariff) decimal.Decimal {
	if totalWeight.GreaterThanOrEqual(one) {
		return tariff.FirstKgRate.Add(totalWeight.Sub(one).Mul(tariff.AdditionalKgRate))
	}
	return tariff.FirstKgRate.Mul(totalWeight)
}

func validateLine(line CartLine) error {
	switch {
	case line.Quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput)
	case line.UnitPrice.IsNegative():
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	case line.WeightKg.IsNegative():
		return fmt.Errorf("%w: weight must not be negative", domain.ErrInvalidInput)
	case line.TaxRatePercent.IsNegative() || line.TaxRatePercent.GreaterThan(hundred):
		return fmt.Errorf("%w: tax rate must be between 0 and 100", domain.ErrInvalidInput)
	}
	return nil
}

// Rounded rounds each component to 2 places. The total is the sum of the
// rounded components so the persisted invariant holds exactly.
func (s Summary) Rounded() Amounts {
	return Amounts{
		NumberOfItems: s.NumberOfItems,
		SubTotal:      s.SubTotal.Round(2).InexactFloat64(),
		Tax:           s.Tax.Round(2).InexactFloat64(),
		ShippingFee:   s.ShippingFee.Round(2).InexactFloat64(),
		Total:         s.roundedTotal().InexactFloat64(),
	}
}

func (s Summary) roundedTotal() decimal.Decimal {
	return s.SubTotal.Round(2).Add(s.Tax.Round(2)).Add(s.ShippingFee.Round(2))
}

// VerifyTotal rejects a client total that disagrees with the total Rounded stores.
func VerifyTotal(s Summary, clientTotal float64) error {
	expected := s.roundedTotal()
	client := decimal.NewFromFloat(clientTotal)
	if expected.Sub(client).Abs().GreaterThan(MismatchTolerance) {
		return fmt.Errorf("%w: expected %s, got %s",
			domain.ErrTotalMismatch, expected.StringFixed(2), client.StringFixed(2))
	}
	return nil
}
