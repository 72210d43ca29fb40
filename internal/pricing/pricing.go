// Package pricing computes line, order and modifier prices. Every function is
// pure and safe to call from any goroutine.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places kept for derived amounts.
const MoneyPlaces = 2

// Rates are fractional surcharges applied to a subtotal, e.g. 0.10 for 10%.
type Rates struct {
	Tax           decimal.Decimal
	ServiceCharge decimal.Decimal
}

// Validate ensures both rates fall in [0, 1].
func (r Rates) Validate() error {
	one := decimal.NewFromInt(1)
	if r.Tax.IsNegative() || r.Tax.GreaterThan(one) {
		return fmt.Errorf("tax rate %s out of range", r.Tax)
	}
	if r.ServiceCharge.IsNegative() || r.ServiceCharge.GreaterThan(one) {
		return fmt.Errorf("service charge rate %s out of range", r.ServiceCharge)
	}
	return nil
}

// Breakdown is a priced summary of an order or cart.
type Breakdown struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
	Total         decimal.Decimal `json:"total"`
}

// RoundMoney rounds half away from zero to MoneyPlaces.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPlaces)
}

// UnitPrice is base price plus the variant delta plus modifier deltas.
func UnitPrice(base, variantDelta, selectionDelta decimal.Decimal) decimal.Decimal {
	return base.Add(variantDelta).Add(selectionDelta)
}

// LineTotal multiplies a unit price by quantity.
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// ApplyRate returns RoundMoney(base * rate).
func ApplyRate(base, rate decimal.Decimal) decimal.Decimal {
	return RoundMoney(base.Mul(rate))
}

// ComputeBreakdown applies tax and service charge to subtotal. Both are
// computed on the undiscounted subtotal.
func ComputeBreakdown(subtotal, discount decimal.Decimal, rates Rates) Breakdown {
	tax := ApplyRate(subtotal, rates.Tax)
	service := ApplyRate(subtotal, rates.ServiceCharge)
	return Breakdown{
		Subtotal:      subtotal,
		Discount:      discount,
		Tax:           tax,
		ServiceCharge: service,
		Total:         subtotal.Sub(discount).Add(tax).Add(service),
	}
}
