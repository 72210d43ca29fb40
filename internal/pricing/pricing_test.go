package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// pizzaSelection builds a three level tree:
// Crust(Stuffed +8000 -> Cheese(Mozzarella +2000, Cheddar +2500 -> Aged(+1000)))
// plus Toppings(Olives +1500, Mushrooms +1500).
func pizzaSelection() []SelectedOptionGroup {
	return []SelectedOptionGroup{
		{
			GroupID:   "crust",
			GroupName: "Crust",
			SelectedOptions: []SelectedOption{
				{
					OptionID:   "stuffed",
					OptionName: "Stuffed",
					PriceDelta: d("8000"),
					ChildGroups: []SelectedOptionGroup{
						{
							GroupID:   "cheese",
							GroupName: "Cheese",
							SelectedOptions: []SelectedOption{
								{OptionID: "mozzarella", OptionName: "Mozzarella", PriceDelta: d("2000")},
								{
									OptionID:   "cheddar",
									OptionName: "Cheddar",
									PriceDelta: d("2500"),
									ChildGroups: []SelectedOptionGroup{
										{
											GroupID:   "aging",
											GroupName: "Aging",
											SelectedOptions: []SelectedOption{
												{OptionID: "aged", OptionName: "Aged 12m", PriceDelta: d("1000")},
											},
										},
									},
								},
							},
						},
					},
				},
			},
		},
		{
			GroupID:   "toppings",
			GroupName: "Toppings",
			SelectedOptions: []SelectedOption{
				{OptionID: "olives", OptionName: "Olives", PriceDelta: d("1500")},
				{OptionID: "mushrooms", OptionName: "Mushrooms", PriceDelta: d("1500")},
			},
		},
	}
}

// breadthFirstSum visits every option level by level.
func breadthFirstSum(groups []SelectedOptionGroup) decimal.Decimal {
	total := decimal.Zero
	queue := append([]SelectedOptionGroup{}, groups...)
	for len(queue) > 0 {
		group := queue[0]
		queue = queue[1:]
		for _, opt := range group.SelectedOptions {
			total = total.Add(opt.PriceDelta)
			queue = append(queue, opt.ChildGroups...)
		}
	}
	return total
}

func TestSelectionDeltaMatchesBreadthFirstSum(t *testing.T) {
	groups := pizzaSelection()
	got := SelectionDelta(nil, groups)
	assert.True(t, got.Equal(d("16500")), "got %s", got)
	assert.True(t, got.Equal(breadthFirstSum(groups)))
}

func TestFlattenRoundTripsDelta(t *testing.T) {
	groups := pizzaSelection()
	flat := Flatten(nil, groups)
	require.Len(t, flat, 6)
	assert.True(t, SumFlat(flat).Equal(SelectionDelta(nil, groups)))
}

func TestFlattenIsPreOrderWithDepth(t *testing.T) {
	flat := Flatten(nil, pizzaSelection())
	ids := make([]string, 0, len(flat))
	for _, opt := range flat {
		ids = append(ids, opt.OptionID)
	}
	assert.Equal(t, []string{"stuffed", "mozzarella", "cheddar", "aged", "olives", "mushrooms"}, ids)
	assert.Equal(t, 0, flat[0].Depth)
	assert.Equal(t, 1, flat[1].Depth)
	assert.Equal(t, 2, flat[3].Depth)
	assert.Equal(t, "Cheese", flat[1].GroupName)
	assert.Equal(t, "aging", flat[3].GroupID)
}

func TestFlattenKeepsFlatOptionsFirstAndDuplicates(t *testing.T) {
	flatInput := []SelectedOption{
		{GroupID: "sauce", OptionID: "bbq", PriceDelta: d("500")},
		{GroupID: "sauce", OptionID: "bbq", PriceDelta: d("500")},
	}
	groups := []SelectedOptionGroup{{GroupID: "size", SelectedOptions: []SelectedOption{{OptionID: "xl", PriceDelta: d("3000")}}}}

	flat := Flatten(flatInput, groups)
	require.Len(t, flat, 3)
	assert.Equal(t, "bbq", flat[0].OptionID)
	assert.Equal(t, "bbq", flat[1].OptionID)
	assert.Equal(t, "xl", flat[2].OptionID)
	assert.Equal(t, "size", flat[2].GroupID)
	assert.True(t, SelectionDelta(flatInput, groups).Equal(d("4000")))
}

func TestNegativeDeltasReducePrice(t *testing.T) {
	opts := []SelectedOption{{OptionID: "no-bun", PriceDelta: d("-2000")}}
	unit := UnitPrice(d("45000"), decimal.Zero, SelectionDelta(opts, nil))
	assert.True(t, unit.Equal(d("43000")), "got %s", unit)
}

func TestBurgerScenario(t *testing.T) {
	opts := []SelectedOption{{GroupID: "extras", OptionID: "extra-cheese", OptionName: "Extra Cheese", PriceDelta: d("5000")}}
	unit := UnitPrice(d("45000"), d("10000"), SelectionDelta(opts, nil))
	line := LineTotal(unit, 2)
	require.True(t, line.Equal(d("120000")), "line %s", line)

	breakdown := ComputeBreakdown(line, decimal.Zero, Rates{Tax: d("0.10"), ServiceCharge: d("0.05")})
	assert.True(t, breakdown.Subtotal.Equal(d("120000")))
	assert.True(t, breakdown.Tax.Equal(d("12000")))
	assert.True(t, breakdown.ServiceCharge.Equal(d("6000")))
	assert.True(t, breakdown.Total.Equal(d("138000")))
}

func TestBreakdownTotalIdentity(t *testing.T) {
	cases := []struct {
		subtotal string
		discount string
		tax      string
		service  string
	}{
		{"19.99", "0", "0.0825", "0.10"},
		{"0.05", "0", "0.5", "0.5"},
		{"1000.10", "100.10", "0.07", "0"},
	}
	for _, tc := range cases {
		b := ComputeBreakdown(d(tc.subtotal), d(tc.discount), Rates{Tax: d(tc.tax), ServiceCharge: d(tc.service)})
		want := b.Subtotal.Sub(b.Discount).Add(b.Tax).Add(b.ServiceCharge)
		assert.True(t, b.Total.Equal(want), "subtotal %s", tc.subtotal)
		assert.LessOrEqual(t, int(-b.Tax.Exponent()), MoneyPlaces)
	}
}

func TestRoundMoneyHalfAwayFromZero(t *testing.T) {
	assert.True(t, RoundMoney(d("1.005")).Equal(d("1.01")))
	assert.True(t, RoundMoney(d("-1.005")).Equal(d("-1.01")))
	assert.True(t, ApplyRate(d("19.99"), d("0.0825")).Equal(d("1.65")))
}

func TestRatesValidate(t *testing.T) {
	require.NoError(t, Rates{Tax: d("0.1"), ServiceCharge: d("1")}.Validate())
	require.Error(t, Rates{Tax: d("-0.01")}.Validate())
	require.Error(t, Rates{ServiceCharge: d("1.01")}.Validate())
}
