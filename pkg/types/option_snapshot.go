package types

import "github.com/shopspring/decimal"

// OptionSnapshot freezes a chosen option at order time. Depth is 0 for
// top-level picks and increases for options chosen inside nested groups.
type OptionSnapshot struct {
	GroupID    string          `json:"group_id"`
	GroupName  string          `json:"group_name"`
	OptionID   string          `json:"option_id"`
	OptionName string          `json:"option_name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
	Depth      int             `json:"depth"`
}

// OptionSnapshots is stored as a JSON column on order and ticket items.
type OptionSnapshots []OptionSnapshot

// Names returns option names in stored order, for kitchen display.
func (o OptionSnapshots) Names() []string {
	names := make([]string, 0, len(o))
	for _, opt := range o {
		names = append(names, opt.OptionName)
	}
	return names
}
