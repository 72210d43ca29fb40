package pricing

import "github.com/shopspring/decimal"

// SelectedOption is a chosen modifier with its price snapshot and any groups
// the choice unlocked.
type SelectedOption struct {
	GroupID     string                `json:"group_id"`
	GroupName   string                `json:"group_name"`
	OptionID    string                `json:"option_id"`
	OptionName  string                `json:"option_name"`
	PriceDelta  decimal.Decimal       `json:"price_delta"`
	ChildGroups []SelectedOptionGroup `json:"child_groups,omitempty"`
}

// SelectedOptionGroup holds the picks made inside one option group.
type SelectedOptionGroup struct {
	GroupID         string           `json:"group_id"`
	GroupName       string           `json:"group_name"`
	SelectedOptions []SelectedOption `json:"selected_options"`
}

// FlatOption is the persisted and displayed form of a selection tree.
type FlatOption struct {
	GroupID    string          `json:"group_id"`
	GroupName  string          `json:"group_name"`
	OptionID   string          `json:"option_id"`
	OptionName string          `json:"option_name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
	Depth      int             `json:"depth"`
}

// OptionDelta is the option's own delta plus every delta chosen beneath it.
func OptionDelta(opt SelectedOption) decimal.Decimal {
	total := opt.PriceDelta
	for _, group := range opt.ChildGroups {
		total = total.Add(GroupDelta(group))
	}
	return total
}

// GroupDelta sums OptionDelta over the group's picks.
func GroupDelta(group SelectedOptionGroup) decimal.Decimal {
	total := decimal.Zero
	for _, opt := range group.SelectedOptions {
		total = total.Add(OptionDelta(opt))
	}
	return total
}

// SelectionDelta prices a line's modifiers given either shape: a flat list of
// options, a list of groups, or both.
func SelectionDelta(options []SelectedOption, groups []SelectedOptionGroup) decimal.Decimal {
	total := decimal.Zero
	for _, opt := range options {
		total = total.Add(OptionDelta(opt))
	}
	for _, group := range groups {
		total = total.Add(GroupDelta(group))
	}
	return total
}

// Flatten walks the selection pre-order, flat options first, then groups.
// Order is preserved and duplicates are kept.
func Flatten(options []SelectedOption, groups []SelectedOptionGroup) []FlatOption {
	out := make([]FlatOption, 0, len(options))
	for _, opt := range options {
		out = flattenOption(out, opt, 0)
	}
	for _, group := range groups {
		out = flattenGroup(out, group, 0)
	}
	return out
}

func flattenGroup(out []FlatOption, group SelectedOptionGroup, depth int) []FlatOption {
	for _, opt := range group.SelectedOptions {
		if opt.GroupID == "" {
			opt.GroupID = group.GroupID
		}
		if opt.GroupName == "" {
			opt.GroupName = group.GroupName
		}
		out = flattenOption(out, opt, depth)
	}
	return out
}

func flattenOption(out []FlatOption, opt SelectedOption, depth int) []FlatOption {
	out = append(out, FlatOption{
		GroupID:    opt.GroupID,
		GroupName:  opt.GroupName,
		OptionID:   opt.OptionID,
		OptionName: opt.OptionName,
		PriceDelta: opt.PriceDelta,
		Depth:      depth,
	})
	for _, child := range opt.ChildGroups {
		out = flattenGroup(out, child, depth+1)
	}
	return out
}

// SumFlat adds up the deltas of a flattened selection.
func SumFlat(flat []FlatOption) decimal.Decimal {
	total := decimal.Zero
	for _, opt := range flat {
		total = total.Add(opt.PriceDelta)
	}
	return total
}
