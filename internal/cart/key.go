package cart

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/tablepos-backend/internal/pricing"
)

const noVariant = "no-variant"

// ItemKey identifies lines that should merge. Options are flattened (nested
// picks included) and sorted by group then option, so pick order never
// matters.
func ItemKey(productID uuid.UUID, variant *VariantRef, options []pricing.SelectedOption, groups []pricing.SelectedOptionGroup) string {
	variantPart := noVariant
	if variant != nil && variant.ID != uuid.Nil {
		variantPart = variant.ID.String()
	}
	return productID.String() + "|" + variantPart + "|" + canonicalOptions(pricing.Flatten(options, groups))
}

func canonicalOptions(flat []pricing.FlatOption) string {
	pairs := make([]pricing.FlatOption, len(flat))
	copy(pairs, flat)
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].GroupID != pairs[j].GroupID {
			return pairs[i].GroupID < pairs[j].GroupID
		}
		return pairs[i].OptionID < pairs[j].OptionID
	})
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GroupID+":"+p.OptionID)
	}
	return strings.Join(parts, ",")
}
