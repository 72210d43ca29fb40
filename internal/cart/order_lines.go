package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/internal/pricing"
)

// OrderLine is the frozen form of a cart line handed to order assembly.
// Options are already flattened; assembly never walks the tree again.
type OrderLine struct {
	ProductID         uuid.UUID            `json:"product_id" validate:"required"`
	ProductName       string               `json:"product_name" validate:"required"`
	BasePrice         decimal.Decimal      `json:"base_price"`
	VariantID         *uuid.UUID           `json:"variant_id,omitempty"`
	VariantName       string               `json:"variant_name,omitempty"`
	VariantPriceDelta decimal.Decimal      `json:"variant_price_delta"`
	Options           []pricing.FlatOption `json:"options,omitempty"`
	Quantity          int                  `json:"quantity" validate:"required,gt=0"`
	Note              string               `json:"note,omitempty"`
}

// ToOrderLines snapshots every line for submission.
func (c *Cart) ToOrderLines() []OrderLine {
	out := make([]OrderLine, 0, len(c.lines))
	for _, line := range c.lines {
		ol := OrderLine{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			BasePrice:   line.Product.BasePrice,
			Options:     line.Flattened(),
			Quantity:    line.Quantity,
			Note:        line.Note,
		}
		if line.Variant != nil {
			id := line.Variant.ID
			ol.VariantID = &id
			ol.VariantName = line.Variant.Name
			ol.VariantPriceDelta = line.Variant.PriceDelta
		}
		out = append(out, ol)
	}
	return out
}
