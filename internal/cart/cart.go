// Package cart keeps the working set of lines a cashier builds before an
// order is submitted. A Cart is plain in-memory state: it performs no I/O
// and is not safe for concurrent use.
package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
)

// ProductRef is the product snapshot a line is priced from.
type ProductRef struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
}

// VariantRef is the chosen variant snapshot.
type VariantRef struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

// Line is one row of the cart. LineTotal is kept in sync on every mutation.
type Line struct {
	ID        uuid.UUID                     `json:"id"`
	Key       string                        `json:"key"`
	Product   ProductRef                    `json:"product"`
	Variant   *VariantRef                   `json:"variant,omitempty"`
	Options   []pricing.SelectedOption      `json:"options,omitempty"`
	Groups    []pricing.SelectedOptionGroup `json:"groups,omitempty"`
	Quantity  int                           `json:"quantity"`
	UnitPrice decimal.Decimal               `json:"unit_price"`
	LineTotal decimal.Decimal               `json:"line_total"`
	Note      string                        `json:"note,omitempty"`
}

// Flattened returns the line's selection in persisted form.
func (l Line) Flattened() []pricing.FlatOption {
	return pricing.Flatten(l.Options, l.Groups)
}

func (l *Line) reprice() {
	variantDelta := decimal.Zero
	if l.Variant != nil {
		variantDelta = l.Variant.PriceDelta
	}
	l.UnitPrice = pricing.UnitPrice(l.Product.BasePrice, variantDelta, pricing.SelectionDelta(l.Options, l.Groups))
	l.LineTotal = pricing.LineTotal(l.UnitPrice, l.Quantity)
}

// AddItemInput describes one add-to-cart action. A zero Quantity means one.
// With SeparateByNote set, lines only merge when their notes match as well,
// so a kitchen instruction is never folded into another line.
type AddItemInput struct {
	Product        ProductRef
	Variant        *VariantRef
	Options        []pricing.SelectedOption
	Groups         []pricing.SelectedOptionGroup
	Quantity       int
	Note           string
	SeparateByNote bool
}

// Cart holds lines in insertion order.
type Cart struct {
	rates pricing.Rates
	lines []*Line
	newID func() uuid.UUID
}

// New builds an empty cart priced with rates.
func New(rates pricing.Rates) *Cart {
	return &Cart{rates: rates, newID: uuid.New}
}

// Rates returns the surcharge rates the cart prices with.
func (c *Cart) Rates() pricing.Rates {
	return c.rates
}

// AddItem merges into an existing line with the same product, variant and
// option set, or appends a new line.
func (c *Cart) AddItem(input AddItemInput) (*Line, error) {
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Product.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Product.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}

	note := strings.TrimSpace(input.Note)
	key := ItemKey(input.Product.ID, input.Variant, input.Options, input.Groups)
	if input.SeparateByNote && note != "" {
		key += "|note:" + strings.ToLower(note)
	}
	for _, line := range c.lines {
		if line.Key != key {
			continue
		}
		line.Quantity += qty
		line.reprice()
		return copyLine(line), nil
	}

	line := copyLine(&Line{
		ID:       c.newID(),
		Key:      key,
		Product:  input.Product,
		Variant:  input.Variant,
		Options:  input.Options,
		Groups:   input.Groups,
		Quantity: qty,
		Note:     note,
	})
	line.reprice()
	if line.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative").
			WithDetails(map[string]any{"unit_price": line.UnitPrice.StringFixed(2)})
	}
	c.lines = append(c.lines, line)
	return copyLine(line), nil
}

// RemoveItem drops the line with the given id.
func (c *Cart) RemoveItem(id uuid.UUID) error {
	idx := c.indexOf(id)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	return nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (c *Cart) UpdateQuantity(id uuid.UUID, qty int) error {
	idx := c.indexOf(id)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if qty <= 0 {
		c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
		return nil
	}
	c.lines[idx].Quantity = qty
	c.lines[idx].reprice()
	return nil
}

// UpdateNote replaces a line's kitchen note.
func (c *Cart) UpdateNote(id uuid.UUID, note string) error {
	idx := c.indexOf(id)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	c.lines[idx].Note = strings.TrimSpace(note)
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.lines))
	for _, line := range c.lines {
		out = append(out, *copyLine(line))
	}
	return out
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.LineTotal)
	}
	return total
}

func (c *Cart) Tax() decimal.Decimal {
	return pricing.ApplyRate(c.Subtotal(), c.rates.Tax)
}

func (c *Cart) ServiceCharge() decimal.Decimal {
	return pricing.ApplyRate(c.Subtotal(), c.rates.ServiceCharge)
}

func (c *Cart) Total() decimal.Decimal {
	return c.Breakdown().Total
}

// Breakdown prices the cart the same way order assembly will.
func (c *Cart) Breakdown() pricing.Breakdown {
	return pricing.ComputeBreakdown(c.Subtotal(), decimal.Zero, c.rates)
}

// ItemCount is the sum of quantities across lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) indexOf(id uuid.UUID) int {
	for i, line := range c.lines {
		if line.ID == id {
			return i
		}
	}
	return -1
}

// copyLine deep copies the selection tree so callers never share slices with
// a line whose totals the cart caches.
func copyLine(line *Line) *Line {
	cp := *line
	if line.Variant != nil {
		v := *line.Variant
		cp.Variant = &v
	}
	cp.Options = copyOptions(line.Options)
	cp.Groups = copyGroups(line.Groups)
	return &cp
}

func copyOptions(in []pricing.SelectedOption) []pricing.SelectedOption {
	if in == nil {
		return nil
	}
	out := make([]pricing.SelectedOption, len(in))
	for i, opt := range in {
		out[i] = opt
		out[i].ChildGroups = copyGroups(opt.ChildGroups)
	}
	return out
}

func copyGroups(in []pricing.SelectedOptionGroup) []pricing.SelectedOptionGroup {
	if in == nil {
		return nil
	}
	out := make([]pricing.SelectedOptionGroup, len(in))
	for i, group := range in {
		out[i] = group
		out[i].SelectedOptions = copyOptions(group.SelectedOptions)
	}
	return out
}
