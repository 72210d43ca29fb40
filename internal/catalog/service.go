// Package catalog reads menu products and turns a cashier's picks into a
// priced selection tree the cart can accept.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/internal/cart"
	"github.com/angelmondragon/tablepos-backend/internal/pricing"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
)

// Service exposes catalog reads.
type Service interface {
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	ResolveSelection(ctx context.Context, input ResolveInput) (*cart.AddItemInput, error)
}

// Pick is one chosen option. Children are picks made inside groups that the
// option unlocks.
type Pick struct {
	GroupID  uuid.UUID `json:"group_id" validate:"required"`
	OptionID uuid.UUID `json:"option_id" validate:"required"`
	Children []Pick    `json:"children,omitempty" validate:"omitempty,dive"`
}

// ResolveInput names a product, an optional variant and the option picks.
type ResolveInput struct {
	TenantID  uuid.UUID
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Picks     []Pick
	Quantity  int
	Note      string
}

// SelectionViolation describes one rule a selection broke.
type SelectionViolation struct {
	GroupID  uuid.UUID  `json:"group_id"`
	OptionID *uuid.UUID `json:"option_id,omitempty"`
	Reason   string     `json:"reason"`
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindProduct(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ResolveSelection(ctx context.Context, input ResolveInput) (*cart.AddItemInput, error) {
	product, err := s.GetProduct(ctx, input.TenantID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	out := &cart.AddItemInput{
		Product: cart.ProductRef{
			ID:        product.ID,
			Name:      product.Name,
			BasePrice: product.BasePrice,
		},
		Quantity: input.Quantity,
		Note:     input.Note,
	}

	if input.VariantID != nil {
		variant := findVariant(product.Variants, *input.VariantID)
		if variant == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
		}
		out.Variant = &cart.VariantRef{ID: variant.ID, Name: variant.Name, PriceDelta: variant.PriceDelta}
	}

	var violations []SelectionViolation
	out.Groups = resolveGroups(product.OptionGroups, input.Picks, &violations)
	if len(violations) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("selection is invalid for %d rule(s)", len(violations))).
			WithDetails(map[string]any{"violations": violations})
	}
	return out, nil
}

func findVariant(variants []models.ProductVariant, id uuid.UUID) *models.ProductVariant {
	for i := range variants {
		if variants[i].ID == id {
			return &variants[i]
		}
	}
	return nil
}

// resolveGroups matches picks against the groups available at one level and
// recurses into the groups each picked option unlocks.
func resolveGroups(groups []models.OptionGroup, picks []Pick, violations *[]SelectionViolation) []pricing.SelectedOptionGroup {
	byGroup := make(map[uuid.UUID][]Pick, len(picks))
	known := make(map[uuid.UUID]struct{}, len(groups))
	for _, g := range groups {
		known[g.ID] = struct{}{}
	}
	for _, p := range picks {
		if _, ok := known[p.GroupID]; !ok {
			*violations = append(*violations, SelectionViolation{GroupID: p.GroupID, Reason: "group is not available for this selection"})
			continue
		}
		byGroup[p.GroupID] = append(byGroup[p.GroupID], p)
	}

	var out []pricing.SelectedOptionGroup
	for _, group := range groups {
		groupPicks := byGroup[group.ID]
		checkCounts(group, len(groupPicks), violations)
		if len(groupPicks) == 0 {
			continue
		}

		selected := pricing.SelectedOptionGroup{
			GroupID:   group.ID.String(),
			GroupName: group.Name,
		}
		seen := make(map[uuid.UUID]struct{}, len(groupPicks))
		for _, p := range groupPicks {
			optionID := p.OptionID
			option := findOption(group.Options, optionID)
			if option == nil {
				*violations = append(*violations, SelectionViolation{GroupID: group.ID, OptionID: &optionID, Reason: "option does not belong to group"})
				continue
			}
			if _, dup := seen[optionID]; dup {
				*violations = append(*violations, SelectionViolation{GroupID: group.ID, OptionID: &optionID, Reason: "option picked more than once"})
				continue
			}
			seen[optionID] = struct{}{}
			selected.SelectedOptions = append(selected.SelectedOptions, pricing.SelectedOption{
				GroupID:     group.ID.String(),
				GroupName:   group.Name,
				OptionID:    option.ID.String(),
				OptionName:  option.Name,
				PriceDelta:  option.PriceDelta,
				ChildGroups: resolveGroups(option.ChildGroups, p.Children, violations),
			})
		}
		out = append(out, selected)
	}
	return out
}

func checkCounts(group models.OptionGroup, count int, violations *[]SelectionViolation) {
	add := func(reason string) {
		*violations = append(*violations, SelectionViolation{GroupID: group.ID, Reason: reason})
	}
	if group.Required {
		need := group.MinSelections
		if need < 1 {
			need = 1
		}
		if count < need {
			add(fmt.Sprintf("%s requires at least %d selection(s)", strings.TrimSpace(group.Name), need))
			return
		}
	} else if count > 0 && count < group.MinSelections {
		add(fmt.Sprintf("%s requires at least %d selection(s)", strings.TrimSpace(group.Name), group.MinSelections))
		return
	}
	if group.SelectionType != enums.SelectionTypeMultiple && count > 1 {
		add(fmt.Sprintf("%s allows a single selection", strings.TrimSpace(group.Name)))
		return
	}
	if group.MaxSelections > 0 && count > group.MaxSelections {
		add(fmt.Sprintf("%s allows at most %d selection(s)", strings.TrimSpace(group.Name), group.MaxSelections))
	}
}

func findOption(options []models.Option, id uuid.UUID) *models.Option {
	for i := range options {
		if options[i].ID == id {
			return &options[i]
		}
	}
	return nil
}
