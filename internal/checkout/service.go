// Package checkout turns a list of menu selections into an order: each
// selection is resolved against the catalog, duplicates are merged in a cart
// unless their kitchen notes differ, and the frozen lines are handed to order assembly.
package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/internal/cart"
	"github.com/angelmondragon/tablepos-backend/internal/catalog"
	"github.com/angelmondragon/tablepos-backend/internal/orders"
	"github.com/angelmondragon/tablepos-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
)

type selectionResolver interface {
	ResolveSelection(ctx context.Context, input catalog.ResolveInput) (*cart.AddItemInput, error)
}

type orderCreator interface {
	CreateOrder(ctx context.Context, input orders.CreateOrderInput) (*orders.CreateOrderResult, error)
}

// Service places orders from raw selections.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*orders.CreateOrderResult, error)
}

// Selection is one menu pick as a client sends it.
type Selection struct {
	ProductID uuid.UUID      `json:"product_id" validate:"required"`
	VariantID *uuid.UUID     `json:"variant_id,omitempty"`
	Options   []catalog.Pick `json:"options,omitempty" validate:"omitempty,dive"`
	Quantity  int            `json:"quantity" validate:"gte=0"`
	Note      string         `json:"note,omitempty" validate:"max=500"`
}

// PlaceOrderInput carries the selections and order level fields.
type PlaceOrderInput struct {
	TenantID          uuid.UUID
	Items             []Selection
	TaxRate           *decimal.Decimal
	ServiceChargeRate *decimal.Decimal
	CustomerName      *string
	TableNumber       *string
	Notes             *string
}

type service struct {
	catalog selectionResolver
	orders  orderCreator
}

// NewService builds the checkout service.
func NewService(resolver selectionResolver, creator orderCreator) (Service, error) {
	if resolver == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	if creator == nil {
		return nil, fmt.Errorf("order creator required")
	}
	return &service{catalog: resolver, orders: creator}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*orders.CreateOrderResult, error) {
	if input.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}

	c := cart.New(pricing.Rates{})
	for i, sel := range input.Items {
		resolved, err := s.catalog.ResolveSelection(ctx, catalog.ResolveInput{
			TenantID:  input.TenantID,
			ProductID: sel.ProductID,
			VariantID: sel.VariantID,
			Picks:     sel.Options,
			Quantity:  sel.Quantity,
			Note:      sel.Note,
		})
		if err != nil {
			return nil, annotateItem(err, i)
		}
		resolved.SeparateByNote = true
		if _, err := c.AddItem(*resolved); err != nil {
			return nil, annotateItem(err, i)
		}
	}

	return s.orders.CreateOrder(ctx, orders.CreateOrderInput{
		TenantID:          input.TenantID,
		Lines:             c.ToOrderLines(),
		TaxRate:           input.TaxRate,
		ServiceChargeRate: input.ServiceChargeRate,
		CustomerName:      input.CustomerName,
		TableNumber:       input.TableNumber,
		Notes:             input.Notes,
	})
}

// annotateItem tags selection errors with the offending item position so
// clients can point at the right row.
func annotateItem(err error, index int) error {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		return err
	}
	details := map[string]any{"item_index": index}
	if existing, ok := typed.Details().(map[string]any); ok {
		for k, v := range existing {
			details[k] = v
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, typed.Message()).WithDetails(details)
}
