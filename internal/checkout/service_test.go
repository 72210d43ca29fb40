package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tablepos-backend/internal/cart"
	"github.com/angelmondragon/tablepos-backend/internal/catalog"
	"github.com/angelmondragon/tablepos-backend/internal/orders"
	"github.com/angelmondragon/tablepos-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
)

type stubResolver struct {
	resolve func(ctx context.Context, input catalog.ResolveInput) (*cart.AddItemInput, error)
}

func (s stubResolver) ResolveSelection(ctx context.Context, input catalog.ResolveInput) (*cart.AddItemInput, error) {
	return s.resolve(ctx, input)
}

type stubCreator struct {
	got *orders.CreateOrderInput
}

func (s *stubCreator) CreateOrder(ctx context.Context, input orders.CreateOrderInput) (*orders.CreateOrderResult, error) {
	s.got = &input
	return &orders.CreateOrderResult{}, nil
}

func TestPlaceOrderMergesEquivalentSelections(t *testing.T) {
	tenantID := uuid.New()
	burger := cart.ProductRef{ID: uuid.New(), Name: "Burger", BasePrice: decimal.NewFromInt(45000)}
	cheese := pricing.SelectedOption{GroupID: "extras", OptionID: "cheese", OptionName: "Extra Cheese", PriceDelta: decimal.NewFromInt(5000)}
	bacon := pricing.SelectedOption{GroupID: "extras", OptionID: "bacon", OptionName: "Bacon", PriceDelta: decimal.NewFromInt(7000)}

	resolver := stubResolver{resolve: func(_ context.Context, input catalog.ResolveInput) (*cart.AddItemInput, error) {
		require.Equal(t, tenantID, input.TenantID)
		opts := []pricing.SelectedOption{cheese, bacon}
		if input.Quantity == 2 {
			opts = []pricing.SelectedOption{bacon, cheese}
		}
		return &cart.AddItemInput{Product: burger, Options: opts, Quantity: input.Quantity, Note: input.Note}, nil
	}}
	creator := &stubCreator{}
	svc, err := NewService(resolver, creator)
	require.NoError(t, err)

	table := "7"
	_, err = svc.PlaceOrder(context.Background(), PlaceOrderInput{
		TenantID:    tenantID,
		TableNumber: &table,
		Items: []Selection{
			{ProductID: burger.ID, Quantity: 1},
			{ProductID: burger.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, creator.got)
	require.Len(t, creator.got.Lines, 1)
	assert.Equal(t, 3, creator.got.Lines[0].Quantity)
	assert.Len(t, creator.got.Lines[0].Options, 2)
	assert.Equal(t, &table, creator.got.TableNumber)
}

func TestPlaceOrderKeepsLinesWithDifferentNotes(t *testing.T) {
	burger := cart.ProductRef{ID: uuid.New(), Name: "Burger", BasePrice: decimal.NewFromInt(45000)}
	resolver := stubResolver{resolve: func(_ context.Context, input catalog.ResolveInput) (*cart.AddItemInput, error) {
		return &cart.AddItemInput{Product: burger, Quantity: input.Quantity, Note: input.Note}, nil
	}}
	creator := &stubCreator{}
	svc, err := NewService(resolver, creator)
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), PlaceOrderInput{
		TenantID: uuid.New(),
		Items: []Selection{
			{ProductID: burger.ID, Quantity: 1},
			{ProductID: burger.ID, Quantity: 1, Note: "no onions, allergy"},
			{ProductID: burger.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, creator.got)
	require.Len(t, creator.got.Lines, 2)
	assert.Equal(t, 2, creator.got.Lines[0].Quantity)
	assert.Empty(t, creator.got.Lines[0].Note)
	assert.Equal(t, 1, creator.got.Lines[1].Quantity)
	assert.Equal(t, "no onions, allergy", creator.got.Lines[1].Note)
}

func TestPlaceOrderTagsFailingItem(t *testing.T) {
	resolver := stubResolver{resolve: func(_ context.Context, input catalog.ResolveInput) (*cart.AddItemInput, error) {
		if input.Quantity == 9 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "selection is invalid").
				WithDetails(map[string]any{"violations": []catalog.SelectionViolation{{Reason: "required"}}})
		}
		return &cart.AddItemInput{Product: cart.ProductRef{ID: input.ProductID, Name: "Tea"}, Quantity: input.Quantity}, nil
	}}
	creator := &stubCreator{}
	svc, err := NewService(resolver, creator)
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), PlaceOrderInput{
		TenantID: uuid.New(),
		Items: []Selection{
			{ProductID: uuid.New(), Quantity: 1},
			{ProductID: uuid.New(), Quantity: 9},
		},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, details["item_index"])
	assert.Contains(t, details, "violations")
	assert.Nil(t, creator.got)
}

func TestPlaceOrderPassesThroughNotFound(t *testing.T) {
	resolver := stubResolver{resolve: func(context.Context, catalog.ResolveInput) (*cart.AddItemInput, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}}
	svc, err := NewService(resolver, &stubCreator{})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), PlaceOrderInput{
		TenantID: uuid.New(),
		Items:    []Selection{{ProductID: uuid.New()}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPlaceOrderEmptyDelegatesToAssembly(t *testing.T) {
	creator := &stubCreator{}
	svc, err := NewService(stubResolver{}, creator)
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), PlaceOrderInput{TenantID: uuid.New()})
	require.NoError(t, err)
	require.NotNil(t, creator.got)
	assert.Empty(t, creator.got.Lines)
}
