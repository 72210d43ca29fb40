package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tablepos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
)

func TestCreateOrderPricesAndPersistsDraft(t *testing.T) {
	h := newHarness(t, nil, nil)
	table := " 12 "

	res, err := h.svc.CreateOrder(context.Background(), CreateOrderInput{
		TenantID:    h.tenant.ID,
		Lines:       burgerLines(t),
		TableNumber: &table,
	})
	require.NoError(t, err)

	assert.True(t, res.Breakdown.Subtotal.Equal(d("120000")))
	assert.True(t, res.Breakdown.Tax.Equal(d("12000")))
	assert.True(t, res.Breakdown.ServiceCharge.Equal(d("6000")))
	assert.True(t, res.Breakdown.Total.Equal(d("138000")))
	assert.Equal(t, "ORD-000001", res.Order.OrderNumber)

	stored, err := h.svc.GetOrder(context.Background(), h.tenant.ID, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDraft, stored.Status)
	assert.Equal(t, enums.PaymentStatusUnpaid, stored.PaymentStatus)
	assert.True(t, stored.PaidAmount.IsZero())
	assert.True(t, stored.TotalAmount.Equal(stored.Subtotal.Sub(stored.DiscountAmount).Add(stored.TaxAmount).Add(stored.ServiceChargeAmount)))
	require.NotNil(t, stored.TableNumber)
	assert.Equal(t, "12", *stored.TableNumber)
	require.Len(t, stored.Items, 1)
	item := stored.Items[0]
	assert.Equal(t, enums.OrderItemStatusPending, item.Status)
	assert.True(t, item.UnitPrice.Equal(d("60000")))
	assert.True(t, item.Subtotal.Equal(d("120000")))
	require.NotNil(t, item.VariantName)
	assert.Equal(t, "Large", *item.VariantName)
	require.Len(t, item.SelectedOptions, 1)
	assert.Equal(t, "Extra Cheese", item.SelectedOptions[0].OptionName)
	require.NotNil(t, item.Note)
	assert.Equal(t, "no pickles", *item.Note)

	assert.Equal(t, int64(1), countEvents(t, h.conn, enums.EventOrderCreated, res.Order.ID))

	second := h.createBurgerOrder(t)
	assert.Equal(t, "ORD-000002", second.OrderNumber)
}

func TestCreateOrderRatePrecedence(t *testing.T) {
	h := newHarness(t, dbtest.Rate("0.08"), nil)

	res, err := h.svc.CreateOrder(context.Background(), CreateOrderInput{TenantID: h.tenant.ID, Lines: burgerLines(t)})
	require.NoError(t, err)
	assert.True(t, res.Breakdown.Tax.Equal(d("9600")))
	assert.True(t, res.Breakdown.ServiceCharge.Equal(d("6000")))

	zero := d("0")
	res, err = h.svc.CreateOrder(context.Background(), CreateOrderInput{
		TenantID:          h.tenant.ID,
		Lines:             burgerLines(t),
		TaxRate:           &zero,
		ServiceChargeRate: &zero,
	})
	require.NoError(t, err)
	assert.True(t, res.Breakdown.Total.Equal(d("120000")))
	assert.True(t, res.Order.TaxRate.IsZero())

	bad := d("1.5")
	_, err = h.svc.CreateOrder(context.Background(), CreateOrderInput{TenantID: h.tenant.ID, Lines: burgerLines(t), TaxRate: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateOrderPreconditions(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()

	_, err := h.svc.CreateOrder(ctx, CreateOrderInput{TenantID: h.tenant.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	inactive := dbtest.SeedTenant(t, h.conn, false, nil, nil)
	_, err = h.svc.CreateOrder(ctx, CreateOrderInput{TenantID: inactive.ID, Lines: burgerLines(t)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTenantInactive))

	_, err = h.svc.CreateOrder(ctx, CreateOrderInput{TenantID: uuid.New(), Lines: burgerLines(t)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	lines := burgerLines(t)
	lines[0].Quantity = 0
	_, err = h.svc.CreateOrder(ctx, CreateOrderInput{TenantID: h.tenant.ID, Lines: lines})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOrderZeroTotalIsPaid(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	water := []LineInput{{ProductID: uuid.New(), ProductName: "Tap Water", BasePrice: d("0"), Quantity: 2}}

	res, err := h.svc.CreateOrder(ctx, CreateOrderInput{TenantID: h.tenant.ID, Lines: water})
	require.NoError(t, err)
	assert.True(t, res.Breakdown.Total.IsZero())
	assert.Equal(t, enums.PaymentStatusPaid, res.Order.PaymentStatus)

	h.transition(t, res.Order, enums.OrderStatusConfirmed)
	h.transition(t, res.Order, enums.OrderStatusPreparing)
	completed := h.transition(t, res.Order, enums.OrderStatusCompleted)
	assert.Equal(t, enums.OrderStatusCompleted, completed.Status)
	assert.Equal(t, enums.PaymentStatusPaid, completed.PaymentStatus)
}

func TestCreateOrderRejectsNegativeUnitPrice(t *testing.T) {
	h := newHarness(t, nil, nil)
	variant := uuid.New()
	lines := []LineInput{{
		ProductID:         uuid.New(),
		ProductName:       "Soup",
		BasePrice:         d("1000"),
		VariantID:         &variant,
		VariantName:       "Kids",
		VariantPriceDelta: d("-5000"),
		Quantity:          2,
	}}

	_, err := h.svc.CreateOrder(context.Background(), CreateOrderInput{TenantID: h.tenant.ID, Lines: lines})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransitionStatusLifecycle(t *testing.T) {
	h := newHarness(t, nil, nil)
	order := h.createBurgerOrder(t)
	ctx := context.Background()

	confirmed := h.transition(t, order, enums.OrderStatusConfirmed)
	assert.Equal(t, enums.OrderStatusConfirmed, confirmed.Status)
	assert.Equal(t, 2, confirmed.Version)

	_, err := h.svc.TransitionStatus(ctx, TransitionInput{TenantID: h.tenant.ID, OrderID: order.ID, Status: enums.OrderStatusDraft})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	again := h.transition(t, order, enums.OrderStatusConfirmed)
	assert.Equal(t, 2, again.Version)

	h.transition(t, order, enums.OrderStatusPreparing)

	_, err = h.svc.TransitionStatus(ctx, TransitionInput{TenantID: h.tenant.ID, OrderID: order.ID, Status: enums.OrderStatusCompleted})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	h.markPaid(t, order)
	completed := h.transition(t, order, enums.OrderStatusCompleted)
	assert.Equal(t, enums.OrderStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	h.transition(t, order, enums.OrderStatusCompleted)
	_, err = h.svc.TransitionStatus(ctx, TransitionInput{TenantID: h.tenant.ID, OrderID: order.ID, Status: enums.OrderStatusCancelled})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	assert.Equal(t, int64(3), countEvents(t, h.conn, enums.EventOrderStatusChanged, order.ID))
}

func TestTransitionStatusTenantChecks(t *testing.T) {
	h := newHarness(t, nil, nil)
	order := h.createBurgerOrder(t)
	other := dbtest.SeedTenant(t, h.conn, true, nil, nil)

	_, err := h.svc.TransitionStatus(context.Background(), TransitionInput{TenantID: other.ID, OrderID: order.ID, Status: enums.OrderStatusConfirmed})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTenantMismatch))

	_, err = h.svc.GetOrder(context.Background(), other.ID, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTenantMismatch))

	_, err = h.svc.GetOrder(context.Background(), h.tenant.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCancelSetsTimestamp(t *testing.T) {
	h := newHarness(t, nil, nil)
	order := h.createBurgerOrder(t)
	cancelled := h.transition(t, order, enums.OrderStatusCancelled)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err := h.svc.UpdateItemStatus(context.Background(), ItemStatusInput{
		TenantID: h.tenant.ID, OrderID: order.ID, ItemID: order.Items[0].ID, Status: enums.OrderItemStatusPreparing,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOrderCancelled))
}

func TestUpdateItemStatusForwardOnly(t *testing.T) {
	h := newHarness(t, nil, nil)
	order := h.createBurgerOrder(t)
	itemID := order.Items[0].ID
	ctx := context.Background()
	input := func(status enums.OrderItemStatus) ItemStatusInput {
		return ItemStatusInput{TenantID: h.tenant.ID, OrderID: order.ID, ItemID: itemID, Status: status}
	}

	_, err := h.svc.UpdateItemStatus(ctx, input(enums.OrderItemStatusPreparing))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "draft orders are not in the kitchen yet")

	h.transition(t, order, enums.OrderStatusConfirmed)
	item, err := h.svc.UpdateItemStatus(ctx, input(enums.OrderItemStatusReady))
	require.NoError(t, err)
	assert.Equal(t, enums.OrderItemStatusReady, item.Status)

	_, err = h.svc.UpdateItemStatus(ctx, input(enums.OrderItemStatusPreparing))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.UpdateItemStatus(ctx, input(enums.OrderItemStatusReady))
	require.NoError(t, err)

	_, err = h.svc.UpdateItemStatus(ctx, ItemStatusInput{TenantID: h.tenant.ID, OrderID: order.ID, ItemID: uuid.New(), Status: enums.OrderItemStatusServed})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	assert.Equal(t, int64(1), countEvents(t, h.conn, enums.EventOrderItemStatus, order.ID))
}

func TestOptionalText(t *testing.T) {
	blank := "   "
	ref := "  TX-9 "
	assert.Nil(t, OptionalText(nil))
	assert.Nil(t, OptionalText(&blank))
	require.NotNil(t, OptionalText(&ref))
	assert.Equal(t, "TX-9", *OptionalText(&ref))
}
