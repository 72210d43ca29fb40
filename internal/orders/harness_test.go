package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/internal/cart"
	"github.com/angelmondragon/tablepos-backend/internal/pricing"
	"github.com/angelmondragon/tablepos-backend/internal/sequence"
	"github.com/angelmondragon/tablepos-backend/internal/tenants"
	"github.com/angelmondragon/tablepos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/angelmondragon/tablepos-backend/pkg/outbox"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type harness struct {
	svc    Service
	repo   Repository
	conn   *gorm.DB
	tenant *models.Tenant
}

func newHarness(t *testing.T, tenantTax, tenantService *decimal.Decimal) *harness {
	t.Helper()
	client, conn := dbtest.Client(t)
	tenant := dbtest.SeedTenant(t, conn, true, tenantTax, tenantService)

	lookup, err := tenants.NewService(tenants.NewRepository(conn))
	require.NoError(t, err)
	repo := NewRepository(conn)
	svc, err := NewService(Deps{
		Repo:         repo,
		Tx:           client,
		Tenants:      lookup,
		Numbers:      sequence.NewDBGenerator(sequence.KindOrder),
		Outbox:       outbox.NewService(outbox.NewRepository(conn), nil),
		DefaultRates: pricing.Rates{Tax: d("0.10"), ServiceCharge: d("0.05")},
	})
	require.NoError(t, err)
	return &harness{svc: svc, repo: repo, conn: conn, tenant: tenant}
}

// burgerLines is two Burgers (45000) in Large (+10000) with Extra Cheese (+5000).
func burgerLines(t *testing.T) []LineInput {
	t.Helper()
	c := cart.New(pricing.Rates{})
	_, err := c.AddItem(cart.AddItemInput{
		Product:  cart.ProductRef{ID: uuid.New(), Name: "Burger", BasePrice: d("45000")},
		Variant:  &cart.VariantRef{ID: uuid.New(), Name: "Large", PriceDelta: d("10000")},
		Options:  []pricing.SelectedOption{{GroupID: "extras", GroupName: "Extras", OptionID: "cheese", OptionName: "Extra Cheese", PriceDelta: d("5000")}},
		Quantity: 2,
		Note:     "no pickles",
	})
	require.NoError(t, err)
	return c.ToOrderLines()
}

func (h *harness) createBurgerOrder(t *testing.T) *models.Order {
	t.Helper()
	res, err := h.svc.CreateOrder(context.Background(), CreateOrderInput{TenantID: h.tenant.ID, Lines: burgerLines(t)})
	require.NoError(t, err)
	return res.Order
}

func (h *harness) markPaid(t *testing.T, order *models.Order) {
	t.Helper()
	require.NoError(t, h.conn.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
		"paid_amount":    order.TotalAmount,
		"payment_status": enums.PaymentStatusPaid,
	}).Error)
}

func (h *harness) transition(t *testing.T, order *models.Order, to enums.OrderStatus) *models.Order {
	t.Helper()
	out, err := h.svc.TransitionStatus(context.Background(), TransitionInput{TenantID: h.tenant.ID, OrderID: order.ID, Status: to})
	require.NoError(t, err)
	return out
}

func countEvents(t *testing.T, conn *gorm.DB, eventType enums.OutboxEventType, aggregateID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", eventType, aggregateID).
		Count(&n).Error)
	return n
}
