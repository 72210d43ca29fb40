package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/internal/cart"
	"github.com/angelmondragon/tablepos-backend/internal/pricing"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
)

// LineInput is a frozen cart line. Carts produce these with ToOrderLines.
type LineInput = cart.OrderLine

// CreateOrderInput carries everything assembly needs. Nil rates fall back to
// the tenant default and then the platform default.
type CreateOrderInput struct {
	TenantID          uuid.UUID
	Lines             []LineInput
	TaxRate           *decimal.Decimal
	ServiceChargeRate *decimal.Decimal
	CustomerName      *string
	TableNumber       *string
	Notes             *string
}

// CreateOrderResult pairs the persisted order with its receipt breakdown.
type CreateOrderResult struct {
	Order     *models.Order     `json:"order"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// TransitionInput requests a lifecycle move.
type TransitionInput struct {
	TenantID uuid.UUID
	OrderID  uuid.UUID
	Status   enums.OrderStatus
	Reason   string
}

// ItemStatusInput advances one item along the preparation line.
type ItemStatusInput struct {
	TenantID uuid.UUID
	OrderID  uuid.UUID
	ItemID   uuid.UUID
	Status   enums.OrderItemStatus
}

// ListFilters narrow the order list.
type ListFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
