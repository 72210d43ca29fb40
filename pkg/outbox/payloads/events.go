package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/pkg/enums"
)

// OrderCreatedEvent announces a new draft order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	OrderNumber string          `json:"order_number"`
	ItemCount   int             `json:"item_count"`
	Total       decimal.Decimal `json:"total"`
	TableNumber *string         `json:"table_number,omitempty"`
}

// OrderStatusChangedEvent is emitted on every effective lifecycle move.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	TenantID   uuid.UUID         `json:"tenant_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	Reason     string            `json:"reason,omitempty"`
	ChangedAt  time.Time         `json:"changed_at"`
}

// OrderItemStatusChangedEvent tracks item progress for kitchen displays.
type OrderItemStatusChangedEvent struct {
	OrderID    uuid.UUID             `json:"order_id"`
	ItemID     uuid.UUID             `json:"item_id"`
	TenantID   uuid.UUID             `json:"tenant_id"`
	FromStatus enums.OrderItemStatus `json:"from_status"`
	ToStatus   enums.OrderItemStatus `json:"to_status"`
}

// PaymentRecordedEvent is emitted for every accepted payment.
type PaymentRecordedEvent struct {
	PaymentID        uuid.UUID           `json:"payment_id"`
	OrderID          uuid.UUID           `json:"order_id"`
	TenantID         uuid.UUID           `json:"tenant_id"`
	Amount           decimal.Decimal     `json:"amount"`
	Method           enums.PaymentMethod `json:"method"`
	PaidAmount       decimal.Decimal     `json:"paid_amount"`
	RemainingBalance decimal.Decimal     `json:"remaining_balance"`
	PaymentStatus    enums.PaymentStatus `json:"payment_status"`
}

// OrderPaidEvent is emitted once, when an order becomes fully paid.
type OrderPaidEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	OrderNumber string          `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
	PaidAt      time.Time       `json:"paid_at"`
}

// KitchenTicketIssuedEvent lets kitchen displays pick up a new ticket.
type KitchenTicketIssuedEvent struct {
	TicketID     uuid.UUID            `json:"ticket_id"`
	OrderID      uuid.UUID            `json:"order_id"`
	TenantID     uuid.UUID            `json:"tenant_id"`
	TicketNumber string               `json:"ticket_number"`
	TableNumber  *string              `json:"table_number,omitempty"`
	Priority     enums.TicketPriority `json:"priority"`
	ItemCount    int                  `json:"item_count"`
}

// OrderExpiredEvent is emitted when an abandoned draft is cancelled.
type OrderExpiredEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	ExpiredAt time.Time `json:"expired_at"`
}
