package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/angelmondragon/tablepos-backend/pkg/types"
)

// KitchenTicket is what the line cooks see for one fire of an order.
type KitchenTicket struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID     uuid.UUID            `gorm:"column:tenant_id;type:uuid;not null"`
	OrderID      uuid.UUID            `gorm:"column:order_id;type:uuid;not null"`
	TicketNumber string               `gorm:"column:ticket_number;not null"`
	OrderNumber  string               `gorm:"column:order_number;not null"`
	TableNumber  *string              `gorm:"column:table_number"`
	Priority     enums.TicketPriority `gorm:"column:priority;type:text;not null;default:'normal'"`
	Status       enums.TicketStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	Items        []KitchenTicketItem  `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
}

// KitchenTicketItem copies the display fields of an order item.
type KitchenTicketItem struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TicketID    uuid.UUID             `gorm:"column:ticket_id;type:uuid;not null"`
	OrderItemID uuid.UUID             `gorm:"column:order_item_id;type:uuid;not null"`
	ProductName string                `gorm:"column:product_name;not null"`
	VariantName *string               `gorm:"column:variant_name"`
	Options     types.OptionSnapshots `gorm:"column:options;type:jsonb;serializer:json"`
	Quantity    int                   `gorm:"column:quantity;not null"`
	Note        *string               `gorm:"column:note"`
}
