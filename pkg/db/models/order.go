package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/angelmondragon/tablepos-backend/pkg/types"
)

// Order is a priced, tenant scoped order. Version increments on every
// status or payment write and guards concurrent updates.
type Order struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID            uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null"`
	OrderNumber         string              `gorm:"column:order_number;not null"`
	Status              enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'draft'"`
	PaymentStatus       enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	Subtotal            decimal.Decimal     `gorm:"column:subtotal;type:numeric(14,2);not null"`
	DiscountAmount      decimal.Decimal     `gorm:"column:discount_amount;type:numeric(14,2);not null;default:0"`
	TaxAmount           decimal.Decimal     `gorm:"column:tax_amount;type:numeric(14,2);not null;default:0"`
	ServiceChargeAmount decimal.Decimal     `gorm:"column:service_charge_amount;type:numeric(14,2);not null;default:0"`
	TotalAmount         decimal.Decimal     `gorm:"column:total_amount;type:numeric(14,2);not null"`
	PaidAmount          decimal.Decimal     `gorm:"column:paid_amount;type:numeric(14,2);not null;default:0"`
	TaxRate             decimal.Decimal     `gorm:"column:tax_rate;type:numeric(5,4);not null;default:0"`
	ServiceChargeRate   decimal.Decimal     `gorm:"column:service_charge_rate;type:numeric(5,4);not null;default:0"`
	CustomerName        *string             `gorm:"column:customer_name"`
	TableNumber         *string             `gorm:"column:table_number"`
	Notes               *string             `gorm:"column:notes"`
	Version             int                 `gorm:"column:version;not null;default:1"`
	Items               []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CompletedAt         *time.Time          `gorm:"column:completed_at"`
	CancelledAt         *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// RemainingBalance is the amount still owed on the order.
func (o *Order) RemainingBalance() decimal.Decimal {
	return o.TotalAmount.Sub(o.PaidAmount)
}

// OrderItem is an immutable snapshot of a cart line at order time. Only
// Status moves after creation.
type OrderItem struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	ProductID         uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	ProductName       string                `gorm:"column:product_name;not null"`
	BasePrice         decimal.Decimal       `gorm:"column:base_price;type:numeric(14,2);not null"`
	VariantID         *uuid.UUID            `gorm:"column:variant_id;type:uuid"`
	VariantName       *string               `gorm:"column:variant_name"`
	VariantPriceDelta decimal.Decimal       `gorm:"column:variant_price_delta;type:numeric(14,2);not null;default:0"`
	SelectedOptions   types.OptionSnapshots `gorm:"column:selected_options;type:jsonb;serializer:json"`
	Quantity          int                   `gorm:"column:quantity;not null"`
	UnitPrice         decimal.Decimal       `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Subtotal          decimal.Decimal       `gorm:"column:subtotal;type:numeric(14,2);not null"`
	Status            enums.OrderItemStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Note              *string               `gorm:"column:note"`
	Position          int                   `gorm:"column:position;not null;default:0"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
