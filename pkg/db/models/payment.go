package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/pkg/enums"
)

// Payment records a single tender against an order. Rows are never updated.
type Payment struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID                 `gorm:"column:order_id;type:uuid;not null"`
	TenantID       uuid.UUID                 `gorm:"column:tenant_id;type:uuid;not null"`
	Amount         decimal.Decimal           `gorm:"column:amount;type:numeric(14,2);not null"`
	Method         enums.PaymentMethod       `gorm:"column:method;type:text;not null"`
	Status         enums.PaymentRecordStatus `gorm:"column:status;type:text;not null;default:'completed'"`
	TransactionRef *string                   `gorm:"column:transaction_ref"`
	Notes          *string                   `gorm:"column:notes"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
