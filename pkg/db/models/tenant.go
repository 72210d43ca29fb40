package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tenant is a merchant operating one or more registers. Rates are fractions;
// nil means the platform default applies.
type Tenant struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string           `gorm:"column:name;not null"`
	IsActive          bool             `gorm:"column:is_active;not null;default:true"`
	TaxRate           *decimal.Decimal `gorm:"column:tax_rate;type:numeric(5,4)"`
	ServiceChargeRate *decimal.Decimal `gorm:"column:service_charge_rate;type:numeric(5,4)"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TenantSequence backs per-tenant human readable numbering when Redis is not
// used for counters.
type TenantSequence struct {
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;primaryKey"`
	Value     int64     `gorm:"column:value;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
