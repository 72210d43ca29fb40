package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/pkg/enums"
)

// Product is a sellable menu entry.
type Product struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID     uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null"`
	Name         string           `gorm:"column:name;not null"`
	Category     string           `gorm:"column:category;not null;default:''"`
	BasePrice    decimal.Decimal  `gorm:"column:base_price;type:numeric(14,2);not null"`
	IsActive     bool             `gorm:"column:is_active;not null;default:true"`
	Variants     []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	OptionGroups []OptionGroup    `gorm:"-"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant is a size or style alternative priced relative to the base.
type ProductVariant struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name       string          `gorm:"column:name;not null"`
	PriceDelta decimal.Decimal `gorm:"column:price_delta;type:numeric(14,2);not null;default:0"`
	Position   int             `gorm:"column:position;not null;default:0"`
}

// OptionGroup is a set of modifiers. Top-level groups have no parent option;
// nested groups hang off the option that unlocks them. Every group row carries
// the owning product so the whole tree loads in one query.
type OptionGroup struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	ParentOptionID *uuid.UUID          `gorm:"column:parent_option_id;type:uuid"`
	Name           string              `gorm:"column:name;not null"`
	SelectionType  enums.SelectionType `gorm:"column:selection_type;type:text;not null;default:'single'"`
	Required       bool                `gorm:"column:required;not null;default:false"`
	MinSelections  int                 `gorm:"column:min_selections;not null;default:0"`
	MaxSelections  int                 `gorm:"column:max_selections;not null;default:0"`
	Position       int                 `gorm:"column:position;not null;default:0"`
	Options        []Option            `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
}

func (OptionGroup) TableName() string { return "product_option_groups" }

// Option is one modifier inside a group.
type Option struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupID     uuid.UUID       `gorm:"column:group_id;type:uuid;not null"`
	Name        string          `gorm:"column:name;not null"`
	PriceDelta  decimal.Decimal `gorm:"column:price_delta;type:numeric(14,2);not null;default:0"`
	Position    int             `gorm:"column:position;not null;default:0"`
	ChildGroups []OptionGroup   `gorm:"-"`
}

func (Option) TableName() string { return "product_options" }
