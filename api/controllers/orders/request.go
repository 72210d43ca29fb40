package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/internal/checkout"
)

type createOrderRequest struct {
	Items             []checkout.Selection `json:"items" validate:"dive"`
	TaxRate           *decimal.Decimal     `json:"tax_rate,omitempty"`
	ServiceChargeRate *decimal.Decimal     `json:"service_charge_rate,omitempty"`
	CustomerName      *string              `json:"customer_name,omitempty" validate:"omitempty,max=120"`
	TableNumber       *string              `json:"table_number,omitempty" validate:"omitempty,max=20"`
	Notes             *string              `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason,omitempty" validate:"max=255"`
}

type itemStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
