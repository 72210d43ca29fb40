// Package views shapes persisted models into the JSON the API returns.
package views

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/internal/pricing"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/angelmondragon/tablepos-backend/pkg/types"
)

type Order struct {
	ID                  uuid.UUID           `json:"id"`
	TenantID            uuid.UUID           `json:"tenant_id"`
	OrderNumber         string              `json:"order_number"`
	Status              enums.OrderStatus   `json:"status"`
	PaymentStatus       enums.PaymentStatus `json:"payment_status"`
	Subtotal            decimal.Decimal     `json:"subtotal"`
	DiscountAmount      decimal.Decimal     `json:"discount_amount"`
	TaxAmount           decimal.Decimal     `json:"tax_amount"`
	ServiceChargeAmount decimal.Decimal     `json:"service_charge_amount"`
	TotalAmount         decimal.Decimal     `json:"total_amount"`
	PaidAmount          decimal.Decimal     `json:"paid_amount"`
	RemainingBalance    decimal.Decimal     `json:"remaining_balance"`
	TaxRate             decimal.Decimal     `json:"tax_rate"`
	ServiceChargeRate   decimal.Decimal     `json:"service_charge_rate"`
	CustomerName        *string             `json:"customer_name,omitempty"`
	TableNumber         *string             `json:"table_number,omitempty"`
	Notes               *string             `json:"notes,omitempty"`
	Version             int                 `json:"version"`
	Items               []OrderItem         `json:"items,omitempty"`
	CompletedAt         *time.Time          `json:"completed_at,omitempty"`
	CancelledAt         *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

type OrderItem struct {
	ID                uuid.UUID             `json:"id"`
	ProductID         uuid.UUID             `json:"product_id"`
	ProductName       string                `json:"product_name"`
	BasePrice         decimal.Decimal       `json:"base_price"`
	VariantID         *uuid.UUID            `json:"variant_id,omitempty"`
	VariantName       *string               `json:"variant_name,omitempty"`
	VariantPriceDelta decimal.Decimal       `json:"variant_price_delta"`
	Options           types.OptionSnapshots `json:"options"`
	Quantity          int                   `json:"quantity"`
	UnitPrice         decimal.Decimal       `json:"unit_price"`
	Subtotal          decimal.Decimal       `json:"subtotal"`
	Status            enums.OrderItemStatus `json:"status"`
	Note              *string               `json:"note,omitempty"`
}

// OrderWithBreakdown is the create response: the order plus its receipt.
type OrderWithBreakdown struct {
	Order     Order             `json:"order"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

type OrderPage struct {
	Orders     []Order `json:"orders"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

type Payment struct {
	ID             uuid.UUID                 `json:"id"`
	OrderID        uuid.UUID                 `json:"order_id"`
	Amount         decimal.Decimal           `json:"amount"`
	Method         enums.PaymentMethod       `json:"method"`
	Status         enums.PaymentRecordStatus `json:"status"`
	TransactionRef *string                   `json:"transaction_ref,omitempty"`
	Notes          *string                   `json:"notes,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// PaymentReceipt is the response to a recorded payment.
type PaymentReceipt struct {
	Payment          Payment         `json:"payment"`
	Order            Order           `json:"order"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

type KitchenTicket struct {
	ID           uuid.UUID            `json:"id"`
	OrderID      uuid.UUID            `json:"order_id"`
	TicketNumber string               `json:"ticket_number"`
	OrderNumber  string               `json:"order_number"`
	TableNumber  *string              `json:"table_number,omitempty"`
	Priority     enums.TicketPriority `json:"priority"`
	Status       enums.TicketStatus   `json:"status"`
	Items        []KitchenTicketItem  `json:"items"`
	CreatedAt    time.Time            `json:"created_at"`
}

type KitchenTicketItem struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	ProductName string    `json:"product_name"`
	VariantName *string   `json:"variant_name,omitempty"`
	Options     []string  `json:"options"`
	Quantity    int       `json:"quantity"`
	Note        *string   `json:"note,omitempty"`
}

type Product struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Category     string           `json:"category,omitempty"`
	BasePrice    decimal.Decimal  `json:"base_price"`
	IsActive     bool             `json:"is_active"`
	Variants     []ProductVariant `json:"variants"`
	OptionGroups []OptionGroup    `json:"option_groups"`
}

type ProductVariant struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

type OptionGroup struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	SelectionType enums.SelectionType `json:"selection_type"`
	Required      bool                `json:"required"`
	MinSelections int                 `json:"min_selections"`
	MaxSelections int                 `json:"max_selections"`
	Options       []Option            `json:"options"`
}

type Option struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	PriceDelta  decimal.Decimal `json:"price_delta"`
	ChildGroups []OptionGroup   `json:"child_groups,omitempty"`
}

func FromOrder(o *models.Order) Order {
	out := Order{
		ID:                  o.ID,
		TenantID:            o.TenantID,
		OrderNumber:         o.OrderNumber,
		Status:              o.Status,
		PaymentStatus:       o.PaymentStatus,
		Subtotal:            o.Subtotal,
		DiscountAmount:      o.DiscountAmount,
		TaxAmount:           o.TaxAmount,
		ServiceChargeAmount: o.ServiceChargeAmount,
		TotalAmount:         o.TotalAmount,
		PaidAmount:          o.PaidAmount,
		RemainingBalance:    o.RemainingBalance(),
		TaxRate:             o.TaxRate,
		ServiceChargeRate:   o.ServiceChargeRate,
		CustomerName:        o.CustomerName,
		TableNumber:         o.TableNumber,
		Notes:               o.Notes,
		Version:             o.Version,
		CompletedAt:         o.CompletedAt,
		CancelledAt:         o.CancelledAt,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	for i := range o.Items {
		out.Items = append(out.Items, FromOrderItem(&o.Items[i]))
	}
	return out
}

func FromOrderItem(it *models.OrderItem) OrderItem {
	return OrderItem{
		ID:                it.ID,
		ProductID:         it.ProductID,
		ProductName:       it.ProductName,
		BasePrice:         it.BasePrice,
		VariantID:         it.VariantID,
		VariantName:       it.VariantName,
		VariantPriceDelta: it.VariantPriceDelta,
		Options:           it.SelectedOptions,
		Quantity:          it.Quantity,
		UnitPrice:         it.UnitPrice,
		Subtotal:          it.Subtotal,
		Status:            it.Status,
		Note:              it.Note,
	}
}

func FromOrders(rows []models.Order) []Order {
	out := make([]Order, 0, len(rows))
	for i := range rows {
		out = append(out, FromOrder(&rows[i]))
	}
	return out
}

func FromPayment(p *models.Payment) Payment {
	return Payment{
		ID:             p.ID,
		OrderID:        p.OrderID,
		Amount:         p.Amount,
		Method:         p.Method,
		Status:         p.Status,
		TransactionRef: p.TransactionRef,
		Notes:          p.Notes,
		CreatedAt:      p.CreatedAt,
	}
}

func FromPayments(rows []models.Payment) []Payment {
	out := make([]Payment, 0, len(rows))
	for i := range rows {
		out = append(out, FromPayment(&rows[i]))
	}
	return out
}

func FromTicket(t *models.KitchenTicket) KitchenTicket {
	out := KitchenTicket{
		ID:           t.ID,
		OrderID:      t.OrderID,
		TicketNumber: t.TicketNumber,
		OrderNumber:  t.OrderNumber,
		TableNumber:  t.TableNumber,
		Priority:     t.Priority,
		Status:       t.Status,
		Items:        make([]KitchenTicketItem, 0, len(t.Items)),
		CreatedAt:    t.CreatedAt,
	}
	for _, it := range t.Items {
		out.Items = append(out.Items, KitchenTicketItem{
			OrderItemID: it.OrderItemID,
			ProductName: it.ProductName,
			VariantName: it.VariantName,
			Options:     it.Options.Names(),
			Quantity:    it.Quantity,
			Note:        it.Note,
		})
	}
	return out
}

func FromTickets(rows []models.KitchenTicket) []KitchenTicket {
	out := make([]KitchenTicket, 0, len(rows))
	for i := range rows {
		out = append(out, FromTicket(&rows[i]))
	}
	return out
}

func FromProduct(p *models.Product) Product {
	out := Product{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		BasePrice:    p.BasePrice,
		IsActive:     p.IsActive,
		Variants:     make([]ProductVariant, 0, len(p.Variants)),
		OptionGroups: fromGroups(p.OptionGroups),
	}
	for _, v := range p.Variants {
		out.Variants = append(out.Variants, ProductVariant{ID: v.ID, Name: v.Name, PriceDelta: v.PriceDelta})
	}
	return out
}

func fromGroups(groups []models.OptionGroup) []OptionGroup {
	out := make([]OptionGroup, 0, len(groups))
	for _, g := range groups {
		og := OptionGroup{
			ID:            g.ID,
			Name:          g.Name,
			SelectionType: g.SelectionType,
			Required:      g.Required,
			MinSelections: g.MinSelections,
			MaxSelections: g.MaxSelections,
			Options:       make([]Option, 0, len(g.Options)),
		}
		for _, o := range g.Options {
			opt := Option{ID: o.ID, Name: o.Name, PriceDelta: o.PriceDelta}
			if len(o.ChildGroups) > 0 {
				opt.ChildGroups = fromGroups(o.ChildGroups)
			}
			og.Options = append(og.Options, opt)
		}
		out = append(out, og)
	}
	return out
}
