// Package orders assembles priced orders from cart lines and moves them
// through their lifecycle.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/internal/lifecycle"
	"github.com/angelmondragon/tablepos-backend/internal/pricing"
	"github.com/angelmondragon/tablepos-backend/internal/sequence"
	"github.com/angelmondragon/tablepos-backend/internal/tenants"
	dbpkg "github.com/angelmondragon/tablepos-backend/pkg/db"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/angelmondragon/tablepos-backend/pkg/metrics"
	"github.com/angelmondragon/tablepos-backend/pkg/outbox"
	"github.com/angelmondragon/tablepos-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/tablepos-backend/pkg/pagination"
	"github.com/angelmondragon/tablepos-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines order assembly and lifecycle operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	TransitionStatus(ctx context.Context, input TransitionInput) (*models.Order, error)
	UpdateItemStatus(ctx context.Context, input ItemStatusInput) (*models.OrderItem, error)
}

// Deps groups the collaborators NewService needs.
type Deps struct {
	Repo         Repository
	Tx           txRunner
	Tenants      tenants.Lookup
	Numbers      sequence.Generator
	Outbox       outboxPublisher
	DefaultRates pricing.Rates
	Metrics      *metrics.OrderMetrics
}

type service struct {
	repo     Repository
	tx       txRunner
	tenants  tenants.Lookup
	numbers  sequence.Generator
	outbox   outboxPublisher
	defaults pricing.Rates
	metrics  *metrics.OrderMetrics
	now      func() time.Time
}

// NewService builds the orders service.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Tenants == nil {
		return nil, fmt.Errorf("tenant lookup required")
	}
	if deps.Numbers == nil {
		return nil, fmt.Errorf("order number generator required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if err := deps.DefaultRates.Validate(); err != nil {
		return nil, fmt.Errorf("default rates: %w", err)
	}
	return &service{
		repo:     deps.Repo,
		tx:       deps.Tx,
		tenants:  deps.Tenants,
		numbers:  deps.Numbers,
		outbox:   deps.Outbox,
		defaults: deps.DefaultRates,
		metrics:  deps.Metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if input.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	tenant, err := s.tenants.RequireActive(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	rates := tenants.ResolveRates(tenant, input.TaxRate, input.ServiceChargeRate, s.defaults)
	if err := rates.Validate(); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	now := s.now()
	orderID := uuid.New()
	items := make([]models.OrderItem, 0, len(input.Lines))
	subtotal := decimal.Zero
	for i, line := range input.Lines {
		item, err := buildItem(orderID, i, line, now)
		if err != nil {
			return nil, err
		}
		subtotal = subtotal.Add(item.Subtotal)
		items = append(items, item)
	}
	breakdown := pricing.ComputeBreakdown(subtotal, decimal.Zero, rates)

	order := &models.Order{
		ID:                  orderID,
		TenantID:            tenant.ID,
		Status:              enums.OrderStatusDraft,
		PaymentStatus:       lifecycle.DerivePaymentStatus(decimal.Zero, breakdown.Total),
		Subtotal:            breakdown.Subtotal,
		DiscountAmount:      breakdown.Discount,
		TaxAmount:           breakdown.Tax,
		ServiceChargeAmount: breakdown.ServiceCharge,
		TotalAmount:         breakdown.Total,
		PaidAmount:          decimal.Zero,
		TaxRate:             rates.Tax,
		ServiceChargeRate:   rates.ServiceCharge,
		CustomerName:        OptionalText(input.CustomerName),
		TableNumber:         OptionalText(input.TableNumber),
		Notes:               OptionalText(input.Notes),
		Version:             1,
		Items:               items,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.numbers.Next(ctx, tx, tenant.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign order number")
		}
		order.OrderNumber = number

		if err := s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already taken")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			TenantID:      order.TenantID,
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				TenantID:    order.TenantID,
				OrderNumber: order.OrderNumber,
				ItemCount:   len(order.Items),
				Total:       order.TotalAmount,
				TableNumber: order.TableNumber,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.OrderCreated()
	return &CreateOrderResult{Order: order, Breakdown: breakdown}, nil
}

func buildItem(orderID uuid.UUID, position int, line LineInput, now time.Time) (models.OrderItem, error) {
	invalid := func(msg string) error {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: %s", position+1, msg))
	}
	if line.ProductID == uuid.Nil {
		return models.OrderItem{}, invalid("product id required")
	}
	name := strings.TrimSpace(line.ProductName)
	if name == "" {
		return models.OrderItem{}, invalid("product name required")
	}
	if line.Quantity <= 0 {
		return models.OrderItem{}, invalid("quantity must be positive")
	}
	if line.BasePrice.IsNegative() {
		return models.OrderItem{}, invalid("base price cannot be negative")
	}

	snapshots := make(types.OptionSnapshots, 0, len(line.Options))
	for _, opt := range line.Options {
		snapshots = append(snapshots, types.OptionSnapshot{
			GroupID:    opt.GroupID,
			GroupName:  opt.GroupName,
			OptionID:   opt.OptionID,
			OptionName: opt.OptionName,
			PriceDelta: opt.PriceDelta,
			Depth:      opt.Depth,
		})
	}
	unit := pricing.UnitPrice(line.BasePrice, line.VariantPriceDelta, pricing.SumFlat(line.Options))
	if unit.IsNegative() {
		return models.OrderItem{}, invalid(fmt.Sprintf("unit price %s cannot be negative", unit.StringFixed(2)))
	}

	item := models.OrderItem{
		ID:                uuid.New(),
		OrderID:           orderID,
		ProductID:         line.ProductID,
		ProductName:       name,
		BasePrice:         line.BasePrice,
		VariantID:         line.VariantID,
		VariantPriceDelta: line.VariantPriceDelta,
		SelectedOptions:   snapshots,
		Quantity:          line.Quantity,
		UnitPrice:         unit,
		Subtotal:          pricing.LineTotal(unit, line.Quantity),
		Status:            enums.OrderItemStatusPending,
		Note:              OptionalText(&line.Note),
		Position:          position,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if line.VariantID != nil {
		item.VariantName = OptionalText(&line.VariantName)
	}
	return item, nil
}

func (s *service) GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	return LoadForTenant(ctx, s.repo, tenantID, orderID)
}

func (s *service) ListOrders(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	list, err := s.repo.ListOrders(ctx, tenantID, params, filters)
	if errors.Is(err, pagination.ErrInvalidCursor) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) TransitionStatus(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", input.Status))
	}

	var result *models.Order
	var from enums.OrderStatus
	changed := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := LoadForTenant(ctx, repo, input.TenantID, input.OrderID)
		if err != nil {
			return err
		}
		from = order.Status

		if input.Status == enums.OrderStatusCompleted {
			changed, err = lifecycle.Complete(order.Status, order.PaymentStatus)
		} else {
			changed, err = lifecycle.Transition(order.Status, input.Status)
		}
		if err != nil {
			return err
		}
		if !changed {
			result = order
			return nil
		}

		now := s.now()
		updates := map[string]any{"status": input.Status}
		switch input.Status {
		case enums.OrderStatusCompleted:
			updates["completed_at"] = now
			order.CompletedAt = &now
		case enums.OrderStatusCancelled:
			updates["cancelled_at"] = now
			order.CancelledAt = &now
		}
		if err := repo.UpdateOrderCAS(ctx, order.TenantID, order.ID, order.Version, updates); err != nil {
			return CASError(err)
		}
		order.Status = input.Status
		order.Version++
		order.UpdatedAt = now
		result = order

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			TenantID:      order.TenantID,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    order.ID,
				TenantID:   order.TenantID,
				FromStatus: from,
				ToStatus:   input.Status,
				Reason:     strings.TrimSpace(input.Reason),
				ChangedAt:  now,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.Transition(string(from), string(input.Status))
	}
	return result, nil
}

func (s *service) UpdateItemStatus(ctx context.Context, input ItemStatusInput) (*models.OrderItem, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown item status %q", input.Status))
	}
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	var result *models.OrderItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := LoadForTenant(ctx, repo, input.TenantID, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeOrderCancelled, "order is cancelled")
		}

		item, err := repo.FindItem(ctx, order.ID, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
		}
		if item.Status == input.Status {
			result = item
			return nil
		}
		if !lifecycle.CanAdvanceItem(order.Status, item.Status, input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move item from %s to %s while order is %s", item.Status, input.Status, order.Status))
		}
		if err := repo.UpdateItemStatus(ctx, order.ID, item.ID, item.Status, input.Status); err != nil {
			return CASError(err)
		}

		from := item.Status
		item.Status = input.Status
		result = item
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderItemStatus,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			TenantID:      order.TenantID,
			Data: payloads.OrderItemStatusChangedEvent{
				OrderID:    order.ID,
				ItemID:     item.ID,
				TenantID:   order.TenantID,
				FromStatus: from,
				ToStatus:   input.Status,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// OptionalText trims free text and maps blank input to nil, so optional
// columns never store whitespace.
func OptionalText(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
