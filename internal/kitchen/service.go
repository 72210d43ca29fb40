// Package kitchen issues tickets that route an order's outstanding items to
// the kitchen.
package kitchen

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/internal/lifecycle"
	"github.com/angelmondragon/tablepos-backend/internal/orders"
	"github.com/angelmondragon/tablepos-backend/internal/sequence"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
	"github.com/angelmondragon/tablepos-backend/pkg/metrics"
	"github.com/angelmondragon/tablepos-backend/pkg/outbox"
	"github.com/angelmondragon/tablepos-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service issues kitchen tickets.
type Service interface {
	IssueTicket(ctx context.Context, input IssueTicketInput) (*models.KitchenTicket, error)
	ListTickets(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.KitchenTicket, error)
}

// IssueTicketInput targets one order. An empty priority means normal.
type IssueTicketInput struct {
	OrderID  uuid.UUID
	TenantID uuid.UUID
	Priority enums.TicketPriority
}

// Deps groups the collaborators of the kitchen service.
type Deps struct {
	Repo    Repository
	Orders  orders.Repository
	Tx      txRunner
	Numbers sequence.Generator
	Outbox  outboxPublisher
	Metrics *metrics.OrderMetrics
	Logger  *logger.Logger
}

type service struct {
	repo    Repository
	orders  orders.Repository
	tx      txRunner
	numbers sequence.Generator
	outbox  outboxPublisher
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the kitchen ticket service.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("kitchen repository required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Numbers == nil {
		return nil, fmt.Errorf("ticket number generator required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    deps.Repo,
		orders:  deps.Orders,
		tx:      deps.Tx,
		numbers: deps.Numbers,
		outbox:  deps.Outbox,
		metrics: deps.Metrics,
		logg:    deps.Logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) IssueTicket(ctx context.Context, input IssueTicketInput) (*models.KitchenTicket, error) {
	priority := input.Priority
	if priority == "" {
		priority = enums.TicketPriorityNormal
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ticket priority %q", input.Priority))
	}

	var ticket *models.KitchenTicket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := orders.LoadForTenant(ctx, s.orders.WithTx(tx), input.TenantID, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeOrderCancelled, "cannot send a cancelled order to the kitchen")
		}
		if !lifecycle.CanIssueTicket(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s; only confirmed orders can be sent to the kitchen", order.Status))
		}
		if len(order.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
		}
		items := ticketItems(order.Items)
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeNoPendingItems, "order has no items waiting on the kitchen")
		}

		number, err := s.numbers.Next(ctx, tx, order.TenantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate ticket number")
		}
		ticket = &models.KitchenTicket{
			ID:           uuid.New(),
			TenantID:     order.TenantID,
			OrderID:      order.ID,
			TicketNumber: number,
			OrderNumber:  order.OrderNumber,
			TableNumber:  order.TableNumber,
			Priority:     priority,
			Status:       enums.TicketStatusPending,
			Items:        items,
			CreatedAt:    s.now(),
		}
		if err := s.repo.WithTx(tx).Create(ctx, ticket); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist kitchen ticket")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventKitchenTicketIssued,
			AggregateType: enums.AggregateKitchenTicket,
			AggregateID:   ticket.ID,
			TenantID:      ticket.TenantID,
			Data: payloads.KitchenTicketIssuedEvent{
				TicketID:     ticket.ID,
				OrderID:      ticket.OrderID,
				TenantID:     ticket.TenantID,
				TicketNumber: ticket.TicketNumber,
				TableNumber:  ticket.TableNumber,
				Priority:     ticket.Priority,
				ItemCount:    len(ticket.Items),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TicketIssued(string(ticket.Priority))
	if s.logg != nil {
		logCtx := s.logg.WithTenantID(ctx, ticket.TenantID.String())
		logCtx = s.logg.WithOrderID(logCtx, ticket.OrderID.String())
		s.logg.Info(logCtx, fmt.Sprintf("kitchen ticket %s issued with %d items", ticket.TicketNumber, len(ticket.Items)))
	}
	return ticket, nil
}

func (s *service) ListTickets(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.KitchenTicket, error) {
	if _, err := orders.LoadForTenant(ctx, s.orders, tenantID, orderID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list kitchen tickets")
	}
	return rows, nil
}

// ticketItems copies the items the kitchen still has to work on.
func ticketItems(items []models.OrderItem) []models.KitchenTicketItem {
	out := make([]models.KitchenTicketItem, 0, len(items))
	for _, item := range items {
		if !item.Status.IsKitchenPending() {
			continue
		}
		out = append(out, models.KitchenTicketItem{
			ID:          uuid.New(),
			OrderItemID: item.ID,
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			Options:     item.SelectedOptions,
			Quantity:    item.Quantity,
			Note:        item.Note,
		})
	}
	return out
}
