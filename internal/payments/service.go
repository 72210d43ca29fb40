// Package payments reconciles incremental tenders against an order.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/internal/lifecycle"
	"github.com/angelmondragon/tablepos-backend/internal/orders"
	"github.com/angelmondragon/tablepos-backend/internal/pricing"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/angelmondragon/tablepos-backend/pkg/metrics"
	"github.com/angelmondragon/tablepos-backend/pkg/outbox"
	"github.com/angelmondragon/tablepos-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service applies payments to orders.
type Service interface {
	ApplyPayment(ctx context.Context, input ApplyPaymentInput) (*ApplyPaymentResult, error)
	ListPayments(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.Payment, error)
}

// ApplyPaymentInput is one tender against one order.
type ApplyPaymentInput struct {
	OrderID        uuid.UUID
	TenantID       uuid.UUID
	Amount         decimal.Decimal
	Method         enums.PaymentMethod
	TransactionRef *string
	Notes          *string
}

// ApplyPaymentResult returns the recorded payment and the order after it.
type ApplyPaymentResult struct {
	Payment          *models.Payment `json:"payment"`
	Order            *models.Order   `json:"order"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

type service struct {
	payments Repository
	orders   orders.Repository
	tx       txRunner
	outbox   outboxPublisher
	metrics  *metrics.OrderMetrics
	now      func() time.Time
}

// NewService builds the payment reconciliation service.
func NewService(payments Repository, ordersRepo orders.Repository, tx txRunner, publisher outboxPublisher, m *metrics.OrderMetrics) (Service, error) {
	if payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		payments: payments,
		orders:   ordersRepo,
		tx:       tx,
		outbox:   publisher,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) ApplyPayment(ctx context.Context, input ApplyPaymentInput) (*ApplyPaymentResult, error) {
	result, err := s.apply(ctx, input)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() != pkgerrors.CodeDependency {
			s.metrics.PaymentRejected(string(typed.Code()))
		}
		return nil, err
	}
	s.metrics.PaymentRecorded(string(result.Payment.Method), result.Payment.Amount)
	return result, nil
}

func (s *service) apply(ctx context.Context, input ApplyPaymentInput) (*ApplyPaymentResult, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be greater than zero")
	}
	if !input.Amount.Equal(pricing.RoundMoney(input.Amount)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("payment amount must have at most %d decimal places", pricing.MoneyPlaces))
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.Method))
	}

	var result *ApplyPaymentResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		order, err := orders.LoadForTenant(ctx, ordersRepo, input.TenantID, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeOrderCancelled, "cannot pay a cancelled order")
		}
		if !lifecycle.CanReceivePayment(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s and cannot receive payments", order.Status))
		}
		remaining := order.RemainingBalance()
		if input.Amount.GreaterThan(remaining) {
			return pkgerrors.New(pkgerrors.CodeOverpaymentRejected, "payment exceeds remaining balance").
				WithDetails(map[string]any{
					"attempted_amount":  input.Amount,
					"remaining_balance": remaining,
				})
		}

		now := s.now()
		payment := &models.Payment{
			ID:             uuid.New(),
			OrderID:        order.ID,
			TenantID:       order.TenantID,
			Amount:         input.Amount,
			Method:         input.Method,
			Status:         enums.PaymentRecordStatusCompleted,
			TransactionRef: orders.OptionalText(input.TransactionRef),
			Notes:          orders.OptionalText(input.Notes),
			CreatedAt:      now,
		}
		if err := s.payments.WithTx(tx).Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment")
		}

		paid := order.PaidAmount.Add(input.Amount)
		status := lifecycle.DerivePaymentStatus(paid, order.TotalAmount)
		if err := ordersRepo.UpdateOrderCAS(ctx, order.TenantID, order.ID, order.Version, map[string]any{
			"paid_amount":    paid,
			"payment_status": status,
		}); err != nil {
			return orders.CASError(err)
		}
		order.PaidAmount = paid
		order.PaymentStatus = status
		order.Version++
		order.UpdatedAt = now

		if err := s.emit(ctx, tx, order, payment, now); err != nil {
			return err
		}
		result = &ApplyPaymentResult{
			Payment:          payment,
			Order:            order,
			RemainingBalance: order.RemainingBalance(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, order *models.Order, payment *models.Payment, now time.Time) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPaymentRecorded,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		TenantID:      order.TenantID,
		Data: payloads.PaymentRecordedEvent{
			PaymentID:        payment.ID,
			OrderID:          order.ID,
			TenantID:         order.TenantID,
			Amount:           payment.Amount,
			Method:           payment.Method,
			PaidAmount:       order.PaidAmount,
			RemainingBalance: order.RemainingBalance(),
			PaymentStatus:    order.PaymentStatus,
		},
		Version: 1,
	}); err != nil {
		return err
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		return nil
	}
	return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		TenantID:      order.TenantID,
		Data: payloads.OrderPaidEvent{
			OrderID:     order.ID,
			TenantID:    order.TenantID,
			OrderNumber: order.OrderNumber,
			Total:       order.TotalAmount,
			PaidAt:      now,
		},
		Version: 1,
	})
}

func (s *service) ListPayments(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.Payment, error) {
	if _, err := orders.LoadForTenant(ctx, s.orders, tenantID, orderID); err != nil {
		return nil, err
	}
	rows, err := s.payments.ListByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}
