// Package lifecycle holds the order transition table and the eligibility
// predicates other services gate on.
package lifecycle

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
)

var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusDraft:     {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusPreparing, enums.OrderStatusReady, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing: {enums.OrderStatusReady, enums.OrderStatusCancelled},
	enums.OrderStatusReady:     {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
	enums.OrderStatusCompleted: nil,
	enums.OrderStatusCancelled: nil,
}

// AllowedTargets lists the statuses reachable from status in one step.
func AllowedTargets(status enums.OrderStatus) []enums.OrderStatus {
	return append([]enums.OrderStatus(nil), transitions[status]...)
}

// CanTransition reports whether from -> to is in the table. Same-status
// requests are not transitions and report false.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Transition validates a status change. A request for the current status
// succeeds with changed == false.
func Transition(from, to enums.OrderStatus) (bool, error) {
	if !to.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", to))
	}
	if from == to {
		return false, nil
	}
	if !CanTransition(from, to) {
		return false, InvalidTransition(from, to)
	}
	return true, nil
}

// InvalidTransition builds the error returned for a disallowed change.
func InvalidTransition(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("cannot transition order from %s to %s", from, to)).
		WithDetails(map[string]any{
			"from": from,
			"to":   to,
		})
}

// DerivePaymentStatus computes the payment status from amounts. It is never
// set directly.
func DerivePaymentStatus(paid, total decimal.Decimal) enums.PaymentStatus {
	switch {
	case paid.Equal(total):
		return enums.PaymentStatusPaid
	case paid.IsPositive() && paid.LessThan(total):
		return enums.PaymentStatusPartial
	default:
		return enums.PaymentStatusUnpaid
	}
}

// CanIssueTicket reports whether the kitchen may receive a ticket.
func CanIssueTicket(status enums.OrderStatus) bool {
	return status == enums.OrderStatusConfirmed
}

// CanComplete allows completion of a fully paid order that is being prepared
// or is ready. Completed orders stay completable so re-completion is a no-op.
func CanComplete(status enums.OrderStatus, payment enums.PaymentStatus) bool {
	if payment != enums.PaymentStatusPaid {
		return false
	}
	switch status {
	case enums.OrderStatusPreparing, enums.OrderStatusReady, enums.OrderStatusCompleted:
		return true
	}
	return false
}

// CanReceivePayment is true for any order still open.
func CanReceivePayment(status enums.OrderStatus) bool {
	return status != enums.OrderStatusCompleted && status != enums.OrderStatusCancelled
}

// CanAdvanceItem allows forward-only item progression on open orders.
func CanAdvanceItem(order enums.OrderStatus, from, to enums.OrderItemStatus) bool {
	if order.IsTerminal() || order == enums.OrderStatusDraft {
		return false
	}
	if !to.IsValid() {
		return false
	}
	return to.Rank() > from.Rank()
}

// Complete validates completion. Completion follows CanComplete rather than
// the table so an order may skip the ready step once fully paid. A status
// that can never complete is an invalid transition whatever the balance;
// only an otherwise completable order reports the unpaid balance.
func Complete(from enums.OrderStatus, payment enums.PaymentStatus) (bool, error) {
	switch from {
	case enums.OrderStatusPreparing, enums.OrderStatusReady, enums.OrderStatusCompleted:
	default:
		return false, InvalidTransition(from, enums.OrderStatusCompleted)
	}
	if payment != enums.PaymentStatusPaid {
		return false, pkgerrors.New(pkgerrors.CodeStateConflict, "order must be fully paid before completion").
			WithDetails(map[string]any{"payment_status": payment})
	}
	return from != enums.OrderStatusCompleted, nil
}
