package payments

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/api/controllers/params"
	"github.com/angelmondragon/tablepos-backend/api/controllers/views"
	"github.com/angelmondragon/tablepos-backend/api/responses"
	"github.com/angelmondragon/tablepos-backend/api/validators"
	internalpayments "github.com/angelmondragon/tablepos-backend/internal/payments"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
)

type createPaymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method" validate:"required"`
	TransactionRef *string         `json:"transaction_ref,omitempty" validate:"omitempty,max=120"`
	Notes          *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// Create records a tender against the order. Overpayments come back as
// 422 with the remaining balance in the error details.
func Create(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}
		tenantID, orderID, err := params.TenantAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(strings.ToLower(strings.TrimSpace(payload.Method)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.ApplyPayment(r.Context(), internalpayments.ApplyPaymentInput{
			OrderID:        orderID,
			TenantID:       tenantID,
			Amount:         payload.Amount,
			Method:         method,
			TransactionRef: trimmed(payload.TransactionRef),
			Notes:          trimmed(payload.Notes),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, views.PaymentReceipt{
			Payment:          views.FromPayment(result.Payment),
			Order:            views.FromOrder(result.Order),
			RemainingBalance: result.RemainingBalance,
		})
	}
}

// List returns the payments recorded for an order, oldest first.
func List(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}
		tenantID, orderID, err := params.TenantAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListPayments(r.Context(), tenantID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.FromPayments(rows))
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	clean := validators.SanitizeString(*value, 500)
	if clean == "" {
		return nil
	}
	return &clean
}
