package kitchen

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/tablepos-backend/api/controllers/params"
	"github.com/angelmondragon/tablepos-backend/api/controllers/views"
	"github.com/angelmondragon/tablepos-backend/api/responses"
	"github.com/angelmondragon/tablepos-backend/api/validators"
	internalkitchen "github.com/angelmondragon/tablepos-backend/internal/kitchen"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
)

type issueTicketRequest struct {
	Priority string `json:"priority,omitempty"`
}

// Issue sends the order's outstanding items to the kitchen. The body is
// optional; without one the ticket gets normal priority.
func Issue(svc internalkitchen.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kitchen service unavailable"))
			return
		}
		tenantID, orderID, err := params.TenantAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload issueTicketRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil && !isEmptyBody(err) {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		var priority enums.TicketPriority
		if raw := strings.ToLower(strings.TrimSpace(payload.Priority)); raw != "" {
			priority, err = enums.ParseTicketPriority(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket priority"))
				return
			}
		}

		ticket, err := svc.IssueTicket(r.Context(), internalkitchen.IssueTicketInput{
			OrderID:  orderID,
			TenantID: tenantID,
			Priority: priority,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, views.FromTicket(ticket))
	}
}

// List returns every ticket issued for an order.
func List(svc internalkitchen.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kitchen service unavailable"))
			return
		}
		tenantID, orderID, err := params.TenantAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tickets, err := svc.ListTickets(r.Context(), tenantID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.FromTickets(tickets))
	}
}

func isEmptyBody(err error) bool {
	return errors.Is(err, io.EOF)
}
