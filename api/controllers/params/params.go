// Package params extracts the tenant and path identifiers every order route
// needs.
package params

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tablepos-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
)

// TenantID returns the tenant placed on the request by TenantContext.
func TenantID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	return id, nil
}

// UUID parses a chi URL parameter.
func UUID(r *http.Request, name, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, label+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label)
	}
	return id, nil
}

// TenantAndOrder resolves the tenant and the {orderId} path parameter.
func TenantAndOrder(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	tenantID, err := TenantID(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	orderID, err := UUID(r, "orderId", "order id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return tenantID, orderID, nil
}
