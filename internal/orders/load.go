package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
)

type orderFinder interface {
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// LoadForTenant fetches an order and rejects access from any other tenant.
// Payment and kitchen services share it so every entry point reports the
// same codes.
func LoadForTenant(ctx context.Context, repo orderFinder, tenantID, orderID uuid.UUID) (*models.Order, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeTenantMismatch, "order belongs to another tenant")
	}
	return order, nil
}

// CASError maps a compare-and-set failure to the public error codes.
func CASError(err error) error {
	if errors.Is(err, ErrStaleVersion) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order was modified concurrently; retry")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
}
