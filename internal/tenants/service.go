// Package tenants resolves the merchant an operation runs for.
package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/internal/pricing"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
)

type tenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// Lookup is the read side other services depend on.
type Lookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	RequireActive(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type service struct {
	repo tenantRepository
}

// NewService builds a tenant lookup backed by repo.
func NewService(repo tenantRepository) (Lookup, error) {
	if repo == nil {
		return nil, fmt.Errorf("tenant repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant")
	}
	return tenant, nil
}

// RequireActive fails with TENANT_INACTIVE for suspended tenants.
func (s *service) RequireActive(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeTenantInactive, "tenant is inactive")
	}
	return tenant, nil
}

// ResolveRates picks each rate from the override, then the tenant default,
// then the platform default.
func ResolveRates(tenant *models.Tenant, taxOverride, serviceOverride *decimal.Decimal, fallback pricing.Rates) pricing.Rates {
	rates := fallback
	if tenant != nil {
		if tenant.TaxRate != nil {
			rates.Tax = *tenant.TaxRate
		}
		if tenant.ServiceChargeRate != nil {
			rates.ServiceCharge = *tenant.ServiceChargeRate
		}
	}
	if taxOverride != nil {
		rates.Tax = *taxOverride
	}
	if serviceOverride != nil {
		rates.ServiceCharge = *serviceOverride
	}
	return rates
}
