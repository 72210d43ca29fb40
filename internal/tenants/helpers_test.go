package tenants

import (
	"github.com/angelmondragon/tablepos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
)

func dbtestTenant(tax, service string) *models.Tenant {
	tenant := &models.Tenant{IsActive: true}
	if tax != "" {
		tenant.TaxRate = dbtest.Rate(tax)
	}
	if service != "" {
		tenant.ServiceChargeRate = dbtest.Rate(service)
	}
	return tenant
}
