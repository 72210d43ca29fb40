// Package dbtest opens isolated in-memory sqlite databases carrying the full
// application schema.
package dbtest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/tablepos-backend/pkg/db"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/migrate"
)

// Open returns a fresh database unique to the test. The pool is capped at a
// single connection, so code under test must not query outside its
// transaction while one is open.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.ApplySQLiteSchema(context.Background(), conn))
	return conn
}

// Client wraps Open in a db.Client for services that need a tx runner.
func Client(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.NewFromGorm(conn), conn
}

// SeedTenant inserts a tenant. Inactive tenants are flipped after insert
// because the column default would otherwise win over a false value.
func SeedTenant(t *testing.T, conn *gorm.DB, active bool, taxRate, serviceRate *decimal.Decimal) *models.Tenant {
	t.Helper()

	tenant := &models.Tenant{
		ID:                uuid.New(),
		Name:              "Tenant " + uuid.NewString()[:8],
		IsActive:          true,
		TaxRate:           taxRate,
		ServiceChargeRate: serviceRate,
	}
	require.NoError(t, conn.Create(tenant).Error)
	if !active {
		require.NoError(t, conn.Model(tenant).Update("is_active", false).Error)
		tenant.IsActive = false
	}
	return tenant
}

// Rate is a convenience for optional decimal rates in fixtures.
func Rate(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}
