package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/internal/orders"
	"github.com/angelmondragon/tablepos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
	"github.com/angelmondragon/tablepos-backend/pkg/outbox"
)

func seedOrder(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, number string, status enums.OrderStatus, created time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		TenantID:      tenantID,
		OrderNumber:   number,
		Status:        status,
		PaymentStatus: enums.PaymentStatusUnpaid,
		Subtotal:      decimal.NewFromInt(50000),
		TotalAmount:   decimal.NewFromInt(50000),
		PaidAmount:    decimal.Zero,
		Version:       1,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, conn.Create(order).Error)
	return order
}

func TestDraftExpiryJobCancelsStaleDrafts(t *testing.T) {
	client, conn := dbtest.Client(t)
	tenant := dbtest.SeedTenant(t, conn, true, nil, nil)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	stale := seedOrder(t, conn, tenant.ID, "ORD-000001", enums.OrderStatusDraft, now.Add(-13*time.Hour))
	fresh := seedOrder(t, conn, tenant.ID, "ORD-000002", enums.OrderStatusDraft, now.Add(-time.Hour))
	confirmed := seedOrder(t, conn, tenant.ID, "ORD-000003", enums.OrderStatusConfirmed, now.Add(-48*time.Hour))

	jobIface, err := NewDraftExpiryJob(DraftExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		DB:     client,
		Orders: orders.NewRepository(conn),
		Outbox: outbox.NewService(outbox.NewRepository(conn), nil),
		TTL:    12 * time.Hour,
	})
	require.NoError(t, err)
	job := jobIface.(*draftExpiryJob)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	load := func(id uuid.UUID) models.Order {
		var got models.Order
		require.NoError(t, conn.First(&got, "id = ?", id).Error)
		return got
	}
	expired := load(stale.ID)
	assert.Equal(t, enums.OrderStatusCancelled, expired.Status)
	assert.Equal(t, 2, expired.Version)
	assert.Equal(t, enums.OrderStatusDraft, load(fresh.ID).Status)
	assert.Equal(t, 1, load(fresh.ID).Version)
	assert.Equal(t, enums.OrderStatusConfirmed, load(confirmed.ID).Status)

	var events []models.OutboxEvent
	require.NoError(t, conn.Where("aggregate_id = ?", stale.ID).Order("event_type").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, enums.EventOrderExpired, events[0].EventType)
	assert.Equal(t, enums.EventOrderStatusChanged, events[1].EventType)

	// a second pass finds nothing left to expire
	require.NoError(t, job.Run(context.Background()))
	var n int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("aggregate_id = ?", stale.ID).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}

func TestNewDraftExpiryJobRequiresDeps(t *testing.T) {
	_, err := NewDraftExpiryJob(DraftExpiryJobParams{})
	assert.Error(t, err)

	_, conn := dbtest.Client(t)
	_, err = NewDraftExpiryJob(DraftExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		Orders: orders.NewRepository(conn),
	})
	assert.EqualError(t, err, "db runner required")
}
