package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
)

func TestEmitStoresEnvelope(t *testing.T) {
	client, conn := dbtest.Client(t)
	svc := NewService(NewRepository(conn), nil)
	orderID, tenantID := uuid.New(), uuid.New()
	occurred := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			TenantID:      tenantID,
			OccurredAt:    occurred,
			Data:          map[string]string{"order_number": "ORD-000001"},
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, conn.First(&row, "aggregate_id = ?", orderID).Error)
	require.NotNil(t, row.TenantID)
	assert.Equal(t, tenantID, *row.TenantID)

	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &env))
	assert.Equal(t, row.ID.String(), env.EventID)
	assert.Equal(t, 1, env.Version)
	assert.True(t, occurred.Equal(env.OccurredAt))
	assert.JSONEq(t, `{"order_number":"ORD-000001"}`, string(env.Data))
}

func TestEmitIfNotExistsWritesOnce(t *testing.T) {
	client, conn := dbtest.Client(t)
	svc := NewService(NewRepository(conn), nil)
	event := DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Data:          map[string]any{},
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, client.WithTx(context.Background(), func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, event)
		}))
	}

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("aggregate_id = ?", event.AggregateID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEmitRejectsMalformedEvents(t *testing.T) {
	client, conn := dbtest.Client(t)
	svc := NewService(NewRepository(conn), nil)

	cases := map[string]DomainEvent{
		"unknown type":      {EventType: "order_teleported", AggregateType: enums.AggregateOrder, AggregateID: uuid.New()},
		"unknown aggregate": {EventType: enums.EventOrderCreated, AggregateType: "table", AggregateID: uuid.New()},
		"missing id":        {EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder},
	}
	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
				return svc.Emit(context.Background(), tx, event)
			})
			assert.Error(t, err)
		})
	}
	assert.Error(t, svc.Emit(context.Background(), nil, cases["missing id"]))
}

func TestDeletePublishedBeforeKeepsPendingRows(t *testing.T) {
	client, conn := dbtest.Client(t)
	repo := NewRepository(conn)
	cutoff := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	old := cutoff.Add(-48 * time.Hour)
	recent := cutoff.Add(time.Hour)

	seed := []*time.Time{&old, &old, &old, &recent, nil}
	for _, published := range seed {
		require.NoError(t, client.WithTx(context.Background(), func(tx *gorm.DB) error {
			return repo.Insert(tx, models.OutboxEvent{
				EventType:     enums.EventOrderPaid,
				AggregateType: enums.AggregateOrder,
				AggregateID:   uuid.New(),
				Payload:       json.RawMessage(`{}`),
				PublishedAt:   published,
			})
		}))
	}

	var first, second int64
	require.NoError(t, client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		first, err = repo.DeletePublishedBefore(tx, cutoff, 2)
		return err
	}))
	require.NoError(t, client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		second, err = repo.DeletePublishedBefore(tx, cutoff, 2)
		return err
	}))

	assert.Equal(t, int64(2), first)
	assert.Equal(t, int64(1), second)
	var left int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&left).Error)
	assert.Equal(t, int64(2), left)
}
