package sequence

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/pkg/config"
	"github.com/angelmondragon/tablepos-backend/pkg/db/dbtest"
)

type fakeCounters struct {
	values map[string]int64
	err    error
}

func (f *fakeCounters) Incr(_ context.Context, key string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.values == nil {
		f.values = map[string]int64{}
	}
	f.values[key]++
	return f.values[key], nil
}

func (f *fakeCounters) CounterKey(parts ...string) string {
	return "tp:counter:" + strings.Join(parts, ":")
}

func TestRedisGeneratorFormatsPerKind(t *testing.T) {
	store := &fakeCounters{}
	tenant := uuid.New()
	orders := NewRedisGenerator(KindOrder, store)
	tickets := NewRedisGenerator(KindTicket, store)

	first, err := orders.Next(context.Background(), nil, tenant)
	require.NoError(t, err)
	second, err := orders.Next(context.Background(), nil, tenant)
	require.NoError(t, err)
	ticket, err := tickets.Next(context.Background(), nil, tenant)
	require.NoError(t, err)

	assert.Equal(t, "ORD-000001", first)
	assert.Equal(t, "ORD-000002", second)
	assert.Equal(t, "KT-000001", ticket)
	assert.Equal(t, int64(2), store.values["tp:counter:order:"+tenant.String()])
}

func TestRedisGeneratorWrapsErrors(t *testing.T) {
	gen := NewRedisGenerator(KindOrder, &fakeCounters{err: errors.New("down")})
	_, err := gen.Next(context.Background(), nil, uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order sequence")
}

func TestDBGeneratorIsPerTenantAndRollsBack(t *testing.T) {
	client, _ := dbtest.Client(t)
	gen := NewDBGenerator(KindOrder)
	tenantA, tenantB := uuid.New(), uuid.New()
	ctx := context.Background()

	next := func(tenant uuid.UUID) string {
		var out string
		require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			out, err = gen.Next(ctx, tx, tenant)
			return err
		}))
		return out
	}

	assert.Equal(t, "ORD-000001", next(tenantA))
	assert.Equal(t, "ORD-000002", next(tenantA))
	assert.Equal(t, "ORD-000001", next(tenantB))

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := gen.Next(ctx, tx, tenantA); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Equal(t, "ORD-000003", next(tenantA))
}

func TestDBGeneratorRequiresTx(t *testing.T) {
	_, err := NewDBGenerator(KindTicket).Next(context.Background(), nil, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrInvalidTransaction)
}

func TestNewSelectsBackend(t *testing.T) {
	gen, err := New(config.SequenceConfig{Backend: config.SequenceBackendDB}, KindOrder, nil)
	require.NoError(t, err)
	assert.IsType(t, &DBGenerator{}, gen)

	_, err = New(config.SequenceConfig{Backend: config.SequenceBackendRedis}, KindOrder, nil)
	assert.Error(t, err)

	gen, err = New(config.SequenceConfig{Backend: config.SequenceBackendRedis}, KindTicket, &fakeCounters{})
	require.NoError(t, err)
	assert.IsType(t, &RedisGenerator{}, gen)
}
