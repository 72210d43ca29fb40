// Package sequence hands out human readable, tenant scoped numbers such as
// ORD-000042. Numbers are unique per tenant and kind; gaps are allowed.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/pkg/config"
	"github.com/angelmondragon/tablepos-backend/pkg/redis"
)

// Kind selects the counter and the display format.
type Kind string

const (
	KindOrder  Kind = "order"
	KindTicket Kind = "ticket"
)

func (k Kind) format(n int64) string {
	switch k {
	case KindTicket:
		return fmt.Sprintf("KT-%06d", n)
	default:
		return fmt.Sprintf("ORD-%06d", n)
	}
}

// Generator returns the next number for a tenant. tx is the caller's open
// transaction; backends that do not need it ignore it.
type Generator interface {
	Next(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (string, error)
}

// New picks the backend named in cfg.
func New(cfg config.SequenceConfig, kind Kind, counters redis.CounterStore) (Generator, error) {
	if cfg.UsesDB() {
		return NewDBGenerator(kind), nil
	}
	if counters == nil {
		return nil, fmt.Errorf("redis counter store required for %s sequence", kind)
	}
	return NewRedisGenerator(kind, counters), nil
}

// RedisGenerator uses INCR on tp:counter:<kind>:<tenant>. A number taken by a
// rolled back transaction is not reused.
type RedisGenerator struct {
	kind  Kind
	store redis.CounterStore
}

func NewRedisGenerator(kind Kind, store redis.CounterStore) *RedisGenerator {
	return &RedisGenerator{kind: kind, store: store}
}

func (g *RedisGenerator) Next(ctx context.Context, _ *gorm.DB, tenantID uuid.UUID) (string, error) {
	n, err := g.store.Incr(ctx, g.store.CounterKey(string(g.kind), tenantID.String()))
	if err != nil {
		return "", fmt.Errorf("increment %s sequence: %w", g.kind, err)
	}
	return g.kind.format(n), nil
}

// DBGenerator bumps a tenant_sequences row inside the caller's transaction,
// so numbers roll back with the order.
type DBGenerator struct {
	kind Kind
	now  func() time.Time
}

func NewDBGenerator(kind Kind) *DBGenerator {
	return &DBGenerator{kind: kind, now: time.Now}
}

const upsertSequence = `INSERT INTO tenant_sequences (tenant_id, name, value, updated_at)
VALUES (?, ?, 1, ?)
ON CONFLICT (tenant_id, name) DO UPDATE SET value = tenant_sequences.value + 1, updated_at = excluded.updated_at
RETURNING value`

func (g *DBGenerator) Next(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (string, error) {
	if tx == nil {
		return "", gorm.ErrInvalidTransaction
	}
	var value int64
	if err := tx.WithContext(ctx).Raw(upsertSequence, tenantID, string(g.kind), g.now().UTC()).Scan(&value).Error; err != nil {
		return "", fmt.Errorf("increment %s sequence: %w", g.kind, err)
	}
	return g.kind.format(value), nil
}
