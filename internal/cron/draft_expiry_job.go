package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/tablepos-backend/internal/orders"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
	"github.com/angelmondragon/tablepos-backend/pkg/metrics"
	"github.com/angelmondragon/tablepos-backend/pkg/outbox"
	"github.com/angelmondragon/tablepos-backend/pkg/outbox/payloads"
)

const (
	defaultDraftTTL       = 12 * time.Hour
	defaultDraftBatchSize = 100
	draftExpiryReason     = "draft expired"
)

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DraftExpiryJobParams configure the abandoned draft sweeper.
type DraftExpiryJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Orders    orders.Repository
	Outbox    outboxEmitter
	Metrics   *metrics.OrderMetrics
	TTL       time.Duration
	BatchSize int
}

// NewDraftExpiryJob builds the job that cancels drafts nobody confirmed.
func NewDraftExpiryJob(params DraftExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultDraftBatchSize
	}
	return &draftExpiryJob{
		logg:    params.Logger,
		db:      params.DB,
		orders:  params.Orders,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		ttl:     ttl,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type draftExpiryJob struct {
	logg    *logger.Logger
	db      txRunner
	orders  orders.Repository
	outbox  outboxEmitter
	metrics *metrics.OrderMetrics
	ttl     time.Duration
	batch   int
	now     func() time.Time
}

func (j *draftExpiryJob) Name() string { return "draft-expiry" }

// Run cancels one batch of stale drafts. A failure on one order does not stop
// the others; all failures are returned together.
func (j *draftExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	drafts, err := j.orders.FindDraftsBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query stale drafts: %w", err)
	}

	var errs error
	expired, skipped := 0, 0
	for _, draft := range drafts {
		ok, err := j.expire(ctx, draft)
		switch {
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", draft.ID, err))
		case ok:
			expired++
		default:
			skipped++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"found":   len(drafts),
		"expired": expired,
		"skipped": skipped,
	})
	j.logg.Info(logCtx, "draft expiry loop complete")
	return errs
}

// expire reports false when the order left draft or changed underneath us.
func (j *draftExpiryJob) expire(ctx context.Context, draft models.Order) (bool, error) {
	expired := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.orders.WithTx(tx)
		current, err := repo.FindOrder(ctx, draft.ID)
		if err != nil {
			return err
		}
		if current.Status != enums.OrderStatusDraft {
			return nil
		}

		now := j.now().UTC()
		updates := map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}
		if err := repo.UpdateOrderCAS(ctx, current.TenantID, current.ID, current.Version, updates); err != nil {
			if errors.Is(err, orders.ErrStaleVersion) {
				return nil
			}
			return err
		}

		if err := j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   current.ID,
			TenantID:      current.TenantID,
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    current.ID,
				TenantID:   current.TenantID,
				FromStatus: enums.OrderStatusDraft,
				ToStatus:   enums.OrderStatusCancelled,
				Reason:     draftExpiryReason,
				ChangedAt:  now,
			},
			Version: 1,
		}); err != nil {
			return err
		}
		if err := j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderExpired,
			AggregateType: enums.AggregateOrder,
			AggregateID:   current.ID,
			TenantID:      current.TenantID,
			OccurredAt:    now,
			Data: payloads.OrderExpiredEvent{
				OrderID:   current.ID,
				TenantID:  current.TenantID,
				ExpiredAt: now,
			},
			Version: 1,
		}); err != nil {
			return err
		}
		expired = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if expired {
		j.metrics.Transition(string(enums.OrderStatusDraft), string(enums.OrderStatusCancelled))
	}
	return expired, nil
}
