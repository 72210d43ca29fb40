package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	held    map[string]time.Duration
	failSet error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{held: map[string]time.Duration{}}
}

func (s *recordingStore) Get(_ context.Context, key string) (string, error) {
	if _, ok := s.held[key]; ok {
		return "1", nil
	}
	return "", nil
}

func (s *recordingStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	if s.failSet != nil {
		return false, s.failSet
	}
	if _, ok := s.held[key]; ok {
		return false, nil
	}
	s.held[key] = ttl
	return true, nil
}

func (s *recordingStore) IdempotencyKey(scope, id string) string {
	return "tp:idempotency:" + scope + ":" + id
}

func (s *recordingStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.held, k)
	}
	return nil
}

func TestManagerMarksOncePerConsumer(t *testing.T) {
	store := newRecordingStore()
	manager, err := NewManager(store, 24*time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	eventID := uuid.New()

	seen, err := manager.CheckAndMarkProcessed(ctx, "outbox-relay", eventID)
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, 24*time.Hour, store.held["tp:idempotency:evt:processed:outbox-relay:"+eventID.String()])

	seen, err = manager.CheckAndMarkProcessed(ctx, "outbox-relay", eventID)
	require.NoError(t, err)
	assert.True(t, seen)

	// another consumer tracks its own marks
	seen, err = manager.CheckAndMarkProcessed(ctx, "kitchen-display", eventID)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestManagerDeleteAllowsRetry(t *testing.T) {
	store := newRecordingStore()
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	eventID := uuid.New()

	_, err = manager.CheckAndMarkProcessed(ctx, "outbox-relay", eventID)
	require.NoError(t, err)
	require.NoError(t, manager.Delete(ctx, "outbox-relay", eventID))

	seen, err := manager.CheckAndMarkProcessed(ctx, "outbox-relay", eventID)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestManagerValidation(t *testing.T) {
	_, err := NewManager(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewManager(newRecordingStore(), -time.Second)
	assert.Error(t, err)

	manager, err := NewManager(newRecordingStore(), time.Hour)
	require.NoError(t, err)
	_, err = manager.CheckAndMarkProcessed(context.Background(), "", uuid.New())
	assert.Error(t, err)
	_, err = manager.CheckAndMarkProcessed(context.Background(), "outbox-relay", uuid.Nil)
	assert.Error(t, err)
}

func TestManagerPropagatesStoreErrors(t *testing.T) {
	store := newRecordingStore()
	store.failSet = errors.New("redis down")
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)
	_, err = manager.CheckAndMarkProcessed(context.Background(), "outbox-relay", uuid.New())
	assert.EqualError(t, err, "redis down")
}
