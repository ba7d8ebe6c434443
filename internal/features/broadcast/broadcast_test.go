package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkwatch.sg/telegram-bot/internal/db/memory"
)

// fakeNotifier возвращает заранее заданный исход для каждого получателя.
type fakeNotifier struct {
	mu       sync.Mutex
	outcomes map[int64]error
	sentTo   []int64
}

func (n *fakeNotifier) Send(_ context.Context, userID int64, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sentTo = append(n.sentTo, userID)
	return n.outcomes[userID]
}

func subscribe(t *testing.T, store *memory.Store, userID int64, zones ...string) {
	t.Helper()
	for _, z := range zones {
		require.NoError(t, store.AddSubscription(context.Background(), userID, z))
	}
}

func TestBroadcastCountsOutcomes(t *testing.T) {
	store := memory.New()
	subscribe(t, store, 1, "Bugis")
	subscribe(t, store, 2, "Bugis")
	subscribe(t, store, 3, "Bugis")

	notifier := &fakeNotifier{outcomes: map[int64]error{
		2: errors.New("timeout"),
		3: ErrUnreachable,
	}}
	d := NewDispatcher(store, notifier, 4)

	res, err := d.Broadcast(context.Background(), "Bugis", "alert", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, []int64{3}, res.Unreachable)
}

func TestBroadcastExcludesReporter(t *testing.T) {
	store := memory.New()
	subscribe(t, store, 1, "Bugis")
	subscribe(t, store, 2, "Bugis")

	notifier := &fakeNotifier{}
	d := NewDispatcher(store, notifier, 4)

	res, err := d.Broadcast(context.Background(), "Bugis", "alert", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, []int64{2}, notifier.sentTo)
}

func TestBroadcastPrunesAllSubscriptionsOfUnreachable(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	subscribe(t, store, 1, "Bugis", "Bedok", "Yishun")
	subscribe(t, store, 2, "Bugis")

	notifier := &fakeNotifier{outcomes: map[int64]error{1: ErrUnreachable}}
	d := NewDispatcher(store, notifier, 4)

	res, err := d.Broadcast(ctx, "Bugis", "alert", 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, res.Unreachable)

	// Чистятся подписки на все зоны, не только на ту, куда шёл алерт.
	zones, err := store.Subscriptions(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, zones)

	zones, err = store.Subscriptions(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bugis"}, zones)
}

func TestBroadcastTransientFailureKeepsSubscription(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	subscribe(t, store, 1, "Bugis")

	notifier := &fakeNotifier{outcomes: map[int64]error{1: errors.New("flood wait")}}
	d := NewDispatcher(store, notifier, 4)

	res, err := d.Broadcast(ctx, "Bugis", "alert", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, res.Unreachable)

	zones, err := store.Subscriptions(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bugis"}, zones)
}

// pruneFailStore ломает очистку подписок, остальное делегирует памяти.
type pruneFailStore struct {
	*memory.Store
}

func (s *pruneFailStore) ClearSubscriptions(context.Context, int64) error {
	return errors.New("storage down")
}

func TestBroadcastPruneFailureDoesNotAbort(t *testing.T) {
	inner := memory.New()
	store := &pruneFailStore{Store: inner}
	ctx := context.Background()
	subscribe(t, inner, 1, "Bugis")
	subscribe(t, inner, 2, "Bugis")

	notifier := &fakeNotifier{outcomes: map[int64]error{1: ErrUnreachable}}
	d := NewDispatcher(store, notifier, 4)

	res, err := d.Broadcast(ctx, "Bugis", "alert", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, []int64{1}, res.Unreachable)
}

func TestBroadcastEmptyZone(t *testing.T) {
	d := NewDispatcher(memory.New(), &fakeNotifier{}, 4)

	res, err := d.Broadcast(context.Background(), "Bugis", "alert", 0)
	require.NoError(t, err)
	assert.Zero(t, res.Sent)
	assert.Zero(t, res.Failed)
}
