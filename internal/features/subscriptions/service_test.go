package subscriptions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/db/memory"
)

func TestSubscribeAndList(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, 100, "alice", "bugis"))
	require.NoError(t, svc.Subscribe(ctx, 100, "alice", "Bedok"))
	// Повторная подписка идемпотентна.
	require.NoError(t, svc.Subscribe(ctx, 100, "alice", "Bugis"))

	zones, err := svc.List(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bedok", "Bugis"}, zones)
}

func TestSubscribeUnknownZone(t *testing.T) {
	svc := NewService(memory.New())

	err := svc.Subscribe(context.Background(), 100, "alice", "Narnia")
	assert.ErrorIs(t, err, common.ErrUnknownZone)
}

func TestUnsubscribe(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, 100, "alice", "Bugis"))
	require.NoError(t, svc.Unsubscribe(ctx, 100, "bugis"))

	zones, err := svc.List(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, zones)
}

func TestClear(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, 100, "alice", "Bugis"))
	require.NoError(t, svc.Subscribe(ctx, 100, "alice", "Bedok"))
	require.NoError(t, svc.Clear(ctx, 100))

	zones, err := svc.List(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, zones)
}
