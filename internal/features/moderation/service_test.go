package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/db"
	"parkwatch.sg/telegram-bot/internal/db/memory"
)

const adminID = int64(999)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	cfg := &config.Config{MaxWarnings: 3, AdminIDs: []int64{adminID}}
	return NewService(store, cfg), store
}

func seedUser(t *testing.T, store *memory.Store, userID int64) {
	t.Helper()
	require.NoError(t, store.EnsureUser(context.Background(), userID, "user"))
}

func TestCheckAutoFlagThreshold(t *testing.T) {
	tests := []struct {
		name     string
		pos, neg int
		flagged  bool
		want     bool
	}{
		{"below minimum votes", 0, 2, false, false},
		{"exactly 70 percent negative", 3, 7, false, false},
		{"above 70 percent negative", 1, 3, false, true},
		{"all negative at minimum", 0, 3, false, true},
		{"mostly positive", 5, 1, false, false},
		{"already flagged stays quiet", 0, 10, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			ctx := context.Background()
			sg := &db.Sighting{
				ID:               "s1",
				Zone:             "Bugis",
				ReportedAt:       time.Now().UTC(),
				ReporterID:       100,
				FeedbackPositive: tt.pos,
				FeedbackNegative: tt.neg,
				Flagged:          tt.flagged,
			}
			require.NoError(t, store.AddSighting(ctx, sg))

			raised, err := svc.CheckAutoFlag(ctx, sg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, raised)

			stored, err := store.GetSighting(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, tt.flagged || tt.want, stored.Flagged)
		})
	}
}

func TestWarnAccumulatesAndAutoBans(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedUser(t, store, 100)
	require.NoError(t, store.AddSubscription(ctx, 100, "Bugis"))

	for i := 1; i <= 2; i++ {
		warnings, banned, err := svc.Warn(ctx, adminID, 100, "spam")
		require.NoError(t, err)
		assert.Equal(t, i, warnings)
		assert.False(t, banned)
	}

	warnings, banned, err := svc.Warn(ctx, adminID, 100, "spam again")
	require.NoError(t, err)
	assert.Equal(t, 3, warnings)
	assert.True(t, banned)

	isBanned, err := svc.IsBanned(ctx, 100)
	require.NoError(t, err)
	assert.True(t, isBanned)

	// Бан вычистил подписки.
	zones, err := store.Subscriptions(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, zones)

	// Авто-бан оставил отдельную запись журнала с причиной.
	entries, err := svc.AuditLog(ctx, 10)
	require.NoError(t, err)
	var autoBans []*db.AdminAction
	for _, e := range entries {
		if e.Action == ActionAutoBan {
			autoBans = append(autoBans, e)
		}
	}
	require.Len(t, autoBans, 1)
	assert.Equal(t, "auto-ban: 3 warnings", autoBans[0].Detail)
}

func TestWarnUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Warn(context.Background(), adminID, 100, "spam")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestBanIsIdempotentAndUpdatesReason(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedUser(t, store, 100)

	require.NoError(t, svc.Ban(ctx, adminID, 100, "first"))
	require.NoError(t, svc.Ban(ctx, 555, 100, "second"))

	bans, err := svc.BannedList(ctx)
	require.NoError(t, err)
	require.Len(t, bans, 1)
	assert.Equal(t, int64(555), bans[0].BannedBy)
	assert.Equal(t, "second", bans[0].Reason)
}

func TestBanAdminImmune(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.Ban(ctx, adminID, adminID, "self")
	assert.ErrorIs(t, err, common.ErrAdminImmune)

	_, _, err = svc.Warn(ctx, adminID, adminID, "self")
	assert.ErrorIs(t, err, common.ErrAdminImmune)
}

func TestUnbanResetsWarnings(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedUser(t, store, 100)
	require.NoError(t, store.AddSubscription(ctx, 100, "Bugis"))

	_, _, err := svc.Warn(ctx, adminID, 100, "spam")
	require.NoError(t, err)
	require.NoError(t, svc.Ban(ctx, adminID, 100, "abuse"))

	require.NoError(t, svc.Unban(ctx, adminID, 100))

	isBanned, err := svc.IsBanned(ctx, 100)
	require.NoError(t, err)
	assert.False(t, isBanned)

	user, err := store.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, user.Warnings)

	// Подписки при разбане не возвращаются.
	zones, err := store.Subscriptions(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, zones)
}

func TestUnbanNotBanned(t *testing.T) {
	svc, store := newTestService(t)
	seedUser(t, store, 100)

	err := svc.Unban(context.Background(), adminID, 100)
	assert.ErrorIs(t, err, common.ErrNotBanned)
}

func TestRemoveSightingCascadesVotes(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	sg := &db.Sighting{ID: "s1", Zone: "Bugis", ReportedAt: time.Now().UTC(), ReporterID: 100}
	require.NoError(t, store.AddSighting(ctx, sg))
	_, err := store.ApplyFeedback(ctx, "s1", 200, db.VoteNegative)
	require.NoError(t, err)

	removed, err := svc.RemoveSighting(ctx, adminID, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", removed.ID)

	_, err = store.GetSighting(ctx, "s1")
	assert.ErrorIs(t, err, common.ErrSightingNotFound)
}

func TestReviewQueueOnlyFlagged(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, store.AddSighting(ctx, &db.Sighting{ID: "clean", Zone: "Bugis", ReportedAt: now, ReporterID: 1}))
	require.NoError(t, store.AddSighting(ctx, &db.Sighting{ID: "bad", Zone: "Bugis", ReportedAt: now, ReporterID: 2, Flagged: true}))

	queue, err := svc.ReviewQueue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "bad", queue[0].ID)
}
