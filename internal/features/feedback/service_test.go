package feedback

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

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestService(t *testing.T) (*Service, *memory.Store, *fakeClock) {
	t.Helper()
	store := memory.New()
	clock := &fakeClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	cfg := &config.Config{FeedbackWindowHours: 24}
	return NewService(store, cfg, clock), store, clock
}

func seedSighting(t *testing.T, store *memory.Store, clock *fakeClock, reporterID int64) *db.Sighting {
	t.Helper()
	sg := &db.Sighting{
		ID:         "sighting-1",
		Zone:       "Bugis",
		ReportedAt: clock.now,
		ReporterID: reporterID,
	}
	require.NoError(t, store.AddSighting(context.Background(), sg))
	return sg
}

func TestApplyCountsVote(t *testing.T) {
	svc, store, clock := newTestService(t)
	seedSighting(t, store, clock, 100)

	updated, err := svc.Apply(context.Background(), "sighting-1", 200, db.VotePositive)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.FeedbackPositive)
	assert.Equal(t, 0, updated.FeedbackNegative)
}

func TestApplyPreconditionOrder(t *testing.T) {
	svc, store, clock := newTestService(t)
	seedSighting(t, store, clock, 100)

	_, err := svc.Apply(context.Background(), "missing", 200, db.VotePositive)
	assert.ErrorIs(t, err, common.ErrSightingNotFound)

	_, err = svc.Apply(context.Background(), "sighting-1", 100, db.VotePositive)
	assert.ErrorIs(t, err, common.ErrSelfVote)

	clock.now = clock.now.Add(25 * time.Hour)
	_, err = svc.Apply(context.Background(), "sighting-1", 200, db.VotePositive)
	assert.ErrorIs(t, err, common.ErrFeedbackClosed)
}

func TestApplySelfVoteBeatsClosedWindow(t *testing.T) {
	svc, store, clock := newTestService(t)
	seedSighting(t, store, clock, 100)

	// У закрытого сайтинга свой голос всё равно отклоняется как SelfVote.
	clock.now = clock.now.Add(25 * time.Hour)
	_, err := svc.Apply(context.Background(), "sighting-1", 100, db.VotePositive)
	assert.ErrorIs(t, err, common.ErrSelfVote)
}

func TestApplyRejectsRepeatedSameVote(t *testing.T) {
	svc, store, clock := newTestService(t)
	seedSighting(t, store, clock, 100)
	ctx := context.Background()

	_, err := svc.Apply(ctx, "sighting-1", 200, db.VotePositive)
	require.NoError(t, err)

	_, err = svc.Apply(ctx, "sighting-1", 200, db.VotePositive)
	assert.ErrorIs(t, err, common.ErrDuplicateVote)
}

func TestApplyVoteChangeReversesDelta(t *testing.T) {
	svc, store, clock := newTestService(t)
	seedSighting(t, store, clock, 100)
	ctx := context.Background()

	_, err := svc.Apply(ctx, "sighting-1", 200, db.VotePositive)
	require.NoError(t, err)

	updated, err := svc.Apply(ctx, "sighting-1", 200, db.VoteNegative)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.FeedbackPositive)
	assert.Equal(t, 1, updated.FeedbackNegative)

	// Счётчики равны числу голосов каждого вида: один голосующий —
	// один голос, сколько бы раз он ни передумывал.
	updated, err = svc.Apply(ctx, "sighting-1", 200, db.VotePositive)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.FeedbackPositive)
	assert.Equal(t, 0, updated.FeedbackNegative)
}

func TestApplyAtWindowBoundary(t *testing.T) {
	svc, store, clock := newTestService(t)
	seedSighting(t, store, clock, 100)

	// Ровно на границе окна голос ещё принимается.
	clock.now = clock.now.Add(24 * time.Hour)
	_, err := svc.Apply(context.Background(), "sighting-1", 200, db.VotePositive)
	assert.NoError(t, err)
}

func TestScoreAggregatesAcrossSightings(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()

	for i, votes := range [][2]int{{2, 1}, {1, 0}} {
		sg := &db.Sighting{
			ID:               string(rune('a' + i)),
			Zone:             "Bugis",
			ReportedAt:       clock.now,
			ReporterID:       100,
			FeedbackPositive: votes[0],
			FeedbackNegative: votes[1],
		}
		require.NoError(t, store.AddSighting(ctx, sg))
	}

	accuracy, total, err := svc.Score(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.InDelta(t, 0.75, accuracy, 1e-9)
}

func TestScoreZeroFeedbackIsZeroNotPerfect(t *testing.T) {
	svc, store, clock := newTestService(t)
	seedSighting(t, store, clock, 100)

	accuracy, total, err := svc.Score(context.Background(), 100)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, accuracy)
}

func TestIndicatorThresholds(t *testing.T) {
	tests := []struct {
		name     string
		accuracy float64
		total    int
		want     string
	}{
		{"below minimum votes", 1.0, 2, ""},
		{"reliable at 0.8", 0.8, 5, IndicatorReliable},
		{"mixed at 0.79", 0.79, 5, IndicatorMixed},
		{"mixed at 0.5", 0.5, 4, IndicatorMixed},
		{"low below 0.5", 0.49, 10, IndicatorLow},
		{"exactly three votes", 0.9, 3, IndicatorReliable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Indicator(tt.accuracy, tt.total))
		})
	}
}
