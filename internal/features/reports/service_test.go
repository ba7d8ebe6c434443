package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/db/memory"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func testConfig() *config.Config {
	return &config.Config{
		MaxReportsPerHour:      3,
		DuplicateWindowMinutes: 5,
		DuplicateRadiusMeters:  200,
		SightingExpiryMinutes:  30,
		SightingRetentionDays:  30,
		FeedbackWindowHours:    24,
	}
}

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	return NewService(memory.New(), testConfig(), clock), clock
}

func ptr(v float64) *float64 { return &v }

func TestSubmitAcceptsAndSnapshotsBadge(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sg, err := svc.Submit(ctx, SubmitRequest{
		ReporterID:   100,
		ReporterName: "alice",
		Zone:         "Bugis",
		Description:  "  two wardens   near exit C ",
	})
	require.NoError(t, err)
	require.NotEmpty(t, sg.ID)
	assert.Equal(t, "Bugis", sg.Zone)
	assert.Equal(t, "two wardens near exit C", sg.Description)
	assert.Equal(t, BadgeNew, sg.ReporterBadge)
	assert.False(t, sg.HasGPS())
}

func TestSubmitRejectsUnknownZone(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), SubmitRequest{
		ReporterID: 100,
		Zone:       "Atlantis",
	})
	assert.ErrorIs(t, err, common.ErrUnknownZone)
}

func TestSubmitZoneIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t)

	sg, err := svc.Submit(context.Background(), SubmitRequest{
		ReporterID: 100,
		Zone:       "bugis",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bugis", sg.Zone)
}

func TestRateLimitRollingHour(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	// Зоны разные, чтобы не упереться в дедупликацию.
	zones := []string{"Bugis", "Bedok", "Yishun"}
	for _, z := range zones {
		_, err := svc.Submit(ctx, SubmitRequest{ReporterID: 100, Zone: z})
		require.NoError(t, err)
		clock.advance(10 * time.Minute)
	}

	// Четвёртый репорт в пределах часа отклоняется.
	_, err := svc.Submit(ctx, SubmitRequest{ReporterID: 100, Zone: "Orchard"})
	var rle *common.RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, 3, rle.Limit)
	// Старейший репорт был 30 минут назад: ждать ровно до его +1ч.
	assert.Equal(t, 30*time.Minute, rle.RetryAfter)

	// Другой пользователь не ограничен.
	_, err = svc.Submit(ctx, SubmitRequest{ReporterID: 200, Zone: "Orchard"})
	assert.NoError(t, err)

	// Когда старейший выпал из окна, репортёр снова может постить.
	clock.advance(31 * time.Minute)
	_, err = svc.Submit(ctx, SubmitRequest{ReporterID: 100, Zone: "Orchard"})
	assert.NoError(t, err)
}

func TestRateLimitRetryAfterFlooredAtOneMinute(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	zones := []string{"Bugis", "Bedok", "Yishun"}
	for _, z := range zones {
		_, err := svc.Submit(ctx, SubmitRequest{ReporterID: 100, Zone: z})
		require.NoError(t, err)
	}

	// Почти весь час прошёл: остаток меньше минуты поднимается до минуты.
	clock.advance(59*time.Minute + 30*time.Second)
	_, err := svc.Submit(ctx, SubmitRequest{ReporterID: 100, Zone: "Orchard"})
	var rle *common.RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, time.Minute, rle.RetryAfter)
}

func TestDuplicateGPSWithinRadius(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, SubmitRequest{
		ReporterID: 100, Zone: "Bugis", Lat: ptr(1.3009), Lng: ptr(103.8559),
	})
	require.NoError(t, err)

	// ~50 м севернее.
	_, err = svc.Submit(ctx, SubmitRequest{
		ReporterID: 200, Zone: "Bugis", Lat: ptr(1.30135), Lng: ptr(103.8559),
	})
	var dup *common.DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, first.ID, dup.MatchedID)
	assert.True(t, dup.GPSMatch)
	assert.Less(t, dup.Distance, 200.0)
}

func TestDuplicateGPSFarCandidateIsDistinctReport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitRequest{
		ReporterID: 100, Zone: "Bugis", Lat: ptr(1.3009), Lng: ptr(103.8559),
	})
	require.NoError(t, err)

	// ~1 км в сторону: та же зона, но другой пост — принимается.
	_, err = svc.Submit(ctx, SubmitRequest{
		ReporterID: 200, Zone: "Bugis", Lat: ptr(1.3100), Lng: ptr(103.8559),
	})
	assert.NoError(t, err)
}

func TestDuplicateZoneFallbackWithoutGPS(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, SubmitRequest{ReporterID: 100, Zone: "Bugis"})
	require.NoError(t, err)

	// Новый репорт с GPS, кандидат без — деградация до совпадения по зоне.
	_, err = svc.Submit(ctx, SubmitRequest{
		ReporterID: 200, Zone: "Bugis", Lat: ptr(1.3009), Lng: ptr(103.8559),
	})
	var dup *common.DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, first.ID, dup.MatchedID)
	assert.False(t, dup.GPSMatch)
}

func TestDuplicateWindowExpires(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitRequest{ReporterID: 100, Zone: "Bugis"})
	require.NoError(t, err)

	clock.advance(6 * time.Minute)
	_, err = svc.Submit(ctx, SubmitRequest{ReporterID: 200, Zone: "Bugis"})
	assert.NoError(t, err)
}

func TestRetentionSweep(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitRequest{ReporterID: 100, Zone: "Bugis"})
	require.NoError(t, err)
	clock.advance(time.Hour)
	fresh, err := svc.Submit(ctx, SubmitRequest{ReporterID: 100, Zone: "Bedok"})
	require.NoError(t, err)

	// Первый сайтинг уходит за горизонт, второй остаётся.
	clock.advance(30*24*time.Hour - 30*time.Minute)
	deleted, err := svc.RetentionSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	remaining, err := svc.History(ctx, 100, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID, remaining[0].ID)
}
