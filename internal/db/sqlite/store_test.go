package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/db"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "parkwatch.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	// Без простаивающих соединений каждый запрос едет по свежему
	// соединению из пула — настройки из DSN обязаны действовать на всех.
	s.db.SetMaxIdleConns(0)
	return s
}

func addSighting(t *testing.T, s *Store, id, zone string, reportedAt time.Time) {
	t.Helper()
	err := s.AddSighting(context.Background(), &db.Sighting{
		ID:           id,
		Zone:         zone,
		ReportedAt:   reportedAt,
		ReporterID:   100,
		ReporterName: "reporter",
	})
	require.NoError(t, err)
}

func countFeedback(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM feedback`).Scan(&n))
	return n
}

// Внешние ключи должны быть включены на каждом соединении пула:
// после удаления сайтинга (точечного или ретеншн-очисткой) голоса
// не остаются сиротами.
func TestForeignKeysActiveOnEveryConnection(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.EnsureUser(ctx, 100, "reporter"))
	require.NoError(t, s.EnsureUser(ctx, 200, "voter"))

	addSighting(t, s, "sg-old", "tampines", now.Add(-40*24*time.Hour))
	addSighting(t, s, "sg-new", "tampines", now)

	_, err := s.ApplyFeedback(ctx, "sg-old", 200, db.VotePositive)
	require.NoError(t, err)
	_, err = s.ApplyFeedback(ctx, "sg-new", 200, db.VoteNegative)
	require.NoError(t, err)
	require.Equal(t, 2, countFeedback(t, s))

	deleted, err := s.DeleteSightingsBefore(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 1, countFeedback(t, s), "каскад не удалил голоса старого сайтинга")

	sg, err := s.DeleteSighting(ctx, "sg-new")
	require.NoError(t, err)
	assert.Equal(t, "sg-new", sg.ID)
	assert.Equal(t, 0, countFeedback(t, s), "каскад не удалил голоса при точечном удалении")
}

func TestDeleteSightingMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.DeleteSighting(context.Background(), "no-such-id")
	assert.True(t, errors.Is(err, common.ErrSightingNotFound))
}
