// store.go реализует db.Store поверх pgxpool.
// Каждый метод выполняет один SQL-запрос (или одну транзакцию)
// и возвращает результат или обёрнутую ошибку.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/db"
)

// Store — реализация db.Store для PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore создаёт хранилище поверх готового пула.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() {
	s.pool.Close()
}

// --- Пользователи ---

func (s *Store) EnsureUser(ctx context.Context, userID int64, username string) error {
	query := `
		INSERT INTO users (telegram_id, username)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (telegram_id) DO UPDATE SET username = EXCLUDED.username
	`
	if _, err := s.pool.Exec(ctx, query, userID, username); err != nil {
		return fmt.Errorf("ошибка создания/обновления пользователя: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID int64) (*db.User, error) {
	query := `
		SELECT telegram_id, COALESCE(username, ''), report_count, warnings, created_at
		FROM users WHERE telegram_id = $1
	`
	var u db.User
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&u.ID, &u.Username, &u.ReportCount, &u.Warnings, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения пользователя (user_id=%d): %w", userID, err)
	}
	return &u, nil
}

func (s *Store) IncrementReportCount(ctx context.Context, userID int64) (int, error) {
	query := `
		UPDATE users SET report_count = report_count + 1
		WHERE telegram_id = $1
		RETURNING report_count
	`
	var count int
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка инкремента report_count: %w", err)
	}
	return count, nil
}

// --- Подписки ---

func (s *Store) Subscriptions(ctx context.Context, userID int64) ([]string, error) {
	query := `SELECT zone_name FROM subscriptions WHERE telegram_id = $1 ORDER BY zone_name`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения подписок: %w", err)
	}
	defer rows.Close()

	var zones []string
	for rows.Next() {
		var z string
		if err := rows.Scan(&z); err != nil {
			return nil, fmt.Errorf("ошибка сканирования подписки: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (s *Store) AddSubscription(ctx context.Context, userID int64, zone string) error {
	query := `
		INSERT INTO subscriptions (telegram_id, zone_name)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query, userID, zone); err != nil {
		return fmt.Errorf("ошибка подписки: %w", err)
	}
	return nil
}

func (s *Store) RemoveSubscription(ctx context.Context, userID int64, zone string) error {
	query := `DELETE FROM subscriptions WHERE telegram_id = $1 AND zone_name = $2`
	if _, err := s.pool.Exec(ctx, query, userID, zone); err != nil {
		return fmt.Errorf("ошибка отписки: %w", err)
	}
	return nil
}

func (s *Store) ClearSubscriptions(ctx context.Context, userID int64) error {
	query := `DELETE FROM subscriptions WHERE telegram_id = $1`
	if _, err := s.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("ошибка очистки подписок: %w", err)
	}
	return nil
}

func (s *Store) ZoneSubscribers(ctx context.Context, zone string) ([]int64, error) {
	query := `SELECT telegram_id FROM subscriptions WHERE zone_name = $1`
	rows, err := s.pool.Query(ctx, query, zone)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения подписчиков зоны: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования подписчика: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- Сайтинги ---

const sightingColumns = `id, zone, COALESCE(description, ''), reported_at, reporter_id,
	COALESCE(reporter_name, ''), COALESCE(reporter_badge, ''), lat, lng,
	feedback_positive, feedback_negative, flagged`

func scanSighting(row pgx.Row) (*db.Sighting, error) {
	var sg db.Sighting
	err := row.Scan(
		&sg.ID, &sg.Zone, &sg.Description, &sg.ReportedAt, &sg.ReporterID,
		&sg.ReporterName, &sg.ReporterBadge, &sg.Lat, &sg.Lng,
		&sg.FeedbackPositive, &sg.FeedbackNegative, &sg.Flagged,
	)
	if err != nil {
		return nil, err
	}
	return &sg, nil
}

func (s *Store) AddSighting(ctx context.Context, sg *db.Sighting) error {
	query := `
		INSERT INTO sightings (id, zone, description, reported_at, reporter_id,
			reporter_name, reporter_badge, lat, lng, feedback_positive, feedback_negative, flagged)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, 0, 0, FALSE)
	`
	_, err := s.pool.Exec(ctx, query,
		sg.ID, sg.Zone, sg.Description, sg.ReportedAt.UTC(), sg.ReporterID,
		sg.ReporterName, sg.ReporterBadge, sg.Lat, sg.Lng,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения сайтинга: %w", err)
	}
	return nil
}

func (s *Store) GetSighting(ctx context.Context, id string) (*db.Sighting, error) {
	query := `SELECT ` + sightingColumns + ` FROM sightings WHERE id = $1`
	sg, err := scanSighting(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrSightingNotFound
		}
		return nil, fmt.Errorf("ошибка чтения сайтинга (id=%s): %w", id, err)
	}
	return sg, nil
}

func (s *Store) SightingsInZoneSince(ctx context.Context, zone string, cutoff time.Time) ([]*db.Sighting, error) {
	query := `
		SELECT ` + sightingColumns + `
		FROM sightings
		WHERE zone = $1 AND reported_at > $2
		ORDER BY reported_at DESC
	`
	return s.querySightings(ctx, query, zone, cutoff.UTC())
}

func (s *Store) SightingsInZonesSince(ctx context.Context, zones []string, cutoff time.Time) ([]*db.Sighting, error) {
	if len(zones) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + sightingColumns + `
		FROM sightings
		WHERE zone = ANY($1) AND reported_at > $2
		ORDER BY reported_at DESC
	`
	return s.querySightings(ctx, query, zones, cutoff.UTC())
}

func (s *Store) CountReportsSince(ctx context.Context, reporterID int64, cutoff time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM sightings WHERE reporter_id = $1 AND reported_at > $2`
	var count int
	if err := s.pool.QueryRow(ctx, query, reporterID, cutoff.UTC()).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта репортов: %w", err)
	}
	return count, nil
}

func (s *Store) OldestReportSince(ctx context.Context, reporterID int64, cutoff time.Time) (*time.Time, error) {
	query := `SELECT MIN(reported_at) FROM sightings WHERE reporter_id = $1 AND reported_at > $2`
	var oldest *time.Time
	if err := s.pool.QueryRow(ctx, query, reporterID, cutoff.UTC()).Scan(&oldest); err != nil {
		return nil, fmt.Errorf("ошибка поиска старейшего репорта: %w", err)
	}
	return oldest, nil
}

func (s *Store) RecentSightingsByReporter(ctx context.Context, reporterID int64, limit int) ([]*db.Sighting, error) {
	query := `
		SELECT ` + sightingColumns + `
		FROM sightings
		WHERE reporter_id = $1
		ORDER BY reported_at DESC
		LIMIT $2
	`
	return s.querySightings(ctx, query, reporterID, limit)
}

func (s *Store) DeleteSighting(ctx context.Context, id string) (*db.Sighting, error) {
	// Голоса удалит каскад по внешнему ключу.
	query := `
		DELETE FROM sightings WHERE id = $1
		RETURNING ` + sightingColumns
	sg, err := scanSighting(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrSightingNotFound
		}
		return nil, fmt.Errorf("ошибка удаления сайтинга (id=%s): %w", id, err)
	}
	return sg, nil
}

func (s *Store) DeleteSightingsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sightings WHERE reported_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("ошибка ретеншн-очистки: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) FlaggedSightings(ctx context.Context, limit int) ([]*db.Sighting, error) {
	query := `
		SELECT ` + sightingColumns + `
		FROM sightings
		WHERE flagged
		ORDER BY reported_at DESC
		LIMIT $1
	`
	return s.querySightings(ctx, query, limit)
}

func (s *Store) querySightings(ctx context.Context, query string, args ...any) ([]*db.Sighting, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса сайтингов: %w", err)
	}
	defer rows.Close()

	var out []*db.Sighting
	for rows.Next() {
		sg, err := scanSighting(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования сайтинга: %w", err)
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

// --- Фидбек ---

// ApplyFeedback выполняет весь цикл голосования в одной транзакции.
// Первая операция — блокировка строки сайтинга (FOR UPDATE): она
// сериализует конкурентные голоса по одному сайтингу, не задевая
// голоса по другим сайтингам.
func (s *Store) ApplyFeedback(ctx context.Context, sightingID string, voterID int64, vote db.Vote) (*db.Sighting, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия транзакции фидбека: %w", err)
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx, `SELECT id FROM sightings WHERE id = $1 FOR UPDATE`, sightingID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrSightingNotFound
		}
		return nil, fmt.Errorf("ошибка блокировки сайтинга: %w", err)
	}

	var previous *string
	err = tx.QueryRow(ctx,
		`SELECT vote FROM feedback WHERE sighting_id = $1 AND user_id = $2`,
		sightingID, voterID,
	).Scan(&previous)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ошибка чтения предыдущего голоса: %w", err)
	}

	if previous != nil && db.Vote(*previous) == vote {
		return nil, common.ErrDuplicateVote
	}

	// Знаковые дельты: сначала откатываем старый голос, потом считаем новый.
	posDelta, negDelta := 0, 0
	if previous != nil {
		switch db.Vote(*previous) {
		case db.VotePositive:
			posDelta--
		case db.VoteNegative:
			negDelta--
		}
	}
	if vote == db.VotePositive {
		posDelta++
	} else {
		negDelta++
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO feedback (sighting_id, user_id, vote)
		VALUES ($1, $2, $3)
		ON CONFLICT (sighting_id, user_id) DO UPDATE SET vote = EXCLUDED.vote
	`, sightingID, voterID, string(vote))
	if err != nil {
		return nil, fmt.Errorf("ошибка upsert голоса: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE sightings
		SET feedback_positive = feedback_positive + $1,
		    feedback_negative = feedback_negative + $2
		WHERE id = $3
	`, posDelta, negDelta, sightingID)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления счётчиков: %w", err)
	}

	sg, err := scanSighting(tx.QueryRow(ctx,
		`SELECT `+sightingColumns+` FROM sightings WHERE id = $1`, sightingID))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения обновлённого сайтинга: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита фидбека: %w", err)
	}
	return sg, nil
}

func (s *Store) FeedbackTotals(ctx context.Context, reporterID int64) (int, int, error) {
	query := `
		SELECT COALESCE(SUM(feedback_positive), 0), COALESCE(SUM(feedback_negative), 0)
		FROM sightings WHERE reporter_id = $1
	`
	var pos, neg int
	if err := s.pool.QueryRow(ctx, query, reporterID).Scan(&pos, &neg); err != nil {
		return 0, 0, fmt.Errorf("ошибка агрегации фидбека: %w", err)
	}
	return pos, neg, nil
}

func (s *Store) FlagSighting(ctx context.Context, id string) error {
	query := `UPDATE sightings SET flagged = TRUE WHERE id = $1`
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("ошибка установки флага: %w", err)
	}
	return nil
}

// --- Модерация ---

// BanUser банит и чистит подписки одной транзакцией:
// забаненный пользователь не должен держать подписки ни в какой момент.
func (s *Store) BanUser(ctx context.Context, userID, bannedBy int64, reason string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка открытия транзакции бана: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO banned_users (telegram_id, banned_by, reason)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (telegram_id) DO UPDATE
		SET banned_by = EXCLUDED.banned_by, reason = EXCLUDED.reason
	`, userID, bannedBy, reason)
	if err != nil {
		return fmt.Errorf("ошибка записи бана: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM subscriptions WHERE telegram_id = $1`, userID); err != nil {
		return fmt.Errorf("ошибка очистки подписок при бане: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка коммита бана: %w", err)
	}
	return nil
}

func (s *Store) UnbanUser(ctx context.Context, userID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM banned_users WHERE telegram_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("ошибка снятия бана: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) IsBanned(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM banned_users WHERE telegram_id = $1)`
	var banned bool
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&banned); err != nil {
		return false, fmt.Errorf("ошибка проверки бана: %w", err)
	}
	return banned, nil
}

func (s *Store) BannedUsers(ctx context.Context) ([]*db.Ban, error) {
	query := `
		SELECT telegram_id, banned_by, COALESCE(reason, ''), banned_at
		FROM banned_users ORDER BY banned_at DESC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения банлиста: %w", err)
	}
	defer rows.Close()

	var out []*db.Ban
	for rows.Next() {
		var b db.Ban
		if err := rows.Scan(&b.UserID, &b.BannedBy, &b.Reason, &b.BannedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования бана: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (s *Store) IncrementWarnings(ctx context.Context, userID int64) (int, error) {
	query := `
		UPDATE users SET warnings = warnings + 1
		WHERE telegram_id = $1
		RETURNING warnings
	`
	var count int
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка инкремента предупреждений: %w", err)
	}
	return count, nil
}

func (s *Store) ResetWarnings(ctx context.Context, userID int64) error {
	query := `UPDATE users SET warnings = 0 WHERE telegram_id = $1`
	if _, err := s.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("ошибка сброса предупреждений: %w", err)
	}
	return nil
}

// --- Журнал админ-действий ---

func (s *Store) LogAdminAction(ctx context.Context, adminID int64, action, target, detail string) error {
	query := `
		INSERT INTO admin_actions (admin_id, action, target, detail)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
	`
	if _, err := s.pool.Exec(ctx, query, adminID, action, target, detail); err != nil {
		return fmt.Errorf("ошибка записи в журнал: %w", err)
	}
	return nil
}

func (s *Store) AdminLog(ctx context.Context, limit int) ([]*db.AdminAction, error) {
	query := `
		SELECT id, admin_id, action, COALESCE(target, ''), COALESCE(detail, ''), created_at
		FROM admin_actions
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	defer rows.Close()

	var out []*db.AdminAction
	for rows.Next() {
		var a db.AdminAction
		if err := rows.Scan(&a.ID, &a.AdminID, &a.Action, &a.Target, &a.Detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования журнала: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// --- Статистика ---

func (s *Store) GlobalStats(ctx context.Context, now time.Time) (*db.GlobalStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM sightings),
			(SELECT COUNT(*) FROM sightings WHERE reported_at > $1),
			(SELECT COUNT(*) FROM subscriptions),
			(SELECT COUNT(DISTINCT telegram_id) FROM subscriptions),
			(SELECT COALESCE(SUM(feedback_positive), 0) FROM sightings),
			(SELECT COALESCE(SUM(feedback_negative), 0) FROM sightings)
	`
	var st db.GlobalStats
	err := s.pool.QueryRow(ctx, query, now.UTC().Add(-24*time.Hour)).Scan(
		&st.TotalUsers, &st.TotalSightings, &st.Sightings24h,
		&st.ActiveSubscriptions, &st.UniqueSubscribers,
		&st.FeedbackPositive, &st.FeedbackNegative,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения глобальной статистики: %w", err)
	}
	return &st, nil
}

func (s *Store) ZoneStats(ctx context.Context, zone string, now time.Time) (*db.ZoneStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM subscriptions WHERE zone_name = $1),
			(SELECT COUNT(*) FROM sightings WHERE zone = $1 AND reported_at > $2),
			(SELECT COUNT(*) FROM sightings WHERE zone = $1 AND reported_at > $3),
			(SELECT COUNT(*) FROM sightings WHERE zone = $1)
	`
	var st db.ZoneStats
	err := s.pool.QueryRow(ctx, query, zone,
		now.UTC().Add(-24*time.Hour), now.UTC().Add(-7*24*time.Hour),
	).Scan(&st.Subscribers, &st.Sightings24h, &st.Sightings7d, &st.SightingsAll)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения статистики зоны: %w", err)
	}
	return &st, nil
}
