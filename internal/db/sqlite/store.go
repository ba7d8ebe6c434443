// Package sqlite — дев-реализация db.Store поверх встроенного SQLite
// (чистый Go-драйвер modernc.org/sqlite, без cgo). Контракт операций
// и транзакций идентичен postgres-реализации; обе стороны ходят только
// через интерфейс db.Store.
//
// Время хранится как Unix-секунды (INTEGER): SQLite не имеет
// нативного типа времени.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/db"
)

// Store — реализация db.Store для SQLite.
type Store struct {
	db *sql.DB
}

// Open открывает (или создаёт) файл базы и применяет схему.
// PRAGMA передаются в DSN: они действуют на соединение, а database/sql
// держит пул, поэтому разовый Exec настроил бы только одно соединение
// из пула (в частности foreign_keys остался бы выключен на остальных,
// и каскадное удаление голосов не срабатывало бы).
func Open(path string) (*Store, error) {
	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия SQLite: %w", err)
	}

	if err := ensureSchema(sqldb); err != nil {
		sqldb.Close()
		return nil, err
	}

	log.WithField("path", path).Info("SQLite открыт (дев-режим)")
	return &Store{db: sqldb}, nil
}

func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		log.WithError(err).Warn("Ошибка закрытия SQLite")
	}
}

func ensureSchema(sqldb *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			telegram_id INTEGER PRIMARY KEY,
			username TEXT,
			report_count INTEGER DEFAULT 0,
			warnings INTEGER DEFAULT 0,
			created_at INTEGER DEFAULT (strftime('%s','now'))
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			telegram_id INTEGER NOT NULL,
			zone_name TEXT NOT NULL,
			created_at INTEGER DEFAULT (strftime('%s','now')),
			PRIMARY KEY (telegram_id, zone_name)
		)`,
		`CREATE TABLE IF NOT EXISTS sightings (
			id TEXT PRIMARY KEY,
			zone TEXT NOT NULL,
			description TEXT,
			reported_at INTEGER NOT NULL,
			reporter_id INTEGER NOT NULL,
			reporter_name TEXT,
			reporter_badge TEXT,
			lat REAL,
			lng REAL,
			feedback_positive INTEGER DEFAULT 0,
			feedback_negative INTEGER DEFAULT 0,
			flagged INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			sighting_id TEXT NOT NULL REFERENCES sightings(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL,
			vote TEXT NOT NULL,
			created_at INTEGER DEFAULT (strftime('%s','now')),
			PRIMARY KEY (sighting_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS banned_users (
			telegram_id INTEGER PRIMARY KEY,
			banned_by INTEGER NOT NULL,
			reason TEXT,
			banned_at INTEGER DEFAULT (strftime('%s','now'))
		)`,
		`CREATE TABLE IF NOT EXISTS admin_actions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			admin_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			target TEXT,
			detail TEXT,
			created_at INTEGER DEFAULT (strftime('%s','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sightings_zone_time ON sightings (zone, reported_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sightings_reporter ON sightings (reporter_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_zone ON subscriptions (zone_name)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_sighting ON feedback (sighting_id)`,
		`CREATE INDEX IF NOT EXISTS idx_admin_actions_time ON admin_actions (created_at)`,
	}
	for _, stmt := range statements {
		if _, err := sqldb.Exec(stmt); err != nil {
			return fmt.Errorf("ошибка создания схемы: %w", err)
		}
	}
	return nil
}

// --- Пользователи ---

func (s *Store) EnsureUser(ctx context.Context, userID int64, username string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, username) VALUES (?, NULLIF(?, ''))
		ON CONFLICT(telegram_id) DO UPDATE SET username = excluded.username
	`, userID, username)
	if err != nil {
		return fmt.Errorf("ошибка создания/обновления пользователя: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID int64) (*db.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT telegram_id, COALESCE(username, ''), report_count, warnings, created_at
		FROM users WHERE telegram_id = ?
	`, userID)

	var u db.User
	var created int64
	err := row.Scan(&u.ID, &u.Username, &u.ReportCount, &u.Warnings, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения пользователя (user_id=%d): %w", userID, err)
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return &u, nil
}

func (s *Store) IncrementReportCount(ctx context.Context, userID int64) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE users SET report_count = report_count + 1
		WHERE telegram_id = ?
		RETURNING report_count
	`, userID)
	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка инкремента report_count: %w", err)
	}
	return count, nil
}

// --- Подписки ---

func (s *Store) Subscriptions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT zone_name FROM subscriptions WHERE telegram_id = ? ORDER BY zone_name`, userID)
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
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscriptions (telegram_id, zone_name) VALUES (?, ?)`, userID, zone)
	if err != nil {
		return fmt.Errorf("ошибка подписки: %w", err)
	}
	return nil
}

func (s *Store) RemoveSubscription(ctx context.Context, userID int64, zone string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE telegram_id = ? AND zone_name = ?`, userID, zone)
	if err != nil {
		return fmt.Errorf("ошибка отписки: %w", err)
	}
	return nil
}

func (s *Store) ClearSubscriptions(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE telegram_id = ?`, userID); err != nil {
		return fmt.Errorf("ошибка очистки подписок: %w", err)
	}
	return nil
}

func (s *Store) ZoneSubscribers(ctx context.Context, zone string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT telegram_id FROM subscriptions WHERE zone_name = ?`, zone)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSighting(row rowScanner) (*db.Sighting, error) {
	var sg db.Sighting
	var reported int64
	err := row.Scan(
		&sg.ID, &sg.Zone, &sg.Description, &reported, &sg.ReporterID,
		&sg.ReporterName, &sg.ReporterBadge, &sg.Lat, &sg.Lng,
		&sg.FeedbackPositive, &sg.FeedbackNegative, &sg.Flagged,
	)
	if err != nil {
		return nil, err
	}
	sg.ReportedAt = time.Unix(reported, 0).UTC()
	return &sg, nil
}

func (s *Store) AddSighting(ctx context.Context, sg *db.Sighting) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sightings (id, zone, description, reported_at, reporter_id,
			reporter_name, reporter_badge, lat, lng, feedback_positive, feedback_negative, flagged)
		VALUES (?, ?, NULLIF(?, ''), ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, 0, 0, 0)
	`, sg.ID, sg.Zone, sg.Description, sg.ReportedAt.UTC().Unix(), sg.ReporterID,
		sg.ReporterName, sg.ReporterBadge, sg.Lat, sg.Lng)
	if err != nil {
		return fmt.Errorf("ошибка сохранения сайтинга: %w", err)
	}
	return nil
}

func (s *Store) GetSighting(ctx context.Context, id string) (*db.Sighting, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sightingColumns+` FROM sightings WHERE id = ?`, id)
	sg, err := scanSighting(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
		WHERE zone = ? AND reported_at > ?
		ORDER BY reported_at DESC
	`
	return s.querySightings(ctx, query, zone, cutoff.UTC().Unix())
}

func (s *Store) SightingsInZonesSince(ctx context.Context, zones []string, cutoff time.Time) ([]*db.Sighting, error) {
	if len(zones) == 0 {
		return nil, nil
	}
	placeholders := ""
	args := make([]any, 0, len(zones)+1)
	for i, z := range zones {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, z)
	}
	args = append(args, cutoff.UTC().Unix())
	query := `
		SELECT ` + sightingColumns + `
		FROM sightings
		WHERE zone IN (` + placeholders + `) AND reported_at > ?
		ORDER BY reported_at DESC
	`
	return s.querySightings(ctx, query, args...)
}

func (s *Store) CountReportsSince(ctx context.Context, reporterID int64, cutoff time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sightings WHERE reporter_id = ? AND reported_at > ?`,
		reporterID, cutoff.UTC().Unix(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта репортов: %w", err)
	}
	return count, nil
}

func (s *Store) OldestReportSince(ctx context.Context, reporterID int64, cutoff time.Time) (*time.Time, error) {
	var oldest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MIN(reported_at) FROM sightings WHERE reporter_id = ? AND reported_at > ?`,
		reporterID, cutoff.UTC().Unix(),
	).Scan(&oldest)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска старейшего репорта: %w", err)
	}
	if !oldest.Valid {
		return nil, nil
	}
	t := time.Unix(oldest.Int64, 0).UTC()
	return &t, nil
}

func (s *Store) RecentSightingsByReporter(ctx context.Context, reporterID int64, limit int) ([]*db.Sighting, error) {
	query := `
		SELECT ` + sightingColumns + `
		FROM sightings
		WHERE reporter_id = ?
		ORDER BY reported_at DESC
		LIMIT ?
	`
	return s.querySightings(ctx, query, reporterID, limit)
}

func (s *Store) DeleteSighting(ctx context.Context, id string) (*db.Sighting, error) {
	// Чтение и удаление в одной транзакции, чтобы параллельный
	// вызов не удалил строку между ними.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия транзакции удаления: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+sightingColumns+` FROM sightings WHERE id = ?`, id)
	sg, err := scanSighting(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrSightingNotFound
		}
		return nil, fmt.Errorf("ошибка чтения сайтинга (id=%s): %w", id, err)
	}

	// Голоса удалит каскад по внешнему ключу (foreign_keys в DSN).
	if _, err := tx.ExecContext(ctx, `DELETE FROM sightings WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("ошибка удаления сайтинга (id=%s): %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ошибка коммита удаления: %w", err)
	}
	return sg, nil
}

func (s *Store) DeleteSightingsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sightings WHERE reported_at < ?`, cutoff.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("ошибка ретеншн-очистки: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта удалённых: %w", err)
	}
	return int(n), nil
}

func (s *Store) FlaggedSightings(ctx context.Context, limit int) ([]*db.Sighting, error) {
	query := `
		SELECT ` + sightingColumns + `
		FROM sightings
		WHERE flagged = 1
		ORDER BY reported_at DESC
		LIMIT ?
	`
	return s.querySightings(ctx, query, limit)
}

func (s *Store) querySightings(ctx context.Context, query string, args ...any) ([]*db.Sighting, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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

// ApplyFeedback — тот же контракт, что и в postgres-реализации.
// Отдельной блокировки строки не нужно: SQLite держит один
// писатель на базу, транзакция и так сериализована.
func (s *Store) ApplyFeedback(ctx context.Context, sightingID string, voterID int64, vote db.Vote) (*db.Sighting, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия транзакции фидбека: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sightings WHERE id = ?)`, sightingID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки сайтинга: %w", err)
	}
	if !exists {
		return nil, common.ErrSightingNotFound
	}

	var previous sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT vote FROM feedback WHERE sighting_id = ? AND user_id = ?`,
		sightingID, voterID,
	).Scan(&previous)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ошибка чтения предыдущего голоса: %w", err)
	}

	if previous.Valid && db.Vote(previous.String) == vote {
		return nil, common.ErrDuplicateVote
	}

	posDelta, negDelta := 0, 0
	if previous.Valid {
		switch db.Vote(previous.String) {
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

	_, err = tx.ExecContext(ctx, `
		INSERT INTO feedback (sighting_id, user_id, vote) VALUES (?, ?, ?)
		ON CONFLICT(sighting_id, user_id) DO UPDATE SET vote = excluded.vote
	`, sightingID, voterID, string(vote))
	if err != nil {
		return nil, fmt.Errorf("ошибка upsert голоса: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sightings
		SET feedback_positive = feedback_positive + ?,
		    feedback_negative = feedback_negative + ?
		WHERE id = ?
	`, posDelta, negDelta, sightingID)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления счётчиков: %w", err)
	}

	sg, err := scanSighting(tx.QueryRowContext(ctx,
		`SELECT `+sightingColumns+` FROM sightings WHERE id = ?`, sightingID))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения обновлённого сайтинга: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ошибка коммита фидбека: %w", err)
	}
	return sg, nil
}

func (s *Store) FeedbackTotals(ctx context.Context, reporterID int64) (int, int, error) {
	var pos, neg int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(feedback_positive), 0), COALESCE(SUM(feedback_negative), 0)
		FROM sightings WHERE reporter_id = ?
	`, reporterID).Scan(&pos, &neg)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка агрегации фидбека: %w", err)
	}
	return pos, neg, nil
}

func (s *Store) FlagSighting(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE sightings SET flagged = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("ошибка установки флага: %w", err)
	}
	return nil
}

// --- Модерация ---

func (s *Store) BanUser(ctx context.Context, userID, bannedBy int64, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка открытия транзакции бана: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO banned_users (telegram_id, banned_by, reason)
		VALUES (?, ?, NULLIF(?, ''))
		ON CONFLICT(telegram_id) DO UPDATE
		SET banned_by = excluded.banned_by, reason = excluded.reason
	`, userID, bannedBy, reason)
	if err != nil {
		return fmt.Errorf("ошибка записи бана: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE telegram_id = ?`, userID); err != nil {
		return fmt.Errorf("ошибка очистки подписок при бане: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка коммита бана: %w", err)
	}
	return nil
}

func (s *Store) UnbanUser(ctx context.Context, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM banned_users WHERE telegram_id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("ошибка снятия бана: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ошибка подсчёта снятых банов: %w", err)
	}
	return n > 0, nil
}

func (s *Store) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var banned bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM banned_users WHERE telegram_id = ?)`, userID).Scan(&banned)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки бана: %w", err)
	}
	return banned, nil
}

func (s *Store) BannedUsers(ctx context.Context) ([]*db.Ban, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT telegram_id, banned_by, COALESCE(reason, ''), banned_at
		FROM banned_users ORDER BY banned_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения банлиста: %w", err)
	}
	defer rows.Close()

	var out []*db.Ban
	for rows.Next() {
		var b db.Ban
		var at int64
		if err := rows.Scan(&b.UserID, &b.BannedBy, &b.Reason, &at); err != nil {
			return nil, fmt.Errorf("ошибка сканирования бана: %w", err)
		}
		b.BannedAt = time.Unix(at, 0).UTC()
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (s *Store) IncrementWarnings(ctx context.Context, userID int64) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE users SET warnings = warnings + 1
		WHERE telegram_id = ?
		RETURNING warnings
	`, userID)
	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка инкремента предупреждений: %w", err)
	}
	return count, nil
}

func (s *Store) ResetWarnings(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET warnings = 0 WHERE telegram_id = ?`, userID); err != nil {
		return fmt.Errorf("ошибка сброса предупреждений: %w", err)
	}
	return nil
}

// --- Журнал админ-действий ---

func (s *Store) LogAdminAction(ctx context.Context, adminID int64, action, target, detail string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_actions (admin_id, action, target, detail)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''))
	`, adminID, action, target, detail)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал: %w", err)
	}
	return nil
}

func (s *Store) AdminLog(ctx context.Context, limit int) ([]*db.AdminAction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, admin_id, action, COALESCE(target, ''), COALESCE(detail, ''), created_at
		FROM admin_actions
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	defer rows.Close()

	var out []*db.AdminAction
	for rows.Next() {
		var a db.AdminAction
		var at int64
		if err := rows.Scan(&a.ID, &a.AdminID, &a.Action, &a.Target, &a.Detail, &at); err != nil {
			return nil, fmt.Errorf("ошибка сканирования журнала: %w", err)
		}
		a.CreatedAt = time.Unix(at, 0).UTC()
		out = append(out, &a)
	}
	return out, rows.Err()
}

// --- Статистика ---

func (s *Store) GlobalStats(ctx context.Context, now time.Time) (*db.GlobalStats, error) {
	var st db.GlobalStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM sightings),
			(SELECT COUNT(*) FROM sightings WHERE reported_at > ?),
			(SELECT COUNT(*) FROM subscriptions),
			(SELECT COUNT(DISTINCT telegram_id) FROM subscriptions),
			(SELECT COALESCE(SUM(feedback_positive), 0) FROM sightings),
			(SELECT COALESCE(SUM(feedback_negative), 0) FROM sightings)
	`, now.UTC().Add(-24*time.Hour).Unix()).Scan(
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
	var st db.ZoneStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM subscriptions WHERE zone_name = ?1),
			(SELECT COUNT(*) FROM sightings WHERE zone = ?1 AND reported_at > ?2),
			(SELECT COUNT(*) FROM sightings WHERE zone = ?1 AND reported_at > ?3),
			(SELECT COUNT(*) FROM sightings WHERE zone = ?1)
	`, zone, now.UTC().Add(-24*time.Hour).Unix(), now.UTC().Add(-7*24*time.Hour).Unix()).Scan(
		&st.Subscribers, &st.Sightings24h, &st.Sightings7d, &st.SightingsAll,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения статистики зоны: %w", err)
	}
	return &st, nil
}
