// Package postgres — продакшен-реализация db.Store поверх PostgreSQL.
// Используется пул соединений pgxpool для эффективной работы
// с несколькими горутинами одновременно.
//
// Пул автоматически управляет открытием/закрытием соединений,
// переподключается при обрыве и ограничивает максимальное число соединений.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/config"
)

// NewPool создаёт новый пул соединений к PostgreSQL.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	// Настройки пула соединений
	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула: %w", err)
	}

	// Проверяем, что база доступна
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("база данных недоступна: %w", err)
	}

	log.Info("Подключение к PostgreSQL установлено")
	return pool, nil
}

// RunMigrations выполняет встроенные SQL-миграции по порядку версий.
// Применённые версии отслеживаются в таблице schema_migrations.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("не удалось получить соединение: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		err := conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, m.version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("миграция %d: проверка: %w", m.version, err)
		}
		if applied {
			continue
		}

		tx, err := conn.Begin(ctx)
		if err != nil {
			return fmt.Errorf("миграция %d: begin: %w", m.version, err)
		}
		if _, err := tx.Exec(ctx, m.sql); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1)`, m.version,
		); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("миграция %d: запись версии: %w", m.version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("миграция %d: commit: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migrations = []struct {
	version int
	sql     string
}{
	{1, migration001Users},
	{2, migration002Sightings},
	{3, migration003AdminActions},
	{4, migration004Moderation},
}

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    telegram_id BIGINT PRIMARY KEY,
    username TEXT,
    report_count INTEGER DEFAULT 0,
    warnings INTEGER DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS subscriptions (
    telegram_id BIGINT NOT NULL,
    zone_name TEXT NOT NULL,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    PRIMARY KEY (telegram_id, zone_name)
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_zone ON subscriptions (zone_name);
`

var migration002Sightings = `
CREATE TABLE IF NOT EXISTS sightings (
    id TEXT PRIMARY KEY,
    zone TEXT NOT NULL,
    description TEXT,
    reported_at TIMESTAMPTZ NOT NULL,
    reporter_id BIGINT NOT NULL,
    reporter_name TEXT,
    reporter_badge TEXT,
    lat DOUBLE PRECISION,
    lng DOUBLE PRECISION,
    feedback_positive INTEGER DEFAULT 0,
    feedback_negative INTEGER DEFAULT 0,
    flagged BOOLEAN DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS feedback (
    sighting_id TEXT NOT NULL REFERENCES sightings(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL,
    vote TEXT NOT NULL,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    PRIMARY KEY (sighting_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_sightings_zone_time ON sightings (zone, reported_at);
CREATE INDEX IF NOT EXISTS idx_sightings_reporter ON sightings (reporter_id);
CREATE INDEX IF NOT EXISTS idx_feedback_sighting ON feedback (sighting_id);
`

var migration003AdminActions = `
CREATE TABLE IF NOT EXISTS admin_actions (
    id BIGSERIAL PRIMARY KEY,
    admin_id BIGINT NOT NULL,
    action TEXT NOT NULL,
    target TEXT,
    detail TEXT,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_actions_time ON admin_actions (created_at);
`

var migration004Moderation = `
CREATE TABLE IF NOT EXISTS banned_users (
    telegram_id BIGINT PRIMARY KEY,
    banned_by BIGINT NOT NULL,
    reason TEXT,
    banned_at TIMESTAMPTZ DEFAULT NOW()
);
`
