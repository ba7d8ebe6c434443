// store.go — контракт хранилища. Две продакшен-реализации
// (postgres для прода, sqlite для разработки) и одна in-memory для
// тестов сервисов. Вся логика выше слоя хранения не знает, какой
// движок выбран.
package db

import (
	"context"
	"time"
)

// Store — единый контракт долговременного состояния.
//
// Семантика ошибок: отсутствующие сущности — common.ErrSightingNotFound /
// common.ErrUserNotFound; повторный голос — common.ErrDuplicateVote.
// Всё остальное — ошибки хранилища, их оборачивают через %w.
type Store interface {
	UserStore
	SubscriptionStore
	SightingStore
	FeedbackStore
	ModerationStore
	AuditStore

	// GlobalStats возвращает сводку для админ-дашборда.
	GlobalStats(ctx context.Context, now time.Time) (*GlobalStats, error)
	// ZoneStats возвращает сводку по зоне.
	ZoneStats(ctx context.Context, zone string, now time.Time) (*ZoneStats, error)

	Close()
}

// UserStore — операции с пользователями.
type UserStore interface {
	// EnsureUser создаёт пользователя или обновляет его имя (upsert).
	EnsureUser(ctx context.Context, userID int64, username string) error
	// GetUser возвращает пользователя или common.ErrUserNotFound.
	GetUser(ctx context.Context, userID int64) (*User, error)
	// IncrementReportCount увеличивает счётчик репортов и возвращает новое значение.
	IncrementReportCount(ctx context.Context, userID int64) (int, error)
}

// SubscriptionStore — операции с подписками на зоны.
type SubscriptionStore interface {
	// Subscriptions возвращает зоны пользователя (отсортированы).
	Subscriptions(ctx context.Context, userID int64) ([]string, error)
	// AddSubscription подписывает на зону (идемпотентно).
	AddSubscription(ctx context.Context, userID int64, zone string) error
	// RemoveSubscription отписывает от одной зоны.
	RemoveSubscription(ctx context.Context, userID int64, zone string) error
	// ClearSubscriptions удаляет все подписки пользователя.
	ClearSubscriptions(ctx context.Context, userID int64) error
	// ZoneSubscribers возвращает всех подписчиков зоны.
	ZoneSubscribers(ctx context.Context, zone string) ([]int64, error)
}

// SightingStore — операции с сайтингами.
type SightingStore interface {
	// AddSighting сохраняет новый сайтинг.
	AddSighting(ctx context.Context, s *Sighting) error
	// GetSighting возвращает сайтинг или common.ErrSightingNotFound.
	GetSighting(ctx context.Context, id string) (*Sighting, error)
	// SightingsInZoneSince — сайтинги зоны новее cutoff, новые первыми.
	SightingsInZoneSince(ctx context.Context, zone string, cutoff time.Time) ([]*Sighting, error)
	// SightingsInZonesSince — то же для набора зон (для /recent).
	SightingsInZonesSince(ctx context.Context, zones []string, cutoff time.Time) ([]*Sighting, error)
	// CountReportsSince — сколько репортов у репортёра новее cutoff.
	CountReportsSince(ctx context.Context, reporterID int64, cutoff time.Time) (int, error)
	// OldestReportSince — самый старый репорт репортёра новее cutoff
	// (nil, если таких нет). Питает расчёт времени повтора rate limiter'а.
	OldestReportSince(ctx context.Context, reporterID int64, cutoff time.Time) (*time.Time, error)
	// RecentSightingsByReporter — последние сайтинги репортёра.
	RecentSightingsByReporter(ctx context.Context, reporterID int64, limit int) ([]*Sighting, error)
	// DeleteSighting удаляет сайтинг и каскадно его голоса.
	// Возвращает удалённый сайтинг или common.ErrSightingNotFound.
	DeleteSighting(ctx context.Context, id string) (*Sighting, error)
	// DeleteSightingsBefore удаляет сайтинги старше cutoff (каскадно
	// с голосами) и возвращает число удалённых.
	DeleteSightingsBefore(ctx context.Context, cutoff time.Time) (int, error)
	// FlaggedSightings — сайтинги с флагом модерации, новые первыми.
	FlaggedSightings(ctx context.Context, limit int) ([]*Sighting, error)
}

// FeedbackStore — голоса фидбека и агрегаты точности.
type FeedbackStore interface {
	// ApplyFeedback атомарно применяет голос: читает предыдущий голос,
	// отклоняет повтор (common.ErrDuplicateVote), upsert'ит голос и
	// корректирует счётчики сайтинга знаковыми дельтами — всё в одной
	// транзакции, сериализованной по строке сайтинга. Возвращает
	// сайтинг после обновления.
	ApplyFeedback(ctx context.Context, sightingID string, voterID int64, vote Vote) (*Sighting, error)
	// FeedbackTotals суммирует позитив/негатив по ВСЕМ сайтингам репортёра.
	FeedbackTotals(ctx context.Context, reporterID int64) (pos, neg int, err error)
	// FlagSighting выставляет флаг модерации (идемпотентно, в одну сторону).
	FlagSighting(ctx context.Context, id string) error
}

// ModerationStore — баны и предупреждения.
type ModerationStore interface {
	// BanUser банит пользователя и в той же транзакции очищает его
	// подписки. Повторный бан обновляет banned_by/reason.
	BanUser(ctx context.Context, userID, bannedBy int64, reason string) error
	// UnbanUser снимает бан. false — пользователь не был забанен.
	UnbanUser(ctx context.Context, userID int64) (bool, error)
	// IsBanned проверяет бан.
	IsBanned(ctx context.Context, userID int64) (bool, error)
	// BannedUsers — все активные баны, свежие первыми.
	BannedUsers(ctx context.Context) ([]*Ban, error)
	// IncrementWarnings увеличивает счётчик предупреждений, возвращает новое значение.
	IncrementWarnings(ctx context.Context, userID int64) (int, error)
	// ResetWarnings сбрасывает счётчик предупреждений в ноль.
	ResetWarnings(ctx context.Context, userID int64) error
}

// AuditStore — журнал админ-действий (только добавление).
type AuditStore interface {
	// LogAdminAction пишет запись журнала. target/detail могут быть пустыми.
	LogAdminAction(ctx context.Context, adminID int64, action, target, detail string) error
	// AdminLog возвращает последние записи, свежие первыми.
	AdminLog(ctx context.Context, limit int) ([]*AdminAction, error)
}
