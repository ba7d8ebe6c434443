// Package db определяет контракт хранилища (Store) и модели данных.
// models.go описывает сущности: пользователи, подписки, сайтинги,
// голоса фидбека, баны и журнал админ-действий.
package db

import "time"

// Vote — тип голоса фидбека.
type Vote string

const (
	VotePositive Vote = "positive"
	VoteNegative Vote = "negative"
)

// Valid проверяет, что значение голоса допустимо.
func (v Vote) Valid() bool {
	return v == VotePositive || v == VoteNegative
}

// User — пользователь бота. Создаётся при первом взаимодействии.
type User struct {
	ID          int64     `db:"telegram_id"` // Telegram user ID
	Username    string    `db:"username"`    // Отображаемое имя (может быть пустым)
	ReportCount int       `db:"report_count"`
	Warnings    int       `db:"warnings"`
	CreatedAt   time.Time `db:"created_at"`
}

// Sighting — один репорт о замеченном инспекторе.
// Поля репортёра — снимок на момент репорта, они не обновляются.
type Sighting struct {
	ID               string    `db:"id"` // UUID
	Zone             string    `db:"zone"`
	Description      string    `db:"description"` // пустая строка = нет описания
	ReportedAt       time.Time `db:"reported_at"`
	ReporterID       int64     `db:"reporter_id"`
	ReporterName     string    `db:"reporter_name"`
	ReporterBadge    string    `db:"reporter_badge"`
	Lat              *float64  `db:"lat"` // nil = репорт без GPS
	Lng              *float64  `db:"lng"`
	FeedbackPositive int       `db:"feedback_positive"`
	FeedbackNegative int       `db:"feedback_negative"`
	Flagged          bool      `db:"flagged"`
}

// HasGPS сообщает, есть ли у сайтинга координаты.
func (s *Sighting) HasGPS() bool {
	return s.Lat != nil && s.Lng != nil
}

// Ban — запись о бане пользователя.
type Ban struct {
	UserID   int64     `db:"telegram_id"`
	BannedBy int64     `db:"banned_by"`
	Reason   string    `db:"reason"` // пустая строка = причина не указана
	BannedAt time.Time `db:"banned_at"`
}

// AdminAction — запись журнала админ-действий. Только добавление.
type AdminAction struct {
	ID        int64     `db:"id"`
	AdminID   int64     `db:"admin_id"`
	Action    string    `db:"action"`
	Target    string    `db:"target"` // пустая строка = нет цели
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"created_at"`
}

// GlobalStats — сводка для админ-дашборда.
type GlobalStats struct {
	TotalUsers          int
	TotalSightings      int
	Sightings24h        int
	ActiveSubscriptions int
	UniqueSubscribers   int
	FeedbackPositive    int
	FeedbackNegative    int
}

// ZoneStats — сводка по одной зоне.
type ZoneStats struct {
	Subscribers  int
	Sightings24h int
	Sightings7d  int
	SightingsAll int
}
