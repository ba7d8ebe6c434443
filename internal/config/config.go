// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Список админов: ID через запятую. Авторизация — только по этому списку.
	AdminIDsRaw string  `envconfig:"ADMIN_USER_IDS" default:""`
	AdminIDs    []int64 `envconfig:"-"` // заполним вручную из AdminIDsRaw

	// --- Database ---
	// postgres://... — продакшен (pgx), иначе путь к файлу SQLite (разработка).
	// Railway внедряет DATABASE_PRIVATE_URL для внутренней сети — он приоритетнее.
	DatabaseURL        string `envconfig:"DATABASE_URL" default:"parkwatch.db"`
	DatabasePrivateURL string `envconfig:"DATABASE_PRIVATE_URL" default:""`
	DBMaxConns         int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns         int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Asia/Singapore"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`
	// Параллелизм рассылки алертов по подписчикам зоны
	BroadcastWorkers int `envconfig:"BROADCAST_WORKERS" default:"8"`

	// --- Sightings ---
	SightingExpiryMinutes  int     `envconfig:"SIGHTING_EXPIRY_MINUTES" default:"30"`
	MaxReportsPerHour      int     `envconfig:"MAX_REPORTS_PER_HOUR" default:"3"`
	DuplicateWindowMinutes int     `envconfig:"DUPLICATE_WINDOW_MINUTES" default:"5"`
	DuplicateRadiusMeters  float64 `envconfig:"DUPLICATE_RADIUS_METERS" default:"200"`
	SightingRetentionDays  int     `envconfig:"SIGHTING_RETENTION_DAYS" default:"30"`
	FeedbackWindowHours    int     `envconfig:"FEEDBACK_WINDOW_HOURS" default:"24"`

	// --- Moderation ---
	MaxWarnings int `envconfig:"MAX_WARNINGS" default:"3"`

	// --- Flood protection (апдейты, не репорты) ---
	FloodLimitRequests int           `envconfig:"FLOOD_LIMIT_REQUESTS" default:"10"`
	FloodLimitWindow   time.Duration `envconfig:"FLOOD_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN возвращает строку подключения с учётом приоритета
// DATABASE_PRIVATE_URL над DATABASE_URL.
func (c *Config) DatabaseDSN() string {
	if c.DatabasePrivateURL != "" {
		return c.DatabasePrivateURL
	}
	return c.DatabaseURL
}

// UsePostgres сообщает, выбран ли PostgreSQL (по схеме DSN).
// Всё остальное трактуется как путь к файлу SQLite.
func (c *Config) UsePostgres() bool {
	dsn := c.DatabaseDSN()
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// IsAdmin проверяет, входит ли пользователь в список админов.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// FeedbackWindow — окно приёма фидбека как Duration.
func (c *Config) FeedbackWindow() time.Duration {
	return time.Duration(c.FeedbackWindowHours) * time.Hour
}

// DuplicateWindow — окно дедупликации как Duration.
func (c *Config) DuplicateWindow() time.Duration {
	return time.Duration(c.DuplicateWindowMinutes) * time.Minute
}

// SightingExpiry — срок актуальности сайтинга как Duration.
func (c *Config) SightingExpiry() time.Duration {
	return time.Duration(c.SightingExpiryMinutes) * time.Minute
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.BroadcastWorkers <= 0 {
		return fmt.Errorf("BROADCAST_WORKERS должен быть > 0")
	}
	if c.MaxReportsPerHour <= 0 {
		return fmt.Errorf("MAX_REPORTS_PER_HOUR должен быть > 0")
	}
	if c.DuplicateRadiusMeters <= 0 {
		return fmt.Errorf("DUPLICATE_RADIUS_METERS должен быть > 0")
	}
	if c.SightingRetentionDays <= 0 {
		return fmt.Errorf("SIGHTING_RETENTION_DAYS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_USER_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
