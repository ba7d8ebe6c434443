// Package filters — фильтры доступа перед обработчиками: бан-чек для
// всех и allowlist для админ-команд.
package filters

import (
	"context"

	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/features/moderation"
)

type AccessFilter struct {
	cfg        *config.Config
	moderation *moderation.Service
}

func NewAccessFilter(cfg *config.Config, moderation *moderation.Service) *AccessFilter {
	return &AccessFilter{cfg: cfg, moderation: moderation}
}

// CheckAccess — общий фильтр: забаненные пользователи молча
// игнорируются. Сбой проверки трактуется как отказ в доступе.
func (f *AccessFilter) CheckAccess(ctx context.Context, userID int64) bool {
	banned, err := f.moderation.IsBanned(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка бан-чека")
		return false
	}
	if banned {
		log.WithField("user_id", userID).Debug("deny: banned")
		return false
	}
	return true
}

// IsAdmin — allowlist админ-команд из конфига.
func (f *AccessFilter) IsAdmin(userID int64) bool {
	return f.cfg.IsAdmin(userID)
}
