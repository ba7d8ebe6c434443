// Package moderation — эскалация злоупотреблений: авто-флаг по
// фидбеку, предупреждения с авто-баном, баны и журнал действий.
package moderation

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/db"
)

// Имена действий журнала аудита.
const (
	ActionWarn           = "warn"
	ActionBan            = "ban"
	ActionAutoBan        = "auto_ban"
	ActionUnban          = "unban"
	ActionDeleteSighting = "delete_sighting"
	ActionAutoFlag       = "auto_flag"
)

// Пороги авто-флага: минимум голосов и доля негатива, выше которой
// сайтинг уходит в очередь ревью.
const (
	autoFlagMinVotes      = 3
	autoFlagNegativeShare = 0.7
)

// Service управляет модерацией.
type Service struct {
	store db.Store
	cfg   *config.Config
}

// NewService создаёт сервис модерации.
func NewService(store db.Store, cfg *config.Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// CheckAutoFlag вызывается после каждого применённого голоса.
// Флаг односторонний: однажды поднятый, он не снимается автоматикой,
// даже если доля негатива потом упадёт. Возвращает true, если флаг
// был поднят этим вызовом.
func (s *Service) CheckAutoFlag(ctx context.Context, sighting *db.Sighting) (bool, error) {
	if sighting.Flagged {
		return false, nil
	}
	total := sighting.FeedbackPositive + sighting.FeedbackNegative
	if total < autoFlagMinVotes {
		return false, nil
	}
	if float64(sighting.FeedbackNegative)/float64(total) <= autoFlagNegativeShare {
		return false, nil
	}

	if err := s.store.FlagSighting(ctx, sighting.ID); err != nil {
		return false, fmt.Errorf("ошибка авто-флага: %w", err)
	}
	s.audit(ctx, 0, ActionAutoFlag, sighting.ID,
		fmt.Sprintf("%d/%d негативных", sighting.FeedbackNegative, total))

	log.WithFields(log.Fields{
		"sighting_id": sighting.ID,
		"negative":    sighting.FeedbackNegative,
		"total":       total,
	}).Warn("Сайтинг авто-флагнут по фидбеку")
	return true, nil
}

// Warn выдаёт предупреждение. По достижении порога MaxWarnings
// пользователь банится автоматически с причиной "auto-ban: N warnings";
// авто-бан журналируется отдельным действием. Возвращает новый счётчик
// предупреждений и признак авто-бана.
func (s *Service) Warn(ctx context.Context, adminID, targetID int64, reason string) (int, bool, error) {
	if s.cfg.IsAdmin(targetID) {
		return 0, false, common.ErrAdminImmune
	}

	warnings, err := s.store.IncrementWarnings(ctx, targetID)
	if err != nil {
		return 0, false, err
	}
	s.audit(ctx, adminID, ActionWarn, fmt.Sprintf("%d", targetID), reason)

	if warnings < s.cfg.MaxWarnings {
		return warnings, false, nil
	}

	autoReason := fmt.Sprintf("auto-ban: %d warnings", warnings)
	if err := s.store.BanUser(ctx, targetID, adminID, autoReason); err != nil {
		return warnings, false, fmt.Errorf("ошибка авто-бана: %w", err)
	}
	s.audit(ctx, adminID, ActionAutoBan, fmt.Sprintf("%d", targetID), autoReason)

	log.WithFields(log.Fields{
		"user_id":  targetID,
		"warnings": warnings,
	}).Warn("Пользователь авто-забанен по предупреждениям")
	return warnings, true, nil
}

// Ban банит пользователя и чистит его подписки (одной транзакцией
// хранилища). Идемпотентен: повторный бан обновляет banned_by/reason.
// Подписки при разбане не восстанавливаются. Админа забанить нельзя.
func (s *Service) Ban(ctx context.Context, adminID, targetID int64, reason string) error {
	if s.cfg.IsAdmin(targetID) {
		return common.ErrAdminImmune
	}
	if err := s.store.BanUser(ctx, targetID, adminID, reason); err != nil {
		return err
	}
	s.audit(ctx, adminID, ActionBan, fmt.Sprintf("%d", targetID), reason)

	log.WithFields(log.Fields{
		"user_id":  targetID,
		"admin_id": adminID,
	}).Info("Пользователь забанен")
	return nil
}

// Unban снимает бан и обнуляет счётчик предупреждений.
// common.ErrNotBanned, если бана не было.
func (s *Service) Unban(ctx context.Context, adminID, targetID int64) error {
	removed, err := s.store.UnbanUser(ctx, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return common.ErrNotBanned
	}
	if err := s.store.ResetWarnings(ctx, targetID); err != nil {
		return err
	}
	s.audit(ctx, adminID, ActionUnban, fmt.Sprintf("%d", targetID), "")

	log.WithFields(log.Fields{
		"user_id":  targetID,
		"admin_id": adminID,
	}).Info("Бан снят")
	return nil
}

// IsBanned проверяет бан пользователя.
func (s *Service) IsBanned(ctx context.Context, userID int64) (bool, error) {
	return s.store.IsBanned(ctx, userID)
}

// BannedList возвращает активные баны, свежие первыми.
func (s *Service) BannedList(ctx context.Context) ([]*db.Ban, error) {
	return s.store.BannedUsers(ctx)
}

// ReviewQueue — флагнутые сайтинги, ждущие решения модератора.
func (s *Service) ReviewQueue(ctx context.Context, limit int) ([]*db.Sighting, error) {
	return s.store.FlaggedSightings(ctx, limit)
}

// RemoveSighting удаляет сайтинг решением модератора (голоса уходят
// каскадом) и журналирует удаление.
func (s *Service) RemoveSighting(ctx context.Context, adminID int64, sightingID string) (*db.Sighting, error) {
	sighting, err := s.store.DeleteSighting(ctx, sightingID)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, adminID, ActionDeleteSighting, sightingID, sighting.Zone)
	return sighting, nil
}

// AuditLog возвращает последние записи журнала.
func (s *Service) AuditLog(ctx context.Context, limit int) ([]*db.AdminAction, error) {
	return s.store.AdminLog(ctx, limit)
}

// audit пишет запись журнала; сбой записи не роняет операцию.
func (s *Service) audit(ctx context.Context, adminID int64, action, target, detail string) {
	if err := s.store.LogAdminAction(ctx, adminID, action, target, detail); err != nil {
		log.WithError(err).WithField("action", action).Error("Ошибка записи в журнал аудита")
	}
}
