// Package subscriptions — подписки пользователей на зоны алертов.
package subscriptions

import (
	"context"

	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/db"
	"parkwatch.sg/telegram-bot/internal/geo"
)

// Service управляет подписками на зоны.
type Service struct {
	store db.Store
}

// NewService создаёт сервис подписок.
func NewService(store db.Store) *Service {
	return &Service{store: store}
}

// Subscribe подписывает пользователя на зону (идемпотентно).
func (s *Service) Subscribe(ctx context.Context, userID int64, username, zone string) error {
	canonical, ok := geo.ValidZone(zone)
	if !ok {
		return common.ErrUnknownZone
	}
	if err := s.store.EnsureUser(ctx, userID, username); err != nil {
		return err
	}
	if err := s.store.AddSubscription(ctx, userID, canonical); err != nil {
		return err
	}
	log.WithFields(log.Fields{"user_id": userID, "zone": canonical}).Debug("Подписка оформлена")
	return nil
}

// Unsubscribe отписывает пользователя от зоны.
func (s *Service) Unsubscribe(ctx context.Context, userID int64, zone string) error {
	canonical, ok := geo.ValidZone(zone)
	if !ok {
		return common.ErrUnknownZone
	}
	return s.store.RemoveSubscription(ctx, userID, canonical)
}

// List возвращает зоны пользователя, отсортированные по имени.
func (s *Service) List(ctx context.Context, userID int64) ([]string, error) {
	return s.store.Subscriptions(ctx, userID)
}

// Clear снимает все подписки пользователя.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.store.ClearSubscriptions(ctx, userID)
}
