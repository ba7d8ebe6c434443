// Package feedback — приём голосов по сайтингам и расчёт точности
// репортёров.
package feedback

import (
	"context"

	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/db"
)

// Service управляет голосами фидбека.
type Service struct {
	store db.Store
	cfg   *config.Config
	clock common.Clock
}

// NewService создаёт сервис фидбека.
func NewService(store db.Store, cfg *config.Config, clock common.Clock) *Service {
	return &Service{store: store, cfg: cfg, clock: clock}
}

// Apply применяет голос. Предусловия в строгом порядке:
// сайтинг существует → не свой → окно открыто → не повтор того же
// голоса (повтор отсекает транзакция хранилища). Смена голоса
// допустима: хранилище разворачивает старый голос и применяет новый
// знаковыми дельтами в одной транзакции. Возвращает сайтинг после
// обновления счётчиков.
func (s *Service) Apply(ctx context.Context, sightingID string, voterID int64, vote db.Vote) (*db.Sighting, error) {
	sighting, err := s.store.GetSighting(ctx, sightingID)
	if err != nil {
		return nil, err
	}
	if sighting.ReporterID == voterID {
		return nil, common.ErrSelfVote
	}
	if s.clock.Now().Sub(sighting.ReportedAt) > s.cfg.FeedbackWindow() {
		return nil, common.ErrFeedbackClosed
	}

	updated, err := s.store.ApplyFeedback(ctx, sightingID, voterID, vote)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"sighting_id": sightingID,
		"voter_id":    voterID,
		"vote":        vote,
		"positive":    updated.FeedbackPositive,
		"negative":    updated.FeedbackNegative,
	}).Debug("Голос учтён")

	return updated, nil
}

// Score возвращает точность репортёра по всем его сайтингам:
// (доля позитива, всего голосов).
func (s *Service) Score(ctx context.Context, reporterID int64) (float64, int, error) {
	pos, neg, err := s.store.FeedbackTotals(ctx, reporterID)
	if err != nil {
		return 0, 0, err
	}
	accuracy, total := Accuracy(pos, neg)
	return accuracy, total, nil
}
