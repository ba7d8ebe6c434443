// Package reports — конвейер приёма репортов: rate limit по состоянию
// хранилища, дедупликация по зоне/времени/радиусу, снапшот бейджа и
// запись сайтинга.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/db"
	"parkwatch.sg/telegram-bot/internal/geo"
)

// Service управляет жизненным циклом репортов.
type Service struct {
	store db.Store
	cfg   *config.Config
	clock common.Clock
}

// NewService создаёт сервис репортов.
func NewService(store db.Store, cfg *config.Config, clock common.Clock) *Service {
	return &Service{store: store, cfg: cfg, clock: clock}
}

// SubmitRequest — входные данные одного репорта. Lat/Lng nil, если
// репортёр не поделился локацией.
type SubmitRequest struct {
	ReporterID   int64
	ReporterName string
	Zone         string
	Description  string
	Lat          *float64
	Lng          *float64
}

// Submit проводит репорт через весь конвейер: зона → пользователь →
// rate limit → дедупликация → бейдж → запись. Возвращает сохранённый
// сайтинг либо одну из типизированных ошибок: common.ErrUnknownZone,
// common.RateLimitError, common.DuplicateError.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*db.Sighting, error) {
	zone, ok := geo.ValidZone(req.Zone)
	if !ok {
		return nil, common.ErrUnknownZone
	}
	now := s.clock.Now()

	if err := s.store.EnsureUser(ctx, req.ReporterID, req.ReporterName); err != nil {
		return nil, err
	}

	if err := s.checkRateLimit(ctx, req.ReporterID, now); err != nil {
		return nil, err
	}

	if err := s.checkDuplicate(ctx, zone, req.Lat, req.Lng, now); err != nil {
		return nil, err
	}

	count, err := s.store.IncrementReportCount(ctx, req.ReporterID)
	if err != nil {
		return nil, err
	}

	sighting := &db.Sighting{
		ID:            uuid.NewString(),
		Zone:          zone,
		Description:   SanitizeDescription(req.Description),
		ReportedAt:    now,
		ReporterID:    req.ReporterID,
		ReporterName:  req.ReporterName,
		ReporterBadge: BadgeFor(count),
		Lat:           req.Lat,
		Lng:           req.Lng,
	}
	if err := s.store.AddSighting(ctx, sighting); err != nil {
		return nil, fmt.Errorf("ошибка записи сайтинга: %w", err)
	}

	log.WithFields(log.Fields{
		"sighting_id": sighting.ID,
		"zone":        zone,
		"reporter_id": req.ReporterID,
		"gps":         sighting.HasGPS(),
	}).Info("Репорт принят")

	return sighting, nil
}

// checkRateLimit — скользящее окно в 1 час, выводится из состояния
// хранилища (без in-memory счётчиков, переживает рестарт). Гонка двух
// одновременных репортов одного пользователя может пропустить лишний —
// лимит рекомендательный, не жёсткая гарантия.
func (s *Service) checkRateLimit(ctx context.Context, reporterID int64, now time.Time) error {
	cutoff := now.Add(-time.Hour)

	count, err := s.store.CountReportsSince(ctx, reporterID, cutoff)
	if err != nil {
		return err
	}
	if count < s.cfg.MaxReportsPerHour {
		return nil
	}

	oldest, err := s.store.OldestReportSince(ctx, reporterID, cutoff)
	if err != nil {
		return err
	}
	retry := time.Minute
	if oldest != nil {
		if d := oldest.Add(time.Hour).Sub(now); d > retry {
			retry = d
		}
	}
	return &common.RateLimitError{Limit: s.cfg.MaxReportsPerHour, RetryAfter: retry}
}

// checkDuplicate сканирует свежие сайтинги зоны, новые первыми.
// Обе стороны с GPS — сравнение хаверсином, дальние кандидаты
// пропускаются (далёкий пост в той же зоне — отдельный валидный
// репорт). Без GPS хотя бы с одной стороны — совпадение по зоне.
// Снимок рекомендательный: параллельный репорт в ту же зону может
// проскочить до коммита первого.
func (s *Service) checkDuplicate(ctx context.Context, zone string, lat, lng *float64, now time.Time) error {
	cutoff := now.Add(-s.cfg.DuplicateWindow())
	candidates, err := s.store.SightingsInZoneSince(ctx, zone, cutoff)
	if err != nil {
		return err
	}

	hasGPS := lat != nil && lng != nil
	for _, cand := range candidates {
		if hasGPS && cand.HasGPS() {
			dist := geo.Distance(*lat, *lng, *cand.Lat, *cand.Lng)
			if dist > s.cfg.DuplicateRadiusMeters {
				continue
			}
			return &common.DuplicateError{
				MatchedID: cand.ID,
				Zone:      zone,
				Distance:  dist,
				Age:       now.Sub(cand.ReportedAt),
				GPSMatch:  true,
			}
		}
		return &common.DuplicateError{
			MatchedID: cand.ID,
			Zone:      zone,
			Age:       now.Sub(cand.ReportedAt),
			GPSMatch:  false,
		}
	}
	return nil
}

// ActiveInZone возвращает ещё актуальные сайтинги зоны (новее окна
// актуальности), новые первыми.
func (s *Service) ActiveInZone(ctx context.Context, zone string) ([]*db.Sighting, error) {
	canonical, ok := geo.ValidZone(zone)
	if !ok {
		return nil, common.ErrUnknownZone
	}
	cutoff := s.clock.Now().Add(-s.cfg.SightingExpiry())
	return s.store.SightingsInZoneSince(ctx, canonical, cutoff)
}

// ActiveInZones — то же для набора зон (лента /recent по подпискам).
func (s *Service) ActiveInZones(ctx context.Context, zones []string) ([]*db.Sighting, error) {
	cutoff := s.clock.Now().Add(-s.cfg.SightingExpiry())
	return s.store.SightingsInZonesSince(ctx, zones, cutoff)
}

// History возвращает последние репорты пользователя для /mystats.
func (s *Service) History(ctx context.Context, reporterID int64, limit int) ([]*db.Sighting, error) {
	return s.store.RecentSightingsByReporter(ctx, reporterID, limit)
}

// ResolveZone подбирает ближайшую зону по GPS-координате.
func (s *Service) ResolveZone(lat, lng float64) (string, float64) {
	return geo.NearestZone(lat, lng)
}

// RetentionSweep удаляет сайтинги старше горизонта хранения (голоса
// уходят каскадом) и возвращает число удалённых.
func (s *Service) RetentionSweep(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().AddDate(0, 0, -s.cfg.SightingRetentionDays)
	deleted, err := s.store.DeleteSightingsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("ошибка ретеншн-очистки: %w", err)
	}
	if deleted > 0 {
		log.WithField("deleted", deleted).Info("Ретеншн-очистка завершена")
	}
	return deleted, nil
}
