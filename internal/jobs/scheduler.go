// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ночная ретеншн-очистка старых
// сайтингов.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/features/reports"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron          *cron.Cron
	reportService *reports.Service
}

// NewScheduler создаёт планировщик задач в сингапурском часовом поясе.
func NewScheduler(reportService *reports.Service) *Scheduler {
	c := cron.New(cron.WithLocation(common.GetSingaporeLocation()))

	return &Scheduler{
		cron:          c,
		reportService: reportService,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Ретеншн-очистка в 03:30 по Сингапуру — самое тихое время.
	s.cron.AddFunc("30 3 * * *", func() {
		log.Info("[CRON] Ретеншн-очистка сайтингов")
		deleted, err := s.reportService.RetentionSweep(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка ретеншн-очистки")
			return
		}
		log.WithField("deleted", deleted).Info("[CRON] Ретеншн-очистка завершена")
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (Asia/Singapore)")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
