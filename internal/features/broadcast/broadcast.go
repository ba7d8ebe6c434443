// Package broadcast — рассылка алертов подписчикам зоны с
// классификацией отказов доставки и чисткой недостижимых получателей.
package broadcast

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"parkwatch.sg/telegram-bot/internal/db"
)

// ErrUnreachable — получатель навсегда недоступен (заблокировал бота,
// удалил аккаунт). Адаптер Notifier оборачивает такие отказы этой
// ошибкой; всё остальное считается временным сбоем.
var ErrUnreachable = errors.New("получатель недоступен")

// Notifier — транспорт доставки одного сообщения. Реализуется слоем
// Telegram; диспетчер его не знает.
type Notifier interface {
	Send(ctx context.Context, userID int64, message string) error
}

// Result — агрегат одной рассылки. Unreachable содержит получателей,
// чьи подписки были вычищены.
type Result struct {
	Sent        int
	Failed      int
	Unreachable []int64
}

// Dispatcher веером рассылает сообщение подписчикам зоны.
type Dispatcher struct {
	store    db.SubscriptionStore
	notifier Notifier
	workers  int
}

// NewDispatcher создаёт диспетчер с ограниченным пулом отправителей.
func NewDispatcher(store db.SubscriptionStore, notifier Notifier, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{store: store, notifier: notifier, workers: workers}
}

// Broadcast доставляет message каждому подписчику зоны, кроме
// excludeID (сам репортёр). Отправки независимы: ошибка одной не
// прерывает остальные и не всплывает к вызывающему — наружу уходят
// только агрегаты. Недостижимым получателям чистятся ВСЕ подписки:
// будущий алерт по любой зоне до них тоже не дойдёт. Доставка
// best-effort, не больше одного раза на получателя; сбой на середине
// не возобновляется.
func (d *Dispatcher) Broadcast(ctx context.Context, zone, message string, excludeID int64) (*Result, error) {
	subscribers, err := d.store.ZoneSubscribers(ctx, zone)
	if err != nil {
		return nil, err
	}

	var (
		mu  sync.Mutex
		res Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, userID := range subscribers {
		if userID == excludeID {
			continue
		}
		userID := userID
		g.Go(func() error {
			err := d.notifier.Send(gctx, userID, message)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.Sent++
			case errors.Is(err, ErrUnreachable):
				res.Failed++
				res.Unreachable = append(res.Unreachable, userID)
			default:
				res.Failed++
				log.WithError(err).WithField("user_id", userID).Warn("Временный сбой доставки")
			}
			return nil
		})
	}
	// Воркеры всегда возвращают nil: отказы доставки уже учтены.
	_ = g.Wait()

	for _, userID := range res.Unreachable {
		if err := d.store.ClearSubscriptions(ctx, userID); err != nil {
			// Сбой чистки не фатален, получатель попадётся снова.
			log.WithError(err).WithField("user_id", userID).Error("Ошибка чистки подписок недостижимого получателя")
			continue
		}
		log.WithField("user_id", userID).Info("Недостижимый получатель отписан от всех зон")
	}

	log.WithFields(log.Fields{
		"zone":        zone,
		"sent":        res.Sent,
		"failed":      res.Failed,
		"unreachable": len(res.Unreachable),
	}).Info("Рассылка завершена")

	return &res, nil
}
