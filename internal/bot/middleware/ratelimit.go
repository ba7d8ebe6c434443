package middleware

import (
	"sync"
	"time"
)

// FloodLimiter ограничивает частоту сырых апдейтов на пользователя
// скользящим окном. Это защита транспорта от спама кнопками и
// командами; лимит репортов считается отдельно, по состоянию базы.
type FloodLimiter struct {
	mu       sync.Mutex
	requests map[int64][]time.Time
	limit    int
	window   time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewFloodLimiter(limit int, window time.Duration) *FloodLimiter {
	fl := &FloodLimiter{
		requests: make(map[int64][]time.Time),
		limit:    limit,
		window:   window,
		stopCh:   make(chan struct{}),
	}
	go fl.cleanup()
	return fl
}

// Close останавливает фоновую горутину очистки.
// Вызывать на shutdown, иначе cleanup живёт вечно.
func (fl *FloodLimiter) Close() {
	fl.stopOnce.Do(func() { close(fl.stopCh) })
}

func (fl *FloodLimiter) Allow(userID int64) bool {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-fl.window)

	var recent []time.Time
	for _, t := range fl.requests[userID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= fl.limit {
		fl.requests[userID] = recent
		return false
	}

	recent = append(recent, now)
	fl.requests[userID] = recent
	return true
}

func (fl *FloodLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-fl.stopCh:
			return
		case <-ticker.C:
			fl.mu.Lock()
			cutoff := time.Now().Add(-fl.window)
			for userID, times := range fl.requests {
				var recent []time.Time
				for _, t := range times {
					if t.After(cutoff) {
						recent = append(recent, t)
					}
				}
				if len(recent) == 0 {
					delete(fl.requests, userID)
				} else {
					fl.requests[userID] = recent
				}
			}
			fl.mu.Unlock()
		}
	}
}
