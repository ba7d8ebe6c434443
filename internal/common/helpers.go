// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: часы (для тестируемости окон), сингапурское время,
// форматирование длительностей.
package common

import (
	"fmt"
	"time"
)

// Clock отдаёт текущее время. Все оконные вычисления (rate limit,
// дедупликация, окно фидбека) идут через Clock, чтобы тесты не ждали
// реального времени.
type Clock interface {
	Now() time.Time
}

// RealClock — продакшен-реализация Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// GetSingaporeLocation возвращает часовой пояс Сингапура (UTC+8).
// Используется для cron-задач и отображения времени пользователям.
func GetSingaporeLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		// Если не удалось загрузить — используем UTC+8 вручную
		loc = time.FixedZone("SGT", 8*60*60)
	}
	return loc
}

// FormatSGT форматирует время в формат "2006-01-02 03:04 PM SGT".
func FormatSGT(t time.Time) string {
	return t.In(GetSingaporeLocation()).Format("2006-01-02 03:04 PM") + " SGT"
}

// FormatSGTShort форматирует время в короткий формат "01/02 03:04 PM".
func FormatSGTShort(t time.Time) string {
	return t.In(GetSingaporeLocation()).Format("01/02 03:04 PM")
}

// MinutesAgo возвращает целое число минут между now и t (не меньше 0).
func MinutesAgo(now, t time.Time) int {
	m := int(now.Sub(t).Minutes())
	if m < 0 {
		return 0
	}
	return m
}

// FormatWaitMinutes округляет длительность вверх до минут для показа
// пользователю: "~3 minute(s)".
func FormatWaitMinutes(d time.Duration) string {
	mins := int((d + time.Minute - 1) / time.Minute)
	if mins < 1 {
		mins = 1
	}
	return fmt.Sprintf("~%d minute(s)", mins)
}

// Truncate обрезает строку до max рун (для логов и превью).
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
