// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки репортов
var (
	// ErrSightingNotFound — сайтинг не найден (удалён или истёк)
	ErrSightingNotFound = errors.New("сайтинг не найден")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrUnknownZone — зона отсутствует в справочнике
	ErrUnknownZone = errors.New("неизвестная зона")
)

// Ошибки фидбека. Это отказы по вине пользовательского ввода —
// обработчики превращают их в подсказки, в лог они не попадают.
var (
	// ErrSelfVote — попытка оценить собственный сайтинг
	ErrSelfVote = errors.New("нельзя оценивать собственный сайтинг")
	// ErrFeedbackClosed — окно приёма фидбека закрыто
	ErrFeedbackClosed = errors.New("окно фидбека закрыто")
	// ErrDuplicateVote — такой голос уже учтён
	ErrDuplicateVote = errors.New("этот голос уже учтён")
)

// Ошибки модерации
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrBanned — пользователь забанен
	ErrBanned = errors.New("пользователь забанен")
	// ErrAdminImmune — админа забанить нельзя
	ErrAdminImmune = errors.New("нельзя забанить администратора")
	// ErrNotBanned — пользователь и так не забанен
	ErrNotBanned = errors.New("пользователь не забанен")
)

// RateLimitError — лимит репортов в час исчерпан.
// RetryAfter не меньше 1 минуты; округление вверх до минут делает слой отображения.
type RateLimitError struct {
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("лимит %d репортов в час исчерпан, повторите через %s", e.Limit, e.RetryAfter)
}

// DuplicateError — репорт подавлен как дубликат недавнего сайтинга.
// GPSMatch=true означает совпадение по расстоянию, false — по зоне
// (когда хотя бы у одной стороны нет координат).
type DuplicateError struct {
	MatchedID string
	Zone      string
	Distance  float64 // метры; имеет смысл только при GPSMatch
	Age       time.Duration
	GPSMatch  bool
}

func (e *DuplicateError) Error() string {
	if e.GPSMatch {
		return fmt.Sprintf("дубликат: сайтинг %s в %.0f м, %s назад", e.MatchedID, e.Distance, e.Age)
	}
	return fmt.Sprintf("дубликат: сайтинг %s в зоне %s, %s назад", e.MatchedID, e.Zone, e.Age)
}
