package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"parkwatch.sg/telegram-bot/internal/features/broadcast"
)

// Notifier — адаптер доставки для диспетчера рассылок поверх Telegram.
// markup опционален: алерты несут кнопки голосования.
type Notifier struct {
	api    *tgbotapi.BotAPI
	markup *tgbotapi.InlineKeyboardMarkup
}

func NewNotifier(api *tgbotapi.BotAPI) *Notifier {
	return &Notifier{api: api}
}

// NewAlertNotifier прикрепляет к каждому сообщению кнопки фидбека
// по конкретному сайтингу.
func NewAlertNotifier(api *tgbotapi.BotAPI, sightingID string) *Notifier {
	kb := feedbackKeyboard(sightingID)
	return &Notifier{api: api, markup: &kb}
}

// Send отправляет одно сообщение. Постоянные отказы (бот заблокирован,
// аккаунт удалён, чат не найден) оборачиваются broadcast.ErrUnreachable,
// чтобы диспетчер вычистил подписки получателя; всё остальное —
// временный сбой.
func (n *Notifier) Send(_ context.Context, userID int64, message string) error {
	msg := tgbotapi.NewMessage(userID, message)
	msg.ParseMode = tgbotapi.ModeHTML
	if n.markup != nil {
		msg.ReplyMarkup = *n.markup
	}
	if _, err := n.api.Send(msg); err != nil {
		if isPermanent(err) {
			return fmt.Errorf("%w: %s", broadcast.ErrUnreachable, err)
		}
		return err
	}
	return nil
}

func isPermanent(err error) bool {
	text := err.Error()
	return strings.Contains(text, "Forbidden") ||
		strings.Contains(text, "user is deactivated") ||
		strings.Contains(text, "chat not found")
}
