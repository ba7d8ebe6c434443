// Package middleware содержит промежуточные обработчики транспорта:
// логирование апдейтов, восстановление после паники и флуд-лимит.
package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// LogUpdate логирует входящий апдейт: сообщение или callback от кнопки.
// Текст обрезается, локация логируется фактом, без координат.
func LogUpdate(update *tgbotapi.Update) {
	if update == nil {
		return
	}

	if msg := update.Message; msg != nil && msg.From != nil {
		text := msg.Text
		if len(text) > 50 {
			text = text[:50] + "..."
		}
		log.WithFields(log.Fields{
			"user_id":      msg.From.ID,
			"username":     msg.From.UserName,
			"text":         text,
			"has_location": msg.Location != nil,
		}).Debug("Входящее сообщение")
		return
	}

	if cb := update.CallbackQuery; cb != nil && cb.From != nil {
		log.WithFields(log.Fields{
			"user_id": cb.From.ID,
			"data":    cb.Data,
		}).Debug("Входящий callback")
	}
}
