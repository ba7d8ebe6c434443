package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"parkwatch.sg/telegram-bot/internal/geo"
)

// Префиксы callback data. Суффикс после префикса — ключ региона,
// имя зоны или id сайтинга.
const (
	cbSubRegion = "sub_region_"
	cbSubZone   = "sub_zone_"
	cbSubBack   = "sub_back"
	cbSubDone   = "sub_done"
	cbUnsubZone = "unsub_zone_"
	cbRepRegion = "rep_region_"
	cbRepZone   = "rep_zone_"
	cbRepSkip   = "rep_skip"
	cbRepSend   = "rep_send"
	cbRepCancel = "rep_cancel"
	cbVotePos   = "fb_pos_"
	cbVoteNeg   = "fb_neg_"
)

// regionKeyboard — выбор региона; prefix определяет, чей это поток
// (подписка или репорт).
func regionKeyboard(prefix string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, key := range geo.RegionKeys() {
		region := geo.Regions[key]
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(region.Name, prefix+key),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// zoneKeyboard — зоны региона по две в ряд.
func zoneKeyboard(regionKey, prefix string) tgbotapi.InlineKeyboardMarkup {
	region := geo.Regions[regionKey]
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, zone := range region.Zones {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(zone, prefix+zone))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// subscribeZoneKeyboard — зоны региона как переключатели: повторное
// нажатие снимает подписку, галочка показывает текущее состояние.
func subscribeZoneKeyboard(regionKey string, subscribed map[string]bool) tgbotapi.InlineKeyboardMarkup {
	region := geo.Regions[regionKey]
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, zone := range region.Zones {
		label := zone
		if subscribed[zone] {
			label = "✅ " + zone
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cbSubZone+zone))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Regions", cbSubBack),
		tgbotapi.NewInlineKeyboardButtonData("Done", cbSubDone),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// unsubscribeKeyboard — текущие подписки пользователя, по одной в ряд.
func unsubscribeKeyboard(zones []string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, zone := range zones {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ "+zone, cbUnsubZone+zone),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// confirmKeyboard — подтверждение черновика репорта.
func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Send", cbRepSend),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cbRepCancel),
		),
	)
}

// skipKeyboard — пропустить описание в черновике.
func skipKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Skip description", cbRepSkip),
		),
	)
}

// feedbackKeyboard — кнопки голосования под алертом.
func feedbackKeyboard(sightingID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👍 Still there", cbVotePos+sightingID),
			tgbotapi.NewInlineKeyboardButtonData("👎 Gone / wrong", cbVoteNeg+sightingID),
		),
	)
}
