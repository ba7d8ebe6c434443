// Package bot содержит Telegram-транспорт: инициализацию, polling,
// маршрутизацию команд и callback-кнопок, диалог репорта.
package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/bot/filters"
	"parkwatch.sg/telegram-bot/internal/bot/middleware"
	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/db"
	"parkwatch.sg/telegram-bot/internal/features/broadcast"
	"parkwatch.sg/telegram-bot/internal/features/feedback"
	"parkwatch.sg/telegram-bot/internal/features/moderation"
	"parkwatch.sg/telegram-bot/internal/features/reports"
	"parkwatch.sg/telegram-bot/internal/features/subscriptions"
	"parkwatch.sg/telegram-bot/internal/geo"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api   *tgbotapi.BotAPI
	cfg   *config.Config
	clock common.Clock
	store db.Store

	access       *filters.AccessFilter
	floodLimiter *middleware.FloodLimiter

	reportService       *reports.Service
	feedbackService     *feedback.Service
	moderationService   *moderation.Service
	subscriptionService *subscriptions.Service

	drafts *drafts

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	clock common.Clock,
	store db.Store,
	reportService *reports.Service,
	feedbackService *feedback.Service,
	moderationService *moderation.Service,
	subscriptionService *subscriptions.Service,
	access *filters.AccessFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:                 api,
		cfg:                 cfg,
		clock:               clock,
		store:               store,
		access:              access,
		floodLimiter:        middleware.NewFloodLimiter(cfg.FloodLimitRequests, cfg.FloodLimitWindow),
		reportService:       reportService,
		feedbackService:     feedbackService,
		moderationService:   moderationService,
		subscriptionService: subscriptionService,
		drafts:              newDrafts(),
		inflight:            make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.floodLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.floodLimiter.Close()
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	middleware.LogUpdate(&update)

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}
	message := update.Message
	userID := message.From.ID
	chatID := message.Chat.ID

	if !b.floodLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}
	if !b.access.CheckAccess(ctx, userID) {
		return
	}

	if message.Location != nil {
		b.handleLocation(ctx, chatID, userID, message.Location)
		return
	}

	cmd, args, isCommand := parseCommand(message.Text)
	if isCommand {
		b.routeCommand(ctx, chatID, userID, displayName(message.From), cmd, args)
		return
	}

	// Не команда: возможно, это текст описания для открытого черновика.
	b.handleDraftText(ctx, chatID, userID, message.Text)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, username, cmd string, args []string) {
	switch cmd {
	case "start", "help":
		if err := b.store.EnsureUser(ctx, userID, username); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("EnsureUser failed")
		}
		text := helpText
		if b.access.IsAdmin(userID) {
			text += "\n\n" + adminHelpText
		}
		b.sendMessage(chatID, text)

	case "report":
		b.drafts.begin(userID, b.clock.Now())
		msg := tgbotapi.NewMessage(chatID, "Where did you spot the warden? Pick a region, or just share your location.")
		msg.ReplyMarkup = regionKeyboard(cbRepRegion)
		b.send(msg)

	case "subscribe":
		msg := tgbotapi.NewMessage(chatID, "Pick a region to subscribe:")
		msg.ReplyMarkup = regionKeyboard(cbSubRegion)
		b.send(msg)

	case "unsubscribe":
		zones, err := b.subscriptionService.List(ctx, userID)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		if len(zones) == 0 {
			b.sendMessage(chatID, "You have no subscriptions to remove.")
			return
		}
		msg := tgbotapi.NewMessage(chatID, "Tap a zone to unsubscribe:")
		msg.ReplyMarkup = unsubscribeKeyboard(zones)
		b.send(msg)

	case "subscriptions":
		zones, err := b.subscriptionService.List(ctx, userID)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendMessage(chatID, subscriptionsMessage(zones))

	case "recent":
		b.handleRecent(ctx, chatID, userID)

	case "mystats":
		b.handleMyStats(ctx, chatID, userID)

	case "user", "warn", "ban", "unban", "banned", "flagged", "remove", "auditlog", "stats", "zonestats":
		if !b.access.IsAdmin(userID) {
			b.sendMessage(chatID, "⛔ Admins only.")
			return
		}
		b.routeAdminCommand(ctx, chatID, userID, cmd, args)

	default:
		b.sendMessage(chatID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleRecent(ctx context.Context, chatID, userID int64) {
	zones, err := b.subscriptionService.List(ctx, userID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(zones) == 0 {
		b.sendMessage(chatID, "Subscribe to a zone first — /subscribe.")
		return
	}
	sightings, err := b.reportService.ActiveInZones(ctx, zones)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendMessage(chatID, recentMessage(b.clock.Now(), sightings))
}

func (b *Bot) handleMyStats(ctx context.Context, chatID, userID int64) {
	user, err := b.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			b.sendMessage(chatID, "No stats yet — send your first /report!")
			return
		}
		b.sendError(chatID, err)
		return
	}
	accuracy, total, err := b.feedbackService.Score(ctx, userID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	zones, err := b.subscriptionService.List(ctx, userID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	history, err := b.reportService.History(ctx, userID, 5)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendMessage(chatID, myStatsMessage(user, accuracy, total, zones, history, b.clock.Now()))
}

// handleLocation привязывает GPS к ближайшей зоне и открывает черновик.
func (b *Bot) handleLocation(ctx context.Context, chatID, userID int64, loc *tgbotapi.Location) {
	zone, dist := b.reportService.ResolveZone(loc.Latitude, loc.Longitude)
	lat, lng := loc.Latitude, loc.Longitude

	dr := b.drafts.begin(userID, b.clock.Now())
	dr.zone = zone
	dr.lat = &lat
	dr.lng = &lng
	dr.state = draftNote

	log.WithFields(log.Fields{
		"user_id":  userID,
		"zone":     zone,
		"distance": int(dist),
	}).Debug("Локация привязана к зоне")

	msg := tgbotapi.NewMessage(chatID, locationPromptMessage(zone, dist, lat, lng))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = skipKeyboard()
	b.send(msg)
}

// handleDraftText принимает текст описания, если черновик его ждёт.
func (b *Bot) handleDraftText(_ context.Context, chatID, userID int64, text string) {
	now := b.clock.Now()
	ok := b.drafts.update(userID, now, func(d *draft) {
		if d.state == draftNote {
			d.description = text
			d.state = draftConfirm
		}
	})
	if !ok {
		return
	}
	dr, live := b.drafts.get(userID, now)
	if !live || dr.state != draftConfirm {
		return
	}
	msg := tgbotapi.NewMessage(chatID, draftMessage(dr))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = confirmKeyboard()
	b.send(msg)
}

// handleCallback маршрутизирует нажатия inline-кнопок.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}
	userID := cb.From.ID

	if !b.floodLimiter.Allow(userID) {
		b.answerCallback(cb.ID, "Slow down a little.")
		return
	}
	if !b.access.CheckAccess(ctx, userID) {
		b.answerCallback(cb.ID, "")
		return
	}

	chatID := userID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}
	data := cb.Data

	switch {
	case strings.HasPrefix(data, cbSubRegion):
		key := strings.TrimPrefix(data, cbSubRegion)
		b.editKeyboard(cb, "Pick zones in "+geo.Regions[key].Name+" (tap again to remove):",
			subscribeZoneKeyboard(key, b.subscribedSet(ctx, userID)))

	case data == cbSubBack:
		b.editKeyboard(cb, "Pick a region to subscribe:", regionKeyboard(cbSubRegion))

	case data == cbSubDone:
		zones, err := b.subscriptionService.List(ctx, userID)
		if err != nil {
			b.answerCallback(cb.ID, "Something went wrong, try again.")
			return
		}
		b.editText(cb, subscriptionsMessage(zones))

	case strings.HasPrefix(data, cbSubZone):
		zone := strings.TrimPrefix(data, cbSubZone)
		subs := b.subscribedSet(ctx, userID)
		if subs[zone] {
			if err := b.subscriptionService.Unsubscribe(ctx, userID, zone); err != nil {
				b.answerCallback(cb.ID, "Could not unsubscribe, try again.")
				return
			}
			delete(subs, zone)
			b.answerCallback(cb.ID, "Unsubscribed from "+zone)
		} else {
			if err := b.subscriptionService.Subscribe(ctx, userID, displayName(cb.From), zone); err != nil {
				b.answerCallback(cb.ID, "Could not subscribe, try again.")
				log.WithError(err).WithField("zone", zone).Warn("Subscribe failed")
				return
			}
			subs[zone] = true
			b.answerCallback(cb.ID, "Subscribed to "+zone+" 🔔")
		}
		if key, ok := geo.RegionOfZone(zone); ok && cb.Message != nil {
			edit := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
				subscribeZoneKeyboard(key, subs))
			if _, err := b.api.Send(edit); err != nil {
				log.WithError(err).Debug("Ошибка правки клавиатуры")
			}
		}

	case strings.HasPrefix(data, cbUnsubZone):
		zone := strings.TrimPrefix(data, cbUnsubZone)
		if err := b.subscriptionService.Unsubscribe(ctx, userID, zone); err != nil {
			b.answerCallback(cb.ID, "Could not unsubscribe, try again.")
			return
		}
		b.answerCallback(cb.ID, "Unsubscribed from "+zone)

	case strings.HasPrefix(data, cbRepRegion):
		key := strings.TrimPrefix(data, cbRepRegion)
		now := b.clock.Now()
		if !b.drafts.update(userID, now, func(d *draft) { d.state = draftZone }) {
			b.answerCallback(cb.ID, "Report expired, send /report again.")
			return
		}
		b.editKeyboard(cb, "Pick the zone:", zoneKeyboard(key, cbRepZone))

	case strings.HasPrefix(data, cbRepZone):
		zone := strings.TrimPrefix(data, cbRepZone)
		now := b.clock.Now()
		if !b.drafts.update(userID, now, func(d *draft) {
			d.zone = zone
			d.state = draftNote
		}) {
			b.answerCallback(cb.ID, "Report expired, send /report again.")
			return
		}
		b.answerCallback(cb.ID, "")
		msg := tgbotapi.NewMessage(chatID, "Add a short note, or skip.")
		msg.ReplyMarkup = skipKeyboard()
		b.send(msg)

	case data == cbRepSkip:
		now := b.clock.Now()
		if !b.drafts.update(userID, now, func(d *draft) { d.state = draftConfirm }) {
			b.answerCallback(cb.ID, "Report expired, send /report again.")
			return
		}
		dr, _ := b.drafts.get(userID, now)
		b.answerCallback(cb.ID, "")
		msg := tgbotapi.NewMessage(chatID, draftMessage(dr))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = confirmKeyboard()
		b.send(msg)

	case data == cbRepSend:
		b.submitDraft(ctx, cb, chatID, userID)

	case data == cbRepCancel:
		b.drafts.drop(userID)
		b.answerCallback(cb.ID, "Report discarded.")

	case strings.HasPrefix(data, cbVotePos):
		b.handleVote(ctx, cb, strings.TrimPrefix(data, cbVotePos), db.VotePositive)

	case strings.HasPrefix(data, cbVoteNeg):
		b.handleVote(ctx, cb, strings.TrimPrefix(data, cbVoteNeg), db.VoteNegative)

	default:
		b.answerCallback(cb.ID, "")
	}
}

// submitDraft прогоняет черновик через конвейер репортов и рассылает
// алерт подписчикам зоны.
func (b *Bot) submitDraft(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID, userID int64) {
	now := b.clock.Now()
	dr, ok := b.drafts.get(userID, now)
	if !ok || dr.state != draftConfirm || dr.zone == "" {
		b.answerCallback(cb.ID, "Report expired, send /report again.")
		return
	}
	b.drafts.drop(userID)

	sighting, err := b.reportService.Submit(ctx, reports.SubmitRequest{
		ReporterID:   userID,
		ReporterName: displayName(cb.From),
		Zone:         dr.zone,
		Description:  dr.description,
		Lat:          dr.lat,
		Lng:          dr.lng,
	})
	if err != nil {
		b.answerCallback(cb.ID, "")
		var rle *common.RateLimitError
		var dup *common.DuplicateError
		switch {
		case errors.As(err, &rle):
			b.sendMessage(chatID, rateLimitMessage(rle))
		case errors.As(err, &dup):
			b.sendMessage(chatID, duplicateMessage(dup))
		case errors.Is(err, common.ErrUnknownZone):
			b.sendMessage(chatID, "That zone isn't on the list. Send /report to start over.")
		default:
			b.sendError(chatID, err)
		}
		return
	}

	dispatcher := broadcast.NewDispatcher(b.store, NewAlertNotifier(b.api, sighting.ID), b.cfg.BroadcastWorkers)
	res, err := dispatcher.Broadcast(ctx, sighting.Zone, alertMessage(sighting), userID)
	if err != nil {
		log.WithError(err).WithField("zone", sighting.Zone).Error("Ошибка рассылки алерта")
		res = &broadcast.Result{}
	}

	b.answerCallback(cb.ID, "")
	b.sendMessage(chatID, reportAcceptedMessage(sighting, res.Sent))
}

// handleVote применяет голос и дёргает авто-флаг модерации.
func (b *Bot) handleVote(ctx context.Context, cb *tgbotapi.CallbackQuery, sightingID string, vote db.Vote) {
	updated, err := b.feedbackService.Apply(ctx, sightingID, cb.From.ID, vote)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrSightingNotFound):
			b.answerCallback(cb.ID, "This sighting has expired.")
		case errors.Is(err, common.ErrSelfVote):
			b.answerCallback(cb.ID, "You can't vote on your own report.")
		case errors.Is(err, common.ErrFeedbackClosed):
			b.answerCallback(cb.ID, "Voting on this sighting has closed.")
		case errors.Is(err, common.ErrDuplicateVote):
			b.answerCallback(cb.ID, "Already counted.")
		default:
			b.answerCallback(cb.ID, "Something went wrong, try again.")
			log.WithError(err).WithField("sighting_id", sightingID).Error("Ошибка применения голоса")
		}
		return
	}

	if _, err := b.moderationService.CheckAutoFlag(ctx, updated); err != nil {
		log.WithError(err).WithField("sighting_id", sightingID).Error("Ошибка авто-флага")
	}

	b.answerCallback(cb.ID, voteAppliedMessage(updated))
}

// --- Утилиты отправки ---

// sendMessage — утилита для отправки HTML-сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(msg)
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", msg.ChatID).Error("Ошибка отправки сообщения")
	}
}

func (b *Bot) sendError(chatID int64, err error) {
	log.WithError(err).WithField("chat_id", chatID).Error("Ошибка обработки команды")
	b.sendMessage(chatID, "Something went wrong, please try again later.")
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		log.WithError(err).Debug("Ошибка ответа на callback")
	}
}

// subscribedSet — текущие подписки как множество; при ошибке чтения
// пустое (клавиатура просто не покажет галочки).
func (b *Bot) subscribedSet(ctx context.Context, userID int64) map[string]bool {
	zones, err := b.subscriptionService.List(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Ошибка чтения подписок")
		return map[string]bool{}
	}
	set := make(map[string]bool, len(zones))
	for _, z := range zones {
		set[z] = true
	}
	return set
}

// editText заменяет текст сообщения с кнопками и убирает клавиатуру.
func (b *Bot) editText(cb *tgbotapi.CallbackQuery, text string) {
	b.answerCallback(cb.ID, "")
	if cb.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		log.WithError(err).Debug("Ошибка правки сообщения")
	}
}

// editKeyboard меняет текст и клавиатуру сообщения с кнопками.
func (b *Bot) editKeyboard(cb *tgbotapi.CallbackQuery, text string, kb tgbotapi.InlineKeyboardMarkup) {
	b.answerCallback(cb.ID, "")
	if cb.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID, text, kb)
	if _, err := b.api.Send(edit); err != nil {
		log.WithError(err).Debug("Ошибка правки клавиатуры")
	}
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// parseCommand разбирает "/cmd@bot arg1 arg2" на команду и аргументы.
func parseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	parts := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	// В группах Telegram дописывает @имябота.
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}

// parseUserID — первый аргумент админ-команды как числовой id.
func parseUserID(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
