package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/geo"
)

// routeAdminCommand обрабатывает команды модерации. Доступ уже
// проверен allowlist'ом.
func (b *Bot) routeAdminCommand(ctx context.Context, chatID, adminID int64, cmd string, args []string) {
	switch cmd {
	case "warn":
		targetID, ok := parseUserID(args)
		if !ok {
			b.sendMessage(chatID, "Usage: /warn <user_id> [reason]")
			return
		}
		reason := strings.Join(args[1:], " ")
		warnings, banned, err := b.moderationService.Warn(ctx, adminID, targetID, reason)
		switch {
		case errors.Is(err, common.ErrAdminImmune):
			b.sendMessage(chatID, "Admins can't be warned.")
		case errors.Is(err, common.ErrUserNotFound):
			b.sendMessage(chatID, "Unknown user id.")
		case err != nil:
			b.sendError(chatID, err)
		case banned:
			b.sendMessage(chatID, fmt.Sprintf("⚠️ Warning %d issued — user <code>%d</code> auto-banned.", warnings, targetID))
		default:
			b.sendMessage(chatID, fmt.Sprintf("⚠️ Warning %d of %d issued to <code>%d</code>.", warnings, b.cfg.MaxWarnings, targetID))
		}

	case "ban":
		targetID, ok := parseUserID(args)
		if !ok {
			b.sendMessage(chatID, "Usage: /ban <user_id> [reason]")
			return
		}
		reason := strings.Join(args[1:], " ")
		err := b.moderationService.Ban(ctx, adminID, targetID, reason)
		switch {
		case errors.Is(err, common.ErrAdminImmune):
			b.sendMessage(chatID, "Admins can't be banned.")
		case err != nil:
			b.sendError(chatID, err)
		default:
			b.sendMessage(chatID, fmt.Sprintf("🚫 User <code>%d</code> banned.", targetID))
		}

	case "unban":
		targetID, ok := parseUserID(args)
		if !ok {
			b.sendMessage(chatID, "Usage: /unban <user_id>")
			return
		}
		err := b.moderationService.Unban(ctx, adminID, targetID)
		switch {
		case errors.Is(err, common.ErrNotBanned):
			b.sendMessage(chatID, "That user isn't banned.")
		case err != nil:
			b.sendError(chatID, err)
		default:
			b.sendMessage(chatID, fmt.Sprintf("✅ User <code>%d</code> unbanned, warnings reset.", targetID))
		}

	case "banned":
		bans, err := b.moderationService.BannedList(ctx)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendMessage(chatID, bansMessage(bans))

	case "flagged":
		queue, err := b.moderationService.ReviewQueue(ctx, 10)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendMessage(chatID, flaggedMessage(queue))

	case "user":
		targetID, ok := parseUserID(args)
		if !ok {
			b.sendMessage(chatID, "Usage: /user <user_id>")
			return
		}
		user, err := b.store.GetUser(ctx, targetID)
		if errors.Is(err, common.ErrUserNotFound) {
			b.sendMessage(chatID, "Unknown user id.")
			return
		}
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		accuracy, total, err := b.feedbackService.Score(ctx, targetID)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		zones, err := b.subscriptionService.List(ctx, targetID)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		banned, err := b.moderationService.IsBanned(ctx, targetID)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendMessage(chatID, userInfoMessage(user, accuracy, total, zones, banned))

	case "remove":
		if len(args) == 0 {
			b.sendMessage(chatID, "Usage: /remove <sighting_id> [confirm]")
			return
		}
		// Удаление необратимо, поэтому без "confirm" показываем
		// сайтинг и просим повторить команду.
		if len(args) < 2 || args[1] != "confirm" {
			sg, err := b.store.GetSighting(ctx, args[0])
			switch {
			case errors.Is(err, common.ErrSightingNotFound):
				b.sendMessage(chatID, "No such sighting.")
			case err != nil:
				b.sendError(chatID, err)
			default:
				b.sendMessage(chatID, removeConfirmMessage(b.clock.Now(), sg))
			}
			return
		}
		removed, err := b.moderationService.RemoveSighting(ctx, adminID, args[0])
		switch {
		case errors.Is(err, common.ErrSightingNotFound):
			b.sendMessage(chatID, "No such sighting.")
		case err != nil:
			b.sendError(chatID, err)
		default:
			b.sendMessage(chatID, fmt.Sprintf("🗑 Sighting in %s removed.", removed.Zone))
		}

	case "auditlog":
		entries, err := b.moderationService.AuditLog(ctx, 15)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendMessage(chatID, auditLogMessage(entries))

	case "stats":
		st, err := b.store.GlobalStats(ctx, b.clock.Now())
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendMessage(chatID, globalStatsMessage(st))

	case "zonestats":
		zone, ok := geo.ValidZone(strings.Join(args, " "))
		if !ok {
			b.sendMessage(chatID, "Usage: /zonestats <zone>")
			return
		}
		st, err := b.store.ZoneStats(ctx, zone, b.clock.Now())
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendMessage(chatID, zoneStatsMessage(zone, st))
	}
}
