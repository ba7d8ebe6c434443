package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/db"
	"parkwatch.sg/telegram-bot/internal/features/feedback"
	"parkwatch.sg/telegram-bot/internal/features/reports"
)

// Пользовательские тексты бота. Описание сайтинга уже экранировано
// санитайзером, остальные подстановки — наши собственные строки.

const helpText = `🚨 <b>ParkWatch SG</b> — crowdsourced parking warden alerts

/report — report a warden sighting (or just share your location)
/subscribe — get alerts for a zone
/unsubscribe — stop alerts for a zone
/subscriptions — list your zones
/recent — active sightings in your zones
/mystats — your reporting stats
/help — this message`

const adminHelpText = `🛠 <b>Moderation</b>

/user &lt;user_id&gt; — inspect a user
/warn &lt;user_id&gt; [reason] — issue a warning
/ban &lt;user_id&gt; [reason] — ban a user
/unban &lt;user_id&gt; — lift a ban
/banned — list banned users
/flagged — review queue
/remove &lt;sighting_id&gt; confirm — delete a sighting
/auditlog — recent moderation actions
/stats — global stats
/zonestats &lt;zone&gt; — zone stats`

func alertMessage(s *db.Sighting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 <b>Warden spotted in %s</b>\n", s.Zone)
	fmt.Fprintf(&b, "🕐 %s\n", common.FormatSGTShort(s.ReportedAt))
	if s.Description != "" {
		fmt.Fprintf(&b, "📝 %s\n", s.Description)
	}
	fmt.Fprintf(&b, "👤 %s", s.ReporterBadge)
	return b.String()
}

func sightingLine(now time.Time, s *db.Sighting) string {
	line := fmt.Sprintf("• <b>%s</b> — %d min ago", s.Zone, common.MinutesAgo(now, s.ReportedAt))
	if s.Description != "" {
		line += " — " + s.Description
	}
	return line
}

func recentMessage(now time.Time, sightings []*db.Sighting) string {
	if len(sightings) == 0 {
		return "✅ No active sightings in your zones right now."
	}
	var b strings.Builder
	b.WriteString("🚨 <b>Active sightings in your zones</b>\n\n")
	for _, s := range sightings {
		b.WriteString(sightingLine(now, s))
		b.WriteByte('\n')
	}
	return b.String()
}

// maxZoneSnapMeters — дальше этого расстояния привязка к зоне считается
// сомнительной и пользователя предупреждаем.
const maxZoneSnapMeters = 2000

func locationPromptMessage(zone string, dist, lat, lng float64) string {
	if dist > maxZoneSnapMeters {
		return fmt.Sprintf("📍 You're a bit far from known zones.\nNearest zone: <b>%s</b>\n🌐 GPS: %.6f, %.6f\n\nAdd a short note (e.g. \"2 wardens near exit C\"), or skip.",
			zone, lat, lng)
	}
	return "📍 Looks like <b>" + zone + "</b>. Add a short note (e.g. \"2 wardens near exit C\"), or skip."
}

func reportAcceptedMessage(s *db.Sighting, sent int) string {
	return fmt.Sprintf("✅ Report sent! Alerted %d subscriber(s) in <b>%s</b>.", sent, s.Zone)
}

func rateLimitMessage(err *common.RateLimitError) string {
	return fmt.Sprintf("⏳ You've hit the limit of %d reports per hour. Try again in %s.",
		err.Limit, common.FormatWaitMinutes(err.RetryAfter))
}

func duplicateMessage(err *common.DuplicateError) string {
	mins := int(err.Age.Minutes())
	if err.GPSMatch {
		return fmt.Sprintf("🔁 Someone already reported a warden ~%.0f m from there %d min ago. Your report was merged.",
			err.Distance, mins)
	}
	return fmt.Sprintf("🔁 A warden in %s was already reported %d min ago. Your report was merged.",
		err.Zone, mins)
}

func myStatsMessage(user *db.User, accuracy float64, totalFeedback int, zones []string, history []*db.Sighting, now time.Time) string {
	var b strings.Builder
	b.WriteString("📊 <b>Your stats</b>\n\n")
	fmt.Fprintf(&b, "Reports: %d\n", user.ReportCount)
	fmt.Fprintf(&b, "Badge: %s\n", reports.BadgeFor(user.ReportCount))
	if indicator := feedback.Indicator(accuracy, totalFeedback); indicator != "" {
		fmt.Fprintf(&b, "Accuracy: %.0f%% (%d votes) %s\n", accuracy*100, totalFeedback, indicator)
	}
	if user.Warnings > 0 {
		fmt.Fprintf(&b, "⚠️ Warnings: %d\n", user.Warnings)
	}
	if len(zones) > 0 {
		fmt.Fprintf(&b, "🔔 Subscribed: %s\n", strings.Join(zones, ", "))
	}
	if len(history) > 0 {
		b.WriteString("\n<b>Recent reports</b>\n")
		for _, s := range history {
			b.WriteString(sightingLine(now, s))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func subscriptionsMessage(zones []string) string {
	if len(zones) == 0 {
		return "You have no zone subscriptions yet. Use /subscribe to add one."
	}
	return "🔔 <b>Your zones</b>\n\n• " + strings.Join(zones, "\n• ")
}

func draftMessage(d *draft) string {
	var b strings.Builder
	b.WriteString("📋 <b>Your report</b>\n\n")
	fmt.Fprintf(&b, "Zone: <b>%s</b>\n", d.zone)
	if d.description != "" {
		fmt.Fprintf(&b, "Note: %s\n", reports.SanitizeDescription(d.description))
	}
	if d.lat != nil {
		b.WriteString("📍 GPS attached\n")
	}
	b.WriteString("\nSend it?")
	return b.String()
}

func voteAppliedMessage(s *db.Sighting) string {
	return fmt.Sprintf("Thanks! Current feedback: 👍 %d / 👎 %d", s.FeedbackPositive, s.FeedbackNegative)
}

func userInfoMessage(user *db.User, accuracy float64, totalFeedback int, zones []string, banned bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 <b>User %d</b>", user.ID)
	if user.Username != "" {
		fmt.Fprintf(&b, " (%s)", html.EscapeString(user.Username))
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Reports: %d\n", user.ReportCount)
	fmt.Fprintf(&b, "Badge: %s\n", reports.BadgeFor(user.ReportCount))
	if indicator := feedback.Indicator(accuracy, totalFeedback); indicator != "" {
		fmt.Fprintf(&b, "Accuracy: %.0f%% (%d votes) %s\n", accuracy*100, totalFeedback, indicator)
	}
	fmt.Fprintf(&b, "Warnings: %d\n", user.Warnings)
	if banned {
		b.WriteString("🚫 Banned\n")
	}
	if len(zones) > 0 {
		fmt.Fprintf(&b, "🔔 Subscribed: %s\n", strings.Join(zones, ", "))
	}
	fmt.Fprintf(&b, "Joined: %s", common.FormatSGTShort(user.CreatedAt))
	return b.String()
}

func removeConfirmMessage(now time.Time, s *db.Sighting) string {
	var b strings.Builder
	b.WriteString("🗑 <b>Delete this sighting?</b>\n\n")
	b.WriteString(sightingLine(now, s))
	fmt.Fprintf(&b, "\n👤 Reporter: <code>%d</code>\n", s.ReporterID)
	fmt.Fprintf(&b, "👍 %d / 👎 %d\n", s.FeedbackPositive, s.FeedbackNegative)
	fmt.Fprintf(&b, "\nRepeat with: <code>/remove %s confirm</code>", s.ID)
	return b.String()
}

func bansMessage(bans []*db.Ban) string {
	if len(bans) == 0 {
		return "No banned users."
	}
	var b strings.Builder
	b.WriteString("🚫 <b>Banned users</b>\n\n")
	for _, ban := range bans {
		fmt.Fprintf(&b, "• <code>%d</code> by %d", ban.UserID, ban.BannedBy)
		if ban.Reason != "" {
			fmt.Fprintf(&b, " — %s", ban.Reason)
		}
		fmt.Fprintf(&b, " (%s)\n", common.FormatSGTShort(ban.BannedAt))
	}
	return b.String()
}

func flaggedMessage(sightings []*db.Sighting) string {
	if len(sightings) == 0 {
		return "Review queue is empty."
	}
	var b strings.Builder
	b.WriteString("🚩 <b>Review queue</b>\n\n")
	for _, s := range sightings {
		fmt.Fprintf(&b, "• <code>%s</code> %s 👍%d/👎%d reporter <code>%d</code>\n",
			s.ID, s.Zone, s.FeedbackPositive, s.FeedbackNegative, s.ReporterID)
	}
	b.WriteString("\nUse /remove &lt;sighting_id&gt; to delete.")
	return b.String()
}

func auditLogMessage(entries []*db.AdminAction) string {
	if len(entries) == 0 {
		return "Audit log is empty."
	}
	var b strings.Builder
	b.WriteString("📜 <b>Audit log</b>\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "• %s <b>%s</b>", common.FormatSGTShort(e.CreatedAt), e.Action)
		if e.Target != "" {
			fmt.Fprintf(&b, " → %s", e.Target)
		}
		if e.Detail != "" {
			fmt.Fprintf(&b, " (%s)", e.Detail)
		}
		fmt.Fprintf(&b, " by %d\n", e.AdminID)
	}
	return b.String()
}

func globalStatsMessage(st *db.GlobalStats) string {
	return fmt.Sprintf(`📈 <b>Global stats</b>

Users: %d
Sightings: %d (%d in 24h)
Subscriptions: %d (%d subscribers)
Feedback: 👍 %d / 👎 %d`,
		st.TotalUsers, st.TotalSightings, st.Sightings24h,
		st.ActiveSubscriptions, st.UniqueSubscribers,
		st.FeedbackPositive, st.FeedbackNegative)
}

func zoneStatsMessage(zone string, st *db.ZoneStats) string {
	return fmt.Sprintf(`📈 <b>%s</b>

Subscribers: %d
Sightings: %d in 24h, %d in 7d, %d all time`,
		zone, st.Subscribers, st.Sightings24h, st.Sightings7d, st.SightingsAll)
}
