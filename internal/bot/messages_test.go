package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkwatch.sg/telegram-bot/internal/db"
)

func TestLocationPromptMessage(t *testing.T) {
	near := locationPromptMessage("Tampines", 350, 1.352083, 103.944444)
	assert.Contains(t, near, "Looks like <b>Tampines</b>")
	assert.NotContains(t, near, "far from known zones")

	far := locationPromptMessage("Tampines", 2500, 1.352083, 103.944444)
	assert.Contains(t, far, "far from known zones")
	assert.Contains(t, far, "Nearest zone: <b>Tampines</b>")
	assert.Contains(t, far, "1.352083, 103.944444")
	assert.Contains(t, far, "or skip")
}

func TestMyStatsMessageListsSubscriptions(t *testing.T) {
	user := &db.User{ID: 42, ReportCount: 7}
	msg := myStatsMessage(user, 0, 0, []string{"Tampines", "Bedok"}, nil, time.Now())
	assert.Contains(t, msg, "🔔 Subscribed: Tampines, Bedok")

	msg = myStatsMessage(user, 0, 0, nil, nil, time.Now())
	assert.NotContains(t, msg, "Subscribed")
}

func TestUserInfoMessage(t *testing.T) {
	user := &db.User{
		ID:          42,
		Username:    "bob <script>",
		ReportCount: 15,
		Warnings:    2,
		CreatedAt:   time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
	}
	msg := userInfoMessage(user, 0.9, 10, []string{"Katong"}, true)
	assert.Contains(t, msg, "User 42")
	assert.Contains(t, msg, "bob &lt;script&gt;")
	assert.NotContains(t, msg, "<script>")
	assert.Contains(t, msg, "Badge: ⭐ Trusted")
	assert.Contains(t, msg, "Warnings: 2")
	assert.Contains(t, msg, "🚫 Banned")
	assert.Contains(t, msg, "Katong")
}

func TestRemoveConfirmMessage(t *testing.T) {
	now := time.Now()
	sg := &db.Sighting{
		ID:         "abc-123",
		Zone:       "Bedok",
		ReportedAt: now.Add(-10 * time.Minute),
		ReporterID: 99,
	}
	msg := removeConfirmMessage(now, sg)
	assert.Contains(t, msg, "Delete this sighting?")
	assert.Contains(t, msg, "<b>Bedok</b>")
	assert.Contains(t, msg, "/remove abc-123 confirm")
}

func TestSubscribeZoneKeyboard(t *testing.T) {
	kb := subscribeZoneKeyboard("east", map[string]bool{"Tampines": true})

	var labels, data []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			labels = append(labels, btn.Text)
			require.NotNil(t, btn.CallbackData)
			data = append(data, *btn.CallbackData)
		}
	}
	assert.Contains(t, labels, "✅ Tampines")
	assert.Contains(t, labels, "Bedok")
	assert.NotContains(t, labels, "✅ Bedok")
	assert.Contains(t, data, cbSubZone+"Tampines")

	// Последний ряд — навигация.
	last := kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
	require.Len(t, last, 2)
	assert.Equal(t, cbSubBack, *last[0].CallbackData)
	assert.Equal(t, cbSubDone, *last[1].CallbackData)
	assert.True(t, strings.HasPrefix(last[1].Text, "Done"))
}
