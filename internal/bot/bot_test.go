package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantCmd  string
		wantArgs []string
		wantOK   bool
	}{
		{"plain command", "/report", "report", nil, true},
		{"command with args", "/warn 12345 spamming fake reports", "warn", []string{"12345", "spamming", "fake", "reports"}, true},
		{"bot mention stripped", "/recent@ParkWatchSGBot", "recent", nil, true},
		{"uppercase normalized", "/RECENT", "recent", nil, true},
		{"leading whitespace", "  /help", "help", nil, true},
		{"not a command", "hello there", "", nil, false},
		{"bare slash", "/", "", nil, false},
		{"empty", "", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := parseCommand(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestParseUserID(t *testing.T) {
	id, ok := parseUserID([]string{"12345", "reason"})
	require.True(t, ok)
	assert.Equal(t, int64(12345), id)

	_, ok = parseUserID(nil)
	assert.False(t, ok)

	_, ok = parseUserID([]string{"bob"})
	assert.False(t, ok)

	_, ok = parseUserID([]string{"-7"})
	assert.False(t, ok)
}

func TestDraftLifecycle(t *testing.T) {
	d := newDrafts()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	d.begin(100, now)
	ok := d.update(100, now, func(dr *draft) {
		dr.zone = "Bugis"
		dr.state = draftConfirm
	})
	require.True(t, ok)

	dr, live := d.get(100, now.Add(5*time.Minute))
	require.True(t, live)
	assert.Equal(t, "Bugis", dr.zone)
	assert.Equal(t, draftConfirm, dr.state)

	// Протухший черновик исчезает.
	_, live = d.get(100, now.Add(draftTTL+time.Minute))
	assert.False(t, live)

	// Повторный begin затирает старое состояние.
	d.begin(200, now)
	d.update(200, now, func(dr *draft) { dr.zone = "Bedok" })
	d.begin(200, now)
	dr, live = d.get(200, now)
	require.True(t, live)
	assert.Empty(t, dr.zone)
	assert.Equal(t, draftRegion, dr.state)
}

func TestDraftUpdateExpired(t *testing.T) {
	d := newDrafts()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	d.begin(100, now)
	ok := d.update(100, now.Add(draftTTL+time.Second), func(dr *draft) { dr.zone = "Bugis" })
	assert.False(t, ok)
}
