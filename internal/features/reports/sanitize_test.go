package reports

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "two wardens near exit C", "two wardens near exit C"},
		{"collapses whitespace", "  two   wardens\t\tnear  exit ", "two wardens near exit"},
		{"strips control characters", "warden\x00 here\x1b[31m", "warden here [31m"},
		{"strips html tags", `<b>warden</b> spotted <a href="x">here</a>`, "warden spotted here"},
		{"escapes leftovers", `warden & "friend", 2 < 3`, "warden &amp; &#34;friend&#34;, 2 &lt; 3"},
		{"newlines become spaces", "line one\nline two", "line one line two"},
		{"empty stays empty", "   ", ""},
		{"only tags stays empty", "<b></b><i></i>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeDescription(tt.in))
		})
	}
}

func TestSanitizeDescriptionTruncates(t *testing.T) {
	long := strings.Repeat("я", 150)
	got := SanitizeDescription(long)
	assert.Equal(t, 100, len([]rune(got)))
}

// Обрезка после экранирования: итог не длиннее лимита даже когда
// экранирование раздувает текст, и сущность не рвётся посередине.
func TestSanitizeDescriptionTruncatesAfterEscape(t *testing.T) {
	in := strings.Repeat("a", 97) + strings.Repeat("&", 10)
	got := SanitizeDescription(in)
	assert.LessOrEqual(t, len([]rune(got)), 100)
	assert.Equal(t, strings.Repeat("a", 97), got)

	in = strings.Repeat("a", 95) + strings.Repeat("&", 10)
	got = SanitizeDescription(in)
	assert.Equal(t, 100, len([]rune(got)))
	assert.Equal(t, strings.Repeat("a", 95)+"&amp;", got)
}
