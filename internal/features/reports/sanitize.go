package reports

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

// maxDescriptionLen — предел длины описания в рунах.
const maxDescriptionLen = 100

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// SanitizeDescription приводит пользовательский текст к безопасному
// виду: убирает управляющие символы, вырезает HTML-теги, схлопывает
// пробелы, экранирует остаток (описание попадает в сообщения с
// parse_mode=HTML) и обрезает до maxDescriptionLen рун. Обрезка идёт
// после экранирования, поэтому сохранённая строка никогда не длиннее
// лимита. Пустой результат означает "без описания".
func SanitizeDescription(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}

	cleaned := htmlTagRe.ReplaceAllString(b.String(), "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	escaped := html.EscapeString(cleaned)
	if r := []rune(escaped); len(r) > maxDescriptionLen {
		r = r[:maxDescriptionLen]
		// Не оставляем оборванную HTML-сущность на конце.
		for i := len(r) - 1; i >= 0 && i >= len(r)-6; i-- {
			if r[i] == ';' {
				break
			}
			if r[i] == '&' {
				r = r[:i]
				break
			}
		}
		escaped = strings.TrimRight(string(r), " ")
	}
	return escaped
}
