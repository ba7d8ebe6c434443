package reports

// Бейджи репортёров по пожизненному числу принятых репортов.
const (
	BadgeNew     = "🆕 New"
	BadgeRegular = "👤 Regular"
	BadgeTrusted = "⭐ Trusted"
	BadgeVeteran = "🏆 Veteran"
)

// BadgeFor возвращает бейдж для счётчика репортов. Нижние границы
// включительны: <3 New, 3–10 Regular, 11–50 Trusted, ≥51 Veteran.
func BadgeFor(reportCount int) string {
	switch {
	case reportCount >= 51:
		return BadgeVeteran
	case reportCount >= 11:
		return BadgeTrusted
	case reportCount >= 3:
		return BadgeRegular
	default:
		return BadgeNew
	}
}
