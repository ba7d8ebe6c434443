package feedback

// minFeedbackForIndicator — ниже этого числа голосов индикатор
// точности не показывается: выборка слишком мала.
const minFeedbackForIndicator = 3

// Индикаторы точности репортёра.
const (
	IndicatorReliable = "✅ Reliable"
	IndicatorMixed    = "⚠️ Mixed"
	IndicatorLow      = "❌ Low accuracy"
)

// Accuracy считает долю позитивных голосов. Ноль голосов даёт (0.0, 0),
// а не (1.0, 0): непроверенный репортёр не должен выглядеть на 100%
// точным.
func Accuracy(pos, neg int) (float64, int) {
	total := pos + neg
	if total == 0 {
		return 0.0, 0
	}
	return float64(pos) / float64(total), total
}

// Indicator возвращает текстовый индикатор точности либо пустую
// строку, если голосов меньше minFeedbackForIndicator.
func Indicator(accuracy float64, total int) string {
	if total < minFeedbackForIndicator {
		return ""
	}
	switch {
	case accuracy >= 0.8:
		return IndicatorReliable
	case accuracy >= 0.5:
		return IndicatorMixed
	default:
		return IndicatorLow
	}
}
