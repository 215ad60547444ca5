package eligibility

import (
	"regexp"
	"strconv"
	"strings"

	"niche-pacer/internal/domain"
)

var (
	zeroMarkers = []string{
		"be the first to like this",
		"no likes yet",
		"станьте первым",
		"нет отметок",
	}
	hiddenMarkers = []string{
		"others",
		"другим",
		"и другие",
	}

	countPattern = regexp.MustCompile(`^([0-9][0-9.,\s]*)\s*([kmкм])?\s*(likes?|отмет.*|лайк.*)$`)
	mediaPattern = regexp.MustCompile(`^([0-9][0-9.,\s]*)\s*([kmкм])?\s*(views?|plays?|просмотр\S*|воспроизвед\S*)$`)
	spaces       = regexp.MustCompile(`\s+`)
)

// ClassifySignal переводит текст счётчика реакций в один из известных видов сигнала.
// Неизвестный текст сохраняется в Raw и получает вид domain.SignalUnknown.
func ClassifySignal(text string) domain.EngagementSignal {
	raw := strings.TrimSpace(text)
	normalized := strings.ReplaceAll(raw, "\u00a0", " ")
	normalized = strings.ToLower(spaces.ReplaceAllString(normalized, " "))
	signal := domain.EngagementSignal{Kind: domain.SignalUnknown, Raw: raw}
	if normalized == "" {
		return signal
	}

	for _, marker := range zeroMarkers {
		if strings.Contains(normalized, marker) {
			signal.Kind = domain.SignalNone
			return signal
		}
	}

	if m := countPattern.FindStringSubmatch(normalized); m != nil {
		count, ok := parseCount(m[1], m[2])
		if !ok {
			return signal
		}
		if count == 0 {
			signal.Kind = domain.SignalNone
			return signal
		}
		signal.Kind = domain.SignalCount
		signal.Count = count
		return signal
	}

	for _, marker := range hiddenMarkers {
		if strings.Contains(normalized, marker) {
			signal.Kind = domain.SignalHidden
			return signal
		}
	}

	if mediaPattern.MatchString(normalized) {
		signal.Kind = domain.SignalMedia
		return signal
	}
	return signal
}

// parseCount разбирает «1,234», «1 234», «1.2k». С суффиксом точка и запятая считаются десятичным разделителем,
// без суффикса — разделителем разрядов.
func parseCount(digits, suffix string) (int, bool) {
	digits = strings.ReplaceAll(digits, " ", "")
	if suffix == "" {
		digits = strings.NewReplacer(",", "", ".", "").Replace(digits)
		n, err := strconv.Atoi(digits)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	switch suffix {
	case "k", "к":
		value *= 1_000
	case "m", "м":
		value *= 1_000_000
	}
	return int(value), true
}
