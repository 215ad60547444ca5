package telegram

import "strings"

// MessageLimit — максимальная длина сообщения Telegram в символах.
const MessageLimit = 4096

// SplitMessage собирает строки текста в части не длиннее limit символов.
// Строки не разрываются, пока сами помещаются в лимит; пустые строки на стыках частей отбрасываются.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MessageLimit
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var (
		parts   []string
		current []rune
	)
	flush := func() {
		chunk := strings.Trim(string(current), "\n")
		if chunk != "" {
			parts = append(parts, chunk)
		}
		current = current[:0]
	}
	for _, line := range strings.Split(trimmed, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			parts = append(parts, string(runes[:limit]))
			runes = runes[limit:]
		}
		need := len(runes)
		if len(current) > 0 {
			need++
		}
		if len(current)+need > limit {
			flush()
		}
		if len(current) > 0 {
			current = append(current, '\n')
		}
		current = append(current, runes...)
	}
	flush()
	return parts
}
