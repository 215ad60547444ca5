package report

import (
	"fmt"
	"strings"

	"niche-pacer/internal/domain"
)

// Format формирует текстовое представление сводки.
func Format(r domain.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Сводка за %s\n", r.Day)
	if len(r.Niches) == 0 {
		b.WriteString("Категорий нет\n")
	}
	for _, n := range r.Niches {
		fmt.Fprintf(&b, "#%s: %d\n", n.Tag, n.Count)
	}
	fmt.Fprintf(&b, "Всего: %d", r.Total)
	return strings.TrimSpace(b.String())
}
