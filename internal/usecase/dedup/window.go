package dedup

import (
	"context"
	"fmt"

	"niche-pacer/internal/domain"
)

// DefaultDays — длина окна по умолчанию: сегодня и два предыдущих дня.
const DefaultDays = 3

// Window хранит авторов, которым уже ставились действия за последние дни.
type Window struct {
	counts map[string]int
}

// NewWindow создаёт пустое окно.
func NewWindow() *Window {
	return &Window{counts: make(map[string]int)}
}

// Seed строит окно по журналу действий аккаунта за days календарных дней, оканчивающихся днём day.
func Seed(ctx context.Context, actions domain.ActionRepo, accountID int64, day string, days int) (*Window, error) {
	from, to, err := domain.WindowRange(day, days)
	if err != nil {
		return nil, fmt.Errorf("границы окна: %w", err)
	}
	records, err := actions.ListAccountActions(ctx, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("действия аккаунта за окно: %w", err)
	}
	w := NewWindow()
	for _, r := range records {
		w.Record(r.TargetActor)
	}
	return w, nil
}

// HasRecentAction сообщает, было ли действие в адрес автора внутри окна.
func (w *Window) HasRecentAction(actor string) bool {
	return w.counts[actor] > 0
}

// Record учитывает действие в адрес автора.
func (w *Window) Record(actor string) {
	if actor == "" {
		return
	}
	w.counts[actor]++
}

// Count возвращает количество действий в адрес автора.
func (w *Window) Count(actor string) int {
	return w.counts[actor]
}

// Len возвращает количество авторов в окне.
func (w *Window) Len() int {
	return len(w.counts)
}
