package quota

import (
	"context"
	"fmt"

	"niche-pacer/internal/domain"
)

// Ledger считает действия за текущий календарный день: общее количество и по категориям.
// Состояние живёт только в рамках одного запуска и восстанавливается из журнала действий.
type Ledger struct {
	actions       domain.ActionRepo
	day           string
	dailyLimit    int
	perNicheLimit int

	global   int
	perNiche map[int64]int
	visited  map[int64]bool
}

// NewLedger создаёт учёт квот. Лимит категории равен целой части dailyLimit/nicheCount.
func NewLedger(actions domain.ActionRepo, dailyLimit, nicheCount int, day string) (*Ledger, error) {
	if nicheCount <= 0 {
		return nil, domain.ErrNoNiches
	}
	if dailyLimit < 0 {
		dailyLimit = 0
	}
	return &Ledger{
		actions:       actions,
		day:           day,
		dailyLimit:    dailyLimit,
		perNicheLimit: dailyLimit / nicheCount,
		perNiche:      make(map[int64]int),
		visited:       make(map[int64]bool),
	}, nil
}

// Seed загружает общее количество действий аккаунта за день.
// Возвращает domain.ErrQuotaMet, если квота уже выбрана.
func (l *Ledger) Seed(ctx context.Context, accountID int64) error {
	from, to := domain.DayRange(l.day)
	records, err := l.actions.ListAccountActions(ctx, accountID, from, to)
	if err != nil {
		return fmt.Errorf("действия аккаунта за день: %w", err)
	}
	l.global = len(records)
	if l.global >= l.dailyLimit {
		return fmt.Errorf("%w: %d из %d", domain.ErrQuotaMet, l.global, l.dailyLimit)
	}
	return nil
}

// Visit лениво загружает счётчик категории при первом обращении к ней.
func (l *Ledger) Visit(ctx context.Context, nicheID int64) error {
	if l.visited[nicheID] {
		return nil
	}
	from, to := domain.DayRange(l.day)
	records, err := l.actions.ListNicheActions(ctx, nicheID, from, to)
	if err != nil {
		return fmt.Errorf("действия категории %d за день: %w", nicheID, err)
	}
	l.perNiche[nicheID] += len(records)
	l.visited[nicheID] = true
	return nil
}

// Admit сообщает, разрешено ли ещё одно действие в категории.
func (l *Ledger) Admit(nicheID int64) bool {
	return l.AdmitGlobal() && l.perNiche[nicheID] < l.perNicheLimit
}

// AdmitGlobal сообщает, не выбрана ли общая дневная квота.
func (l *Ledger) AdmitGlobal() bool {
	return l.global < l.dailyLimit
}

// Record учитывает подтверждённое действие.
func (l *Ledger) Record(nicheID int64) {
	l.global++
	l.perNiche[nicheID]++
}

// GlobalCount возвращает количество действий за день.
func (l *Ledger) GlobalCount() int { return l.global }

// NicheCount возвращает количество действий категории за день.
func (l *Ledger) NicheCount(nicheID int64) int { return l.perNiche[nicheID] }

// DailyLimit возвращает общий дневной лимит.
func (l *Ledger) DailyLimit() int { return l.dailyLimit }

// PerNicheLimit возвращает лимит одной категории.
func (l *Ledger) PerNicheLimit() int { return l.perNicheLimit }

// Day возвращает учитываемый день.
func (l *Ledger) Day() string { return l.day }
