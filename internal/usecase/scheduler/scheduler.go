package scheduler

import (
	"context"
	"fmt"
	"sort"

	"niche-pacer/internal/domain"
)

// Admitter — часть учёта квот, нужная планировщику.
type Admitter interface {
	Visit(ctx context.Context, nicheID int64) error
	Admit(nicheID int64) bool
	AdmitGlobal() bool
}

// Scheduler выбирает следующую категорию по приоритету с учётом оставшихся квот.
type Scheduler struct {
	niches []domain.Niche
	quota  Admitter
	done   map[int64]bool
}

// New создаёт планировщик. Категории сортируются по возрастанию приоритета,
// при равных приоритетах сохраняется исходный порядок.
func New(niches []domain.Niche, quota Admitter) *Scheduler {
	ordered := append([]domain.Niche(nil), niches...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })
	return &Scheduler{niches: ordered, quota: quota, done: make(map[int64]bool)}
}

// Next возвращает следующую категорию, которой ещё разрешены действия.
// ok=false, если общая квота выбрана или все категории исчерпаны.
func (s *Scheduler) Next(ctx context.Context) (domain.Niche, bool, error) {
	for _, niche := range s.niches {
		if !s.quota.AdmitGlobal() {
			return domain.Niche{}, false, nil
		}
		if s.done[niche.ID] {
			continue
		}
		if err := s.quota.Visit(ctx, niche.ID); err != nil {
			return domain.Niche{}, false, fmt.Errorf("квота категории %s: %w", niche.Tag, err)
		}
		if !s.quota.Admit(niche.ID) {
			s.done[niche.ID] = true
			continue
		}
		return niche, true, nil
	}
	return domain.Niche{}, false, nil
}

// Complete помечает категорию завершённой до конца запуска.
func (s *Scheduler) Complete(nicheID int64) {
	s.done[nicheID] = true
}

// Remaining возвращает количество категорий, которые ещё не завершены.
func (s *Scheduler) Remaining() int {
	n := 0
	for _, niche := range s.niches {
		if !s.done[niche.ID] {
			n++
		}
	}
	return n
}

// Order возвращает порядок обхода категорий.
func (s *Scheduler) Order() []domain.Niche {
	return append([]domain.Niche(nil), s.niches...)
}
