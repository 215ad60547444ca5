package report

import (
	"context"
	"fmt"
	"sort"

	"niche-pacer/internal/domain"
)

// Aggregator строит сводку действий аккаунта за день.
type Aggregator struct {
	niches  domain.NicheRepo
	actions domain.ActionRepo
}

// NewAggregator создаёт сервис сводок.
func NewAggregator(niches domain.NicheRepo, actions domain.ActionRepo) *Aggregator {
	return &Aggregator{niches: niches, actions: actions}
}

// Summarize считает действия по категориям аккаунта за календарный день.
// Категории без действий попадают в сводку с нулём.
func (a *Aggregator) Summarize(ctx context.Context, accountID int64, day string) (domain.Report, error) {
	niches, err := a.niches.ListNiches(ctx, accountID)
	if err != nil {
		return domain.Report{}, fmt.Errorf("категории аккаунта: %w", err)
	}
	from, to := domain.DayRange(day)
	records, err := a.actions.ListAccountActions(ctx, accountID, from, to)
	if err != nil {
		return domain.Report{}, fmt.Errorf("действия за день: %w", err)
	}

	sort.SliceStable(niches, func(i, j int) bool { return niches[i].Priority < niches[j].Priority })
	counts := make(map[int64]int, len(niches))
	for _, r := range records {
		counts[r.NicheID]++
	}

	report := domain.Report{AccountID: accountID, Day: day, Niches: make([]domain.NicheCount, 0, len(niches))}
	for _, n := range niches {
		c := counts[n.ID]
		report.Niches = append(report.Niches, domain.NicheCount{NicheID: n.ID, Tag: n.Tag, Count: c})
	}
	report.Total = len(records)
	return report, nil
}
