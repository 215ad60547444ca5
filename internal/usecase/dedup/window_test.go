package dedup

import (
	"context"
	"errors"
	"testing"

	"niche-pacer/internal/domain"
)

type stubActions struct {
	records  []domain.ActionRecord
	from, to string
	err      error
}

func (s *stubActions) ListAccountActions(_ context.Context, _ int64, from, to string) ([]domain.ActionRecord, error) {
	s.from, s.to = from, to
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.ActionRecord
	for _, r := range s.records {
		if r.Timestamp >= from && r.Timestamp <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubActions) ListNicheActions(context.Context, int64, string, string) ([]domain.ActionRecord, error) {
	return nil, nil
}

func (s *stubActions) AppendAction(_ context.Context, r domain.ActionRecord) (domain.ActionRecord, error) {
	return r, nil
}

func TestSeedUsesThreeDayWindow(t *testing.T) {
	repo := &stubActions{records: []domain.ActionRecord{
		{TargetActor: "too_old", Timestamp: "2024-02-28 23:59:59"},
		{TargetActor: "edge", Timestamp: "2024-02-29 00:00:00"},
		{TargetActor: "yesterday", Timestamp: "2024-03-01 12:00:00"},
		{TargetActor: "yesterday", Timestamp: "2024-03-01 13:00:00"},
		{TargetActor: "today", Timestamp: "2024-03-02 23:59:59"},
	}}
	w, err := Seed(context.Background(), repo, 1, "2024-03-02", DefaultDays)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if repo.from != "2024-02-29 00:00:00" || repo.to != "2024-03-02 23:59:59" {
		t.Fatalf("неожиданные границы запроса: %s — %s", repo.from, repo.to)
	}
	if w.HasRecentAction("too_old") {
		t.Fatalf("действие за пределами окна не должно учитываться")
	}
	for _, actor := range []string{"edge", "yesterday", "today"} {
		if !w.HasRecentAction(actor) {
			t.Fatalf("ожидали, что %s есть в окне", actor)
		}
	}
	if w.Count("yesterday") != 2 {
		t.Fatalf("ожидали 2 действия, получили %d", w.Count("yesterday"))
	}
	if w.Len() != 3 {
		t.Fatalf("ожидали 3 автора, получили %d", w.Len())
	}
}

func TestAbsentActorIsNotStored(t *testing.T) {
	w := NewWindow()
	if w.HasRecentAction("ghost") {
		t.Fatalf("пустое окно не должно содержать авторов")
	}
	if w.Len() != 0 {
		t.Fatalf("проверка не должна добавлять автора в окно")
	}
}

func TestRecordMarksActor(t *testing.T) {
	w := NewWindow()
	w.Record("alice")
	w.Record("")
	if !w.HasRecentAction("alice") {
		t.Fatalf("ожидали alice в окне")
	}
	if w.Len() != 1 {
		t.Fatalf("пустой автор не должен сохраняться")
	}
}

func TestSeedPropagatesStoreError(t *testing.T) {
	storeErr := errors.New("boom")
	if _, err := Seed(context.Background(), &stubActions{err: storeErr}, 1, "2024-03-02", 3); !errors.Is(err, storeErr) {
		t.Fatalf("ожидали ошибку хранилища, получили %v", err)
	}
}
