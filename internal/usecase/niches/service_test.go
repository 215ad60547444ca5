package niches

import (
	"context"
	"errors"
	"testing"

	"niche-pacer/internal/domain"
)

type stubRepo struct {
	account domain.Account
	niches  []domain.Niche
	created []domain.Niche
	updated map[int64]int
}

func (s *stubRepo) EnsureAccount(_ context.Context, username string) (domain.Account, error) {
	s.account.Username = username
	return s.account, nil
}

func (s *stubRepo) GetAccount(context.Context, string) (domain.Account, error) { return s.account, nil }

func (s *stubRepo) ListNiches(context.Context, int64) ([]domain.Niche, error) { return s.niches, nil }

func (s *stubRepo) CreateNiche(_ context.Context, n domain.Niche) (domain.Niche, error) {
	n.ID = int64(100 + len(s.created))
	s.created = append(s.created, n)
	return n, nil
}

func (s *stubRepo) UpdateNichePriority(_ context.Context, id int64, priority int) error {
	if s.updated == nil {
		s.updated = map[int64]int{}
	}
	s.updated[id] = priority
	return nil
}

func TestParseTag(t *testing.T) {
	cases := map[string]string{
		"#Travel":     "travel",
		"  food ":     "food",
		"путешествия": "путешествия",
		"two words":   "",
		"#":           "",
	}
	for input, expected := range cases {
		tag, err := ParseTag(input)
		if expected == "" {
			if !errors.Is(err, ErrTagInvalid) {
				t.Fatalf("ожидали ErrTagInvalid для %q, получили %v", input, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("не ожидали ошибку для %q: %v", input, err)
		}
		if tag != expected {
			t.Fatalf("ожидали %s, получили %s", expected, tag)
		}
	}
}

func TestParseTags(t *testing.T) {
	got, err := ParseTags([]string{"travel:3", "#food", "cats: 1", ""})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	want := []domain.TagConfig{{Tag: "travel", Priority: 3}, {Tag: "food", Priority: 2}, {Tag: "cats", Priority: 1}}
	if len(got) != len(want) {
		t.Fatalf("ожидали %v, получили %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ожидали %v, получили %v", want, got)
		}
	}
}

func TestParseTagsSkipsBlankEntriesInDefaultPriority(t *testing.T) {
	got, err := ParseTags([]string{"a", "", "  ", "b"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(got) != 2 || got[0].Priority != 1 || got[1].Tag != "b" || got[1].Priority != 2 {
		t.Fatalf("пустые записи не должны сдвигать приоритет: %+v", got)
	}
}

func TestParseTagsErrors(t *testing.T) {
	if _, err := ParseTags([]string{"travel", "#Travel"}); !errors.Is(err, ErrTagDuplicate) {
		t.Fatalf("ожидали ErrTagDuplicate, получили %v", err)
	}
	if _, err := ParseTags([]string{"travel:high"}); !errors.Is(err, ErrPriorityInvalid) {
		t.Fatalf("ожидали ErrPriorityInvalid, получили %v", err)
	}
}

func TestSyncCreatesAndUpdates(t *testing.T) {
	repo := &stubRepo{
		account: domain.Account{ID: 7},
		niches: []domain.Niche{
			{ID: 1, AccountID: 7, Tag: "travel", Priority: 1},
			{ID: 2, AccountID: 7, Tag: "food", Priority: 2},
			{ID: 3, AccountID: 7, Tag: "old", Priority: 9},
		},
	}
	svc := NewService(repo, repo)
	account, niches, err := svc.Sync(context.Background(), " me ", []domain.TagConfig{
		{Tag: "food", Priority: 1},
		{Tag: "travel", Priority: 1},
		{Tag: "cats", Priority: 4},
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if account.Username != "me" {
		t.Fatalf("ожидали нормализованный логин, получили %q", account.Username)
	}
	if len(niches) != 3 || niches[0].Tag != "food" || niches[1].Tag != "travel" || niches[2].Tag != "cats" {
		t.Fatalf("ожидали категории в порядке конфигурации: %+v", niches)
	}
	if niches[0].Priority != 1 || repo.updated[2] != 1 {
		t.Fatalf("приоритет food должен обновиться")
	}
	if _, ok := repo.updated[1]; ok {
		t.Fatalf("неизменённый приоритет не должен записываться")
	}
	if len(repo.created) != 1 || repo.created[0].Tag != "cats" || repo.created[0].AccountID != 7 {
		t.Fatalf("ожидали создание только cats: %+v", repo.created)
	}
}

func TestSyncRequiresUsername(t *testing.T) {
	svc := NewService(&stubRepo{}, &stubRepo{})
	if _, _, err := svc.Sync(context.Background(), "  ", nil); !errors.Is(err, ErrUsernameEmpty) {
		t.Fatalf("ожидали ErrUsernameEmpty, получили %v", err)
	}
}
