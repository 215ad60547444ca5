package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type memCache struct{ keys map[string]bool }

func (m *memCache) Once(key string, _ time.Duration, fn func() error) error {
	if m.keys[key] {
		return nil
	}
	m.keys[key] = true
	if err := fn(); err != nil {
		delete(m.keys, key)
		return err
	}
	return nil
}

func newDaily(t *testing.T, cache *memCache) *Daily {
	t.Helper()
	d, err := NewDaily("09:30", "europe/moscow", cache, "pacer:daily", zerolog.Nop())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	return d
}

func TestDue(t *testing.T) {
	d := newDaily(t, &memCache{keys: map[string]bool{}})
	// 06:00 UTC = 09:00 MSK
	if day, ok := d.Due(time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC)); ok || day != "2024-05-10" {
		t.Fatalf("в 09:00 запуск ещё рано, получили day=%s ok=%v", day, ok)
	}
	if _, ok := d.Due(time.Date(2024, 5, 10, 6, 30, 0, 0, time.UTC)); !ok {
		t.Fatalf("в 09:30 запуск должен наступить")
	}
	// 22:00 UTC = 01:00 следующего дня по Москве
	if day, ok := d.Due(time.Date(2024, 5, 10, 22, 0, 0, 0, time.UTC)); ok || day != "2024-05-11" {
		t.Fatalf("день должен считаться по Москве, получили day=%s ok=%v", day, ok)
	}
}

func TestTickRunsOncePerDay(t *testing.T) {
	cache := &memCache{keys: map[string]bool{}}
	d := newDaily(t, cache)
	var days []string
	run := func(_ context.Context, day string) error {
		days = append(days, day)
		return nil
	}
	now := time.Date(2024, 5, 10, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := d.Tick(context.Background(), now.Add(time.Duration(i)*time.Minute), run); err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	}
	ran, err := d.Tick(context.Background(), now.Add(24*time.Hour), run)
	if err != nil || !ran {
		t.Fatalf("на следующий день ожидали запуск, ran=%v err=%v", ran, err)
	}
	if len(days) != 2 || days[0] != "2024-05-10" || days[1] != "2024-05-11" {
		t.Fatalf("ожидали по запуску в день, получили %v", days)
	}
}

func TestTickRetriesAfterFailure(t *testing.T) {
	d := newDaily(t, &memCache{keys: map[string]bool{}})
	boom := errors.New("boom")
	now := time.Date(2024, 5, 10, 7, 0, 0, 0, time.UTC)
	if _, err := d.Tick(context.Background(), now, func(context.Context, string) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("ожидали ошибку запуска, получили %v", err)
	}
	ran, err := d.Tick(context.Background(), now.Add(time.Minute), func(context.Context, string) error { return nil })
	if err != nil || !ran {
		t.Fatalf("после ошибки запуск должен повториться, ran=%v err=%v", ran, err)
	}
}

func TestNewDailyValidation(t *testing.T) {
	if _, err := NewDaily("9h", "UTC", nil, "k", zerolog.Nop()); !errors.Is(err, ErrInvalidRunTime) {
		t.Fatalf("ожидали ErrInvalidRunTime, получили %v", err)
	}
	if _, err := NewDaily("09:00", "Mars/Olympus", nil, "k", zerolog.Nop()); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("ожидали ErrInvalidTimezone, получили %v", err)
	}
}

func TestLoadLocationNormalizes(t *testing.T) {
	cases := map[string]string{
		"America/New_York":  "America/New_York",
		"america/new york":  "America/New_York",
		"europe/moscow":     "Europe/Moscow",
		" Europe/Amsterdam": "Europe/Amsterdam",
	}
	for in, want := range cases {
		loc, err := LoadLocation(in)
		if err != nil {
			t.Fatalf("%q: не ожидали ошибку: %v", in, err)
		}
		if loc.String() != want {
			t.Fatalf("%q: ожидали %s, получили %s", in, want, loc.String())
		}
	}
}
