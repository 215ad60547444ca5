package pacing

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	failOn error
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	if c.failOn != nil {
		return c.failOn
	}
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestLimiter(interval, jitter time.Duration, clock *fakeClock) *Limiter {
	l := New(interval, jitter)
	l.sleep = clock.Sleep
	return l
}

func TestWaitFirstCallSleepsFullInterval(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)}
	l := newTestLimiter(30*time.Second, 0, clock)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(clock.slept) != 1 || clock.slept[0] != 30*time.Second {
		t.Fatalf("после первого действия ожидали паузу 30s, получили %v", clock.slept)
	}
}

func TestActionsSpacedByInterval(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)}
	l := newTestLimiter(30*time.Second, 0, clock)
	var acts []time.Time
	for i := 0; i < 3; i++ {
		acts = append(acts, clock.now)
		clock.now = clock.now.Add(2 * time.Second) // само действие
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	}
	for i := 1; i < len(acts); i++ {
		if gap := acts[i].Sub(acts[i-1]); gap < 30*time.Second {
			t.Fatalf("между действиями %d и %d прошло %v, ожидали не меньше 30s", i-1, i, gap)
		}
	}
}

func TestWaitJitterStaysInRange(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)}
	l := newTestLimiter(30*time.Second, 5*time.Second, clock)
	for i := 0; i < 50; i++ {
		_ = l.Wait(context.Background())
	}
	for _, d := range clock.slept {
		if d < 25*time.Second || d >= 35*time.Second {
			t.Fatalf("пауза %v вне диапазона [25s, 35s)", d)
		}
	}
}

func TestWaitCancelled(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), failOn: context.Canceled}
	l := newTestLimiter(30*time.Second, 0, clock)
	if err := l.Wait(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("ожидали context.Canceled, получили %v", err)
	}
}

func TestSleepCtxStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := New(time.Hour, 0)
	if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("ожидали context.Canceled, получили %v", err)
	}
}

func TestZeroIntervalNeverSleeps(t *testing.T) {
	l := New(0, time.Second)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	}
	if l.Interval() != 0 {
		t.Fatalf("ожидали нулевой интервал")
	}
}
