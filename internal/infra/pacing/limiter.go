package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultInterval — пауза между действиями по умолчанию.
const DefaultInterval = 30 * time.Second

// Limiter выдерживает паузу после каждого действия.
// При jitter > 0 пауза случайно отклоняется от interval в пределах ±jitter.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	jitter   time.Duration
	rng      *rand.Rand
	sleep    func(ctx context.Context, d time.Duration) error
}

// New создаёт ограничитель.
func New(interval, jitter time.Duration) *Limiter {
	if interval < 0 {
		interval = 0
	}
	if jitter < 0 || jitter > interval {
		jitter = 0
	}
	return &Limiter{
		interval: interval,
		jitter:   jitter,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:    sleepCtx,
	}
}

// Wait вызывается сразу после завершённого действия и блокирует на полную паузу.
// Отсчёт идёт от только что выполненного действия, поэтому между двумя
// соседними действиями всегда проходит не меньше interval-jitter.
func (l *Limiter) Wait(ctx context.Context) error {
	wait := l.next()
	if wait <= 0 {
		return ctx.Err()
	}
	return l.sleep(ctx, wait)
}

func (l *Limiter) next() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	target := l.interval
	if l.jitter > 0 {
		target += time.Duration(l.rng.Int63n(int64(l.jitter*2))) - l.jitter
	}
	return target
}

// Interval возвращает базовую паузу.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
