package domain

import (
	"context"
	"time"
)

// Navigator открывает ленту категории и перемещается по её элементам.
// После исчерпания ленты Advance должен стабильно возвращать ok=false.
type Navigator interface {
	OpenFeed(ctx context.Context, tag string) (ItemHandle, bool, error)
	CurrentItem(ctx context.Context, handle ItemHandle) (CandidateItem, error)
	Advance(ctx context.Context, handle ItemHandle) (ItemHandle, bool, error)
}

// Executor выполняет действие над элементом ленты.
// Act возвращает ok=false для обычных неудач; ошибка означает потерю сессии.
type Executor interface {
	Login(ctx context.Context, creds Credentials) error
	Act(ctx context.Context, handle ItemHandle) (bool, error)
}

// AccountRepo управляет аккаунтами.
type AccountRepo interface {
	EnsureAccount(ctx context.Context, username string) (Account, error)
	GetAccount(ctx context.Context, username string) (Account, error)
}

// NicheRepo управляет категориями аккаунта.
type NicheRepo interface {
	ListNiches(ctx context.Context, accountID int64) ([]Niche, error)
	CreateNiche(ctx context.Context, niche Niche) (Niche, error)
	UpdateNichePriority(ctx context.Context, nicheID int64, priority int) error
}

// ActionRepo хранит журнал действий. Границы диапазонов включительные, в формате CivilLayout.
type ActionRepo interface {
	ListAccountActions(ctx context.Context, accountID int64, from, to string) ([]ActionRecord, error)
	ListNicheActions(ctx context.Context, nicheID int64, from, to string) ([]ActionRecord, error)
	AppendAction(ctx context.Context, record ActionRecord) (ActionRecord, error)
}

// RunLocker гарантирует единственный запуск для аккаунта.
type RunLocker interface {
	Acquire(key string, ttl time.Duration) (bool, error)
	Release(key string) error
}

// ReportNotifier доставляет итоговую сводку.
type ReportNotifier interface {
	SendReport(ctx context.Context, report Report) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
}
