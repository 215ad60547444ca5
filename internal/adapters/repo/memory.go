package repo

import (
	"context"
	"fmt"
	"sync"

	"niche-pacer/internal/domain"
)

// Memory хранит аккаунты, категории и действия в памяти процесса.
// Используется для пробных запусков без Postgres.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	niches   map[int64]domain.Niche
	order    []int64
	actions  []domain.ActionRecord
	nextID   int64
}

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]domain.Account),
		niches:   make(map[int64]domain.Niche),
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// EnsureAccount реализует domain.AccountRepo.
func (m *Memory) EnsureAccount(_ context.Context, username string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[username]; ok {
		return acc, nil
	}
	acc := domain.Account{ID: m.id(), Username: username}
	m.accounts[username] = acc
	return acc, nil
}

// GetAccount реализует domain.AccountRepo.
func (m *Memory) GetAccount(_ context.Context, username string) (domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[username]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return acc, nil
}

// ListNiches реализует domain.NicheRepo. Категории возвращаются в порядке создания.
func (m *Memory) ListNiches(_ context.Context, accountID int64) ([]domain.Niche, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Niche
	for _, id := range m.order {
		if n := m.niches[id]; n.AccountID == accountID {
			out = append(out, n)
		}
	}
	return out, nil
}

// CreateNiche реализует domain.NicheRepo.
func (m *Memory) CreateNiche(_ context.Context, niche domain.Niche) (domain.Niche, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		if n := m.niches[id]; n.AccountID == niche.AccountID && n.Tag == niche.Tag {
			return domain.Niche{}, fmt.Errorf("niche %q already exists", niche.Tag)
		}
	}
	niche.ID = m.id()
	m.niches[niche.ID] = niche
	m.order = append(m.order, niche.ID)
	return niche, nil
}

// UpdateNichePriority реализует domain.NicheRepo.
func (m *Memory) UpdateNichePriority(_ context.Context, nicheID int64, priority int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.niches[nicheID]
	if !ok {
		return fmt.Errorf("niche %d not found", nicheID)
	}
	n.Priority = priority
	m.niches[nicheID] = n
	return nil
}

// ListAccountActions реализует domain.ActionRepo.
func (m *Memory) ListAccountActions(_ context.Context, accountID int64, from, to string) ([]domain.ActionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ActionRecord
	for _, r := range m.actions {
		if m.niches[r.NicheID].AccountID == accountID && r.Timestamp >= from && r.Timestamp <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListNicheActions реализует domain.ActionRepo.
func (m *Memory) ListNicheActions(_ context.Context, nicheID int64, from, to string) ([]domain.ActionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ActionRecord
	for _, r := range m.actions {
		if r.NicheID == nicheID && r.Timestamp >= from && r.Timestamp <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

// AppendAction реализует domain.ActionRepo.
func (m *Memory) AppendAction(_ context.Context, record domain.ActionRecord) (domain.ActionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.niches[record.NicheID]; !ok {
		return domain.ActionRecord{}, fmt.Errorf("niche %d not found", record.NicheID)
	}
	record.ID = m.id()
	m.actions = append(m.actions, record)
	return record, nil
}
