package storage

import (
	"context"
	"sync"

	"jangbu/internal/core"
)

// MemoryStore is an in-memory implementation of the same surface as
// SQLiteRepository. It backs tests and the zero-setup dev backend.
type MemoryStore struct {
	mu       sync.Mutex
	expenses map[string]core.Expense
	incomes  map[string]core.Income
	settings map[string]core.Settings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		expenses: make(map[string]core.Expense),
		incomes:  make(map[string]core.Income),
		settings: make(map[string]core.Settings),
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) CreateExpense(_ context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses[e.ID] = e
	return nil
}

func (m *MemoryStore) GetExpense(_ context.Context, id string) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok {
		return core.Expense{}, ErrNotFound
	}
	return e, nil
}

func (m *MemoryStore) ListExpenses(_ context.Context, owner string) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Expense
	for _, e := range m.expenses {
		if e.Owner == owner {
			out = append(out, e)
		}
	}
	core.SortExpenses(out)
	return out, nil
}

func (m *MemoryStore) ListExpensesByDateRange(ctx context.Context, owner, start, end string) ([]core.Expense, error) {
	all, err := m.ListExpenses(ctx, owner)
	if err != nil {
		return nil, err
	}
	var out []core.Expense
	for _, e := range all {
		if e.Date >= start && e.Date <= end {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateExpense(_ context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.expenses[e.ID]; !ok {
		return ErrNotFound
	}
	m.expenses[e.ID] = e
	return nil
}

func (m *MemoryStore) DeleteExpense(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.expenses[id]; !ok {
		return ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *MemoryStore) DeleteAllExpenses(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.expenses {
		if e.Owner == owner {
			delete(m.expenses, id)
		}
	}
	return nil
}

func (m *MemoryStore) CreateIncome(_ context.Context, in core.Income) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incomes[in.ID] = in
	return nil
}

func (m *MemoryStore) GetIncome(_ context.Context, id string) (core.Income, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.incomes[id]
	if !ok {
		return core.Income{}, ErrNotFound
	}
	return in, nil
}

func (m *MemoryStore) ListIncomes(_ context.Context, owner string) ([]core.Income, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Income
	for _, in := range m.incomes {
		if in.Owner == owner {
			out = append(out, in)
		}
	}
	core.SortIncomes(out)
	return out, nil
}

func (m *MemoryStore) UpdateIncome(_ context.Context, in core.Income) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.incomes[in.ID]; !ok {
		return ErrNotFound
	}
	m.incomes[in.ID] = in
	return nil
}

func (m *MemoryStore) DeleteIncome(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.incomes[id]; !ok {
		return ErrNotFound
	}
	delete(m.incomes, id)
	return nil
}

func (m *MemoryStore) DeleteAllIncomes(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, in := range m.incomes {
		if in.Owner == owner {
			delete(m.incomes, id)
		}
	}
	return nil
}

func (m *MemoryStore) GetSettings(_ context.Context, owner string) (core.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[owner]
	if !ok {
		return core.DefaultSettings(owner), nil
	}
	return s, nil
}

func (m *MemoryStore) SaveSettings(_ context.Context, s core.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.Owner] = s
	return nil
}

func (m *MemoryStore) AdjustBudget(_ context.Context, owner string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[owner]
	if !ok {
		s = core.DefaultSettings(owner)
	}
	s.Budget += delta
	if s.Budget < 0 {
		s.Budget = 0
	}
	m.settings[owner] = s
	return nil
}
