package main

import (
	"context"
	"sort"
	"sync"
)

// memoryStore is an in-memory Store used by the test harness and by
// DB_BACKEND=memory for local development without Postgres.
type memoryStore struct {
	mu sync.RWMutex

	expenses   map[int64]Expense
	entries    map[int64]ConversionEntry
	settings   *Settings
	nextConvID int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		expenses:   make(map[int64]Expense),
		entries:    make(map[int64]ConversionEntry),
		nextConvID: 1,
	}
}

func (s *memoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *memoryStore) ListExpenses(ctx context.Context) ([]Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		expenses = append(expenses, e)
	}
	// Newest-first by creation id, same as the SQL ORDER BY id DESC
	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].ID > expenses[j].ID
	})
	return expenses, nil
}

func (s *memoryStore) CreateExpense(ctx context.Context, expense *Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[expense.ID] = *expense
	return nil
}

func (s *memoryStore) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return false, nil
	}
	delete(s.expenses, id)
	return true, nil
}

func (s *memoryStore) GetSettings(ctx context.Context) (*Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, nil
	}
	settings := *s.settings
	return &settings, nil
}

func (s *memoryStore) UpsertSettings(ctx context.Context, settings *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *settings
	s.settings = &copied
	return nil
}

func (s *memoryStore) ListConversionEntries(ctx context.Context) ([]ConversionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]ConversionEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func (s *memoryStore) CreateConversionEntry(ctx context.Context, entry *ConversionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextConvID
	s.nextConvID++
	s.entries[entry.ID] = *entry
	return nil
}

func (s *memoryStore) UpdateConversionEntry(ctx context.Context, entry *ConversionEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; !ok {
		return false, nil
	}
	s.entries[entry.ID] = *entry
	return true, nil
}

func (s *memoryStore) DeleteConversionEntry(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false, nil
	}
	delete(s.entries, id)
	return true, nil
}

var _ Store = (*memoryStore)(nil)
