package ledger

import (
	"context"
	"sync"
)

// Memory is an in-process ledger. It forgets everything on exit and exists
// for tests and dry runs.
type Memory struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewMemory creates an empty in-memory ledger, optionally seeded with ids.
func NewMemory(ids ...string) *Memory {
	m := &Memory{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		m.ids[id] = struct{}{}
	}
	return m
}

func (m *Memory) Exists(_ context.Context, id string) (bool, error) {
	return m.has(id), nil
}

func (m *Memory) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[id]
	return ok
}

func (m *Memory) Record(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ids[id]; ok {
		return ErrAlreadyRecorded
	}
	m.ids[id] = struct{}{}
	return nil
}

// Len returns the number of recorded ids.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids)
}

func (m *Memory) Close() error { return nil }
