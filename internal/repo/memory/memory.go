package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/hamed0406/praesto/internal/domain"
	"github.com/hamed0406/praesto/internal/repo"
)

// Store keeps check states in process memory. Used by --dry-run and tests.
type Store struct {
	mu     sync.RWMutex
	states map[string]domain.CheckState
	saves  int
}

func New() *Store {
	return &Store{states: make(map[string]domain.CheckState)}
}

func (m *Store) Load(ctx context.Context, id string) domain.CheckState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[id]
	if !ok {
		return domain.NewCheckState(id)
	}
	return st.Clone()
}

func (m *Store) Save(ctx context.Context, st domain.CheckState) error {
	if err := repo.ValidateID(st.ID); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.ID] = repo.Normalize(st.ID, st.Clone())
	m.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (m *Store) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
