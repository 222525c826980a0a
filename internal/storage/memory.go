// Package storage provides the WindowStore implementations the tracker
// persists its window value through.
package storage

import (
	"context"
	"sync"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/internal/window"
)

// MemoryStore keeps windows in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	windows map[string]*contracts.Window
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*contracts.Window)}
}

// Load returns a copy of the user's window
func (s *MemoryStore) Load(ctx context.Context, userID string) (*contracts.Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.windows[userID]
	if !ok {
		return nil, contracts.ErrWindowNotFound
	}
	return window.Clone(w), nil
}

// Save replaces the user's window with a copy of w
func (s *MemoryStore) Save(ctx context.Context, w *contracts.Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.windows[w.UserID] = window.Clone(w)
	return nil
}

// Users returns the ids of every stored user
func (s *MemoryStore) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.windows))
	for id := range s.windows {
		users = append(users, id)
	}
	return users
}
