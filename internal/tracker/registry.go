package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/internal/window"
)

// Registry holds one tracker per user, built once per user and passed
// explicitly to callers instead of a global "current tracker".
type Registry struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
	deps     Deps
}

// NewRegistry creates an empty registry
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		trackers: make(map[string]*Tracker),
		deps:     deps,
	}
}

// Get returns the user's tracker, loading its window from the store on first
// use. A user without a stored window starts a new one today.
func (r *Registry) Get(ctx context.Context, userID string) (*Tracker, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", contracts.ErrInvalidParameter)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.trackers[userID]; ok {
		return t, nil
	}

	w, err := r.deps.Store.Load(ctx, userID)
	switch {
	case errors.Is(err, contracts.ErrWindowNotFound):
		now := r.deps.now()
		w = window.New(userID, now, now)
		if err := r.deps.Store.Save(ctx, w); err != nil {
			return nil, fmt.Errorf("save new window: %w", err)
		}
		r.deps.Logger.Info().
			Str("user_id", userID).
			Str("window_id", w.ID).
			Msg("tracking started")
	case err != nil:
		return nil, fmt.Errorf("load window: %w", err)
	}

	t := New(w, r.deps)
	r.trackers[userID] = t
	return t, nil
}

// Trackers returns every loaded tracker ordered by user id
func (r *Registry) Trackers() []*Tracker {
	r.mu.Lock()
	trackers := make([]*Tracker, 0, len(r.trackers))
	for _, t := range r.trackers {
		trackers = append(trackers, t)
	}
	r.mu.Unlock()

	sort.Slice(trackers, func(i, j int) bool {
		return trackers[i].UserID() < trackers[j].UserID()
	})
	return trackers
}

// Snapshot returns the progress of every loaded tracker
func (r *Registry) Snapshot() []contracts.Progress {
	trackers := r.Trackers()
	out := make([]contracts.Progress, len(trackers))
	for i, t := range trackers {
		out[i] = t.Progress()
	}
	return out
}

// Evict drops a user's tracker; the next Get reloads from the store
func (r *Registry) Evict(userID string) {
	r.mu.Lock()
	delete(r.trackers, userID)
	r.mu.Unlock()
}
