package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/pkg/redis"
)

// CachedStore is a read-through Redis cache in front of another store.
// Cache failures are logged and fall back to the backing store.
type CachedStore struct {
	next  contracts.WindowStore
	cache *redis.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedStore wraps next with cache
func NewCachedStore(next contracts.WindowStore, cache *redis.Cache, ttl time.Duration, log zerolog.Logger) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "storage.cache").Logger(),
	}
}

// Load returns the cached window or reads it from the backing store
func (s *CachedStore) Load(ctx context.Context, userID string) (*contracts.Window, error) {
	var w contracts.Window
	found, err := s.cache.Get(ctx, redis.WindowKey(userID), &w)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("window cache read failed")
	}
	if found {
		if w.Entries == nil {
			w.Entries = make(map[string]contracts.Entry)
		}
		return &w, nil
	}

	loaded, err := s.next.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.put(ctx, loaded)
	return loaded, nil
}

// Save writes through to the backing store, then refreshes the cache
func (s *CachedStore) Save(ctx context.Context, w *contracts.Window) error {
	if err := s.next.Save(ctx, w); err != nil {
		// the cached value may no longer match the backing store
		_ = s.cache.Delete(ctx, redis.WindowKey(w.UserID))
		return err
	}
	s.put(ctx, w)
	return nil
}

func (s *CachedStore) put(ctx context.Context, w *contracts.Window) {
	if err := s.cache.Set(ctx, redis.WindowKey(w.UserID), w, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("user_id", w.UserID).Msg("window cache write failed")
	}
}
