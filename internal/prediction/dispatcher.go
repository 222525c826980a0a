// Package prediction announces completed observation windows to the
// downstream prediction analysis. No prediction is computed here.
package prediction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/pkg/redis"
)

// announceTTL bounds how long an announcement claim is kept in Redis
const announceTTL = 90 * 24 * time.Hour

// Dispatcher implements contracts.PredictionTrigger.
// Each window is announced at most once per process, and at most once across
// instances when a Redis cache is configured.
type Dispatcher struct {
	mu        sync.Mutex
	announced map[string]time.Time // window id -> announced at

	cache    *redis.Cache               // optional
	notifier contracts.ProgressNotifier // optional
	clock    func() time.Time
	log      zerolog.Logger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithCache shares announcement claims through Redis
func WithCache(c *redis.Cache) Option {
	return func(d *Dispatcher) { d.cache = c }
}

// WithNotifier emits an EventCompleted progress event per announcement
func WithNotifier(n contracts.ProgressNotifier) Option {
	return func(d *Dispatcher) { d.notifier = n }
}

// WithClock overrides time.Now
func WithClock(clock func() time.Time) Option {
	return func(d *Dispatcher) { d.clock = clock }
}

// NewDispatcher creates a dispatcher
func NewDispatcher(log zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		announced: make(map[string]time.Time),
		clock:     time.Now,
		log:       log.With().Str("component", "prediction").Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WindowCompleted announces a complete window once
func (d *Dispatcher) WindowCompleted(ctx context.Context, progress contracts.Progress) error {
	if !progress.IsComplete {
		return fmt.Errorf("%w: window %s is not complete", contracts.ErrInvalidParameter, progress.WindowID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.announced[progress.WindowID]; ok {
		return nil
	}

	if d.cache != nil {
		won, err := d.cache.Claim(ctx, redis.AnnouncedKey(progress.WindowID), announceTTL)
		if err != nil {
			return fmt.Errorf("claim announcement: %w", err)
		}
		if !won {
			// another instance announced it
			d.announced[progress.WindowID] = d.clock()
			return nil
		}
	}

	now := d.clock()
	d.announced[progress.WindowID] = now

	d.log.Info().
		Str("user_id", progress.UserID).
		Str("window_id", progress.WindowID).
		Int("completed_days", progress.CompletedDays).
		Msg("tracking period complete, ready for prediction analysis")

	if d.notifier != nil {
		err := d.notifier.Notify(ctx, contracts.ProgressEvent{
			ID:        uuid.NewString(),
			Kind:      contracts.EventCompleted,
			UserID:    progress.UserID,
			Progress:  progress,
			Completed: true,
			At:        now,
		})
		if err != nil {
			d.log.Warn().Err(err).Str("window_id", progress.WindowID).Msg("completion notification failed")
		}
	}
	return nil
}

// Announced reports whether windowID was announced by this process
func (d *Dispatcher) Announced(windowID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.announced[windowID]
	return ok
}

// Count returns the number of windows announced by this process
func (d *Dispatcher) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.announced)
}
