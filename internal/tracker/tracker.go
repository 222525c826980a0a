// Package tracker owns each user's active observation window and is the
// only code that mutates it.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/internal/scenario"
	"github.com/wonny/symptrack/internal/window"
)

// Deps are the collaborators shared by every tracker
type Deps struct {
	Store     contracts.WindowStore
	Notifier  contracts.ProgressNotifier  // optional
	Trigger   contracts.PredictionTrigger // optional
	Generator *scenario.Generator
	Clock     func() time.Time // optional, defaults to time.Now
	Logger    zerolog.Logger
}

func (d Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

// Tracker is the progress tracker for one user's window
// ⭐ SSOT: 윈도우 변경은 이 구조체에서만
//
// Mutations build the next window value, persist it, then publish it with a
// single pointer swap. Readers never observe a half-reset window.
type Tracker struct {
	mu      sync.Mutex // serialises mutations
	current atomic.Pointer[contracts.Window]
	deps    Deps
	log     zerolog.Logger
}

// New creates a tracker around an already loaded window
func New(w *contracts.Window, deps Deps) *Tracker {
	t := &Tracker{
		deps: deps,
		log:  deps.Logger.With().Str("component", "tracker").Str("user_id", w.UserID).Logger(),
	}
	t.current.Store(window.Clamp(w))
	return t
}

// UserID returns the owner of the window
func (t *Tracker) UserID() string {
	return t.current.Load().UserID
}

// Progress returns the derived progress view of the current window
func (t *Tracker) Progress() contracts.Progress {
	return window.Progress(t.current.Load())
}

// State returns Tracking or Complete
func (t *Tracker) State() contracts.TrackingState {
	return t.Progress().State
}

// Window returns a copy of the current window
func (t *Tracker) Window() *contracts.Window {
	return window.Clone(t.current.Load())
}

// Entries returns the current window's entries ordered by date
func (t *Tracker) Entries() []contracts.Entry {
	return window.SortedEntries(t.current.Load())
}

// Ingest records entries into the current window. Out-of-range, duplicate
// and over-capacity entries are counted as rejected, not raised.
func (t *Tracker) Ingest(ctx context.Context, entries []contracts.Entry) (contracts.IngestResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, result := window.Ingest(t.current.Load(), entries, t.deps.now())
	if err := t.commit(ctx, contracts.EventIngested, next, result.Accepted > 0); err != nil {
		return contracts.IngestResult{}, err
	}

	t.log.Debug().
		Int("accepted", result.Accepted).
		Int("rejected", result.Rejected).
		Int("out_of_range", result.OutOfRange).
		Int("duplicate", result.Duplicate).
		Int("over_capacity", result.OverCapacity).
		Msg("entries ingested")

	return result, nil
}

// ClearAll empties the window and keeps its start date
func (t *Tracker) ClearAll(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := window.Cleared(t.current.Load(), t.deps.now())
	return t.commit(ctx, contracts.EventCleared, next, true)
}

// StartNewPeriod replaces a complete window with an empty one starting at
// start (today when zero). Fails with ErrPeriodNotComplete otherwise.
func (t *Tracker) StartNewPeriod(ctx context.Context, start time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.current.Load()
	progress := window.Progress(cur)
	if !progress.IsComplete {
		return fmt.Errorf("%w: %d of %d days recorded",
			contracts.ErrPeriodNotComplete, progress.CompletedDays, progress.TotalDays)
	}

	now := t.deps.now()
	if start.IsZero() {
		start = now
	}
	next := window.New(cur.UserID, start, now)

	if err := t.commit(ctx, contracts.EventPeriodStarted, next, true); err != nil {
		return err
	}

	t.log.Info().
		Str("previous_window", cur.ID).
		Str("window_id", next.ID).
		Str("start_date", window.DateKey(next.StartDate)).
		Msg("new tracking period started")
	return nil
}

// AddRandomDays generates up to n entries on free dates and ingests them.
// Requested days that could not be placed count as rejected.
func (t *Tracker) AddRandomDays(ctx context.Context, n int) (contracts.IngestResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.current.Load()
	entries, err := t.deps.Generator.GenerateRandomDays(cur.StartDate, n, window.Keys(cur))
	if err != nil {
		return contracts.IngestResult{}, err
	}

	next, result := window.Ingest(cur, entries, t.deps.now())
	if missing := n - len(entries); missing > 0 {
		result.Rejected += missing
		result.OverCapacity += missing
	}

	if err := t.commit(ctx, contracts.EventIngested, next, result.Accepted > 0); err != nil {
		return contracts.IngestResult{}, err
	}
	return result, nil
}

// LoadScenario replaces the window's entries with a generated 20-day set
// dated from the current start date
func (t *Tracker) LoadScenario(ctx context.Context, p scenario.Profile) (contracts.IngestResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.deps.Generator.Generate(p, t.current.Load().StartDate)
	if err != nil {
		return contracts.IngestResult{}, err
	}
	return t.replaceEntries(ctx, entries, p.String())
}

// LoadCustom replaces the window's entries with a custom generated set
func (t *Tracker) LoadCustom(ctx context.Context, params scenario.CustomParams) (contracts.IngestResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.deps.Generator.GenerateCustom(params, t.current.Load().StartDate)
	if err != nil {
		return contracts.IngestResult{}, err
	}
	return t.replaceEntries(ctx, entries, "custom")
}

// replaceEntries clears and ingests as one swap; callers hold t.mu
func (t *Tracker) replaceEntries(ctx context.Context, entries []contracts.Entry, name string) (contracts.IngestResult, error) {
	now := t.deps.now()
	next, result := window.Ingest(window.Cleared(t.current.Load(), now), entries, now)
	if err := t.commit(ctx, contracts.EventScenarioLoaded, next, true); err != nil {
		return contracts.IngestResult{}, err
	}

	t.log.Info().
		Str("scenario", name).
		Int("accepted", result.Accepted).
		Msg("scenario loaded")
	return result, nil
}

// commit persists next (when changed) and swaps it in; callers hold t.mu.
// A store failure leaves the current window untouched.
func (t *Tracker) commit(ctx context.Context, kind contracts.EventKind, next *contracts.Window, changed bool) error {
	prev := t.current.Load()

	if changed {
		if err := t.deps.Store.Save(ctx, next); err != nil {
			t.log.Error().Err(err).Str("kind", string(kind)).Msg("failed to save window")
			return fmt.Errorf("save window: %w", err)
		}
		t.current.Store(next)
	}

	wasComplete := window.Progress(prev).IsComplete
	progress := window.Progress(t.current.Load())
	completed := changed && progress.IsComplete && !wasComplete

	t.notify(ctx, contracts.ProgressEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		UserID:    progress.UserID,
		Progress:  progress,
		Completed: completed,
		At:        t.deps.now(),
	})

	if completed && t.deps.Trigger != nil {
		if err := t.deps.Trigger.WindowCompleted(ctx, progress); err != nil {
			t.log.Warn().Err(err).Str("window_id", progress.WindowID).Msg("prediction trigger failed")
		}
	}
	return nil
}

func (t *Tracker) notify(ctx context.Context, event contracts.ProgressEvent) {
	if t.deps.Notifier == nil {
		return
	}
	if err := t.deps.Notifier.Notify(ctx, event); err != nil {
		t.log.Warn().Err(err).Str("kind", string(event.Kind)).Msg("progress notification failed")
	}
}
