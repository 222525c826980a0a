package window

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/symptrack/internal/contracts"
)

// New creates an empty window for userID starting at start
func New(userID string, start time.Time, now time.Time) *contracts.Window {
	return &contracts.Window{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartDate: Day(start),
		TotalDays: TotalDays,
		Entries:   make(map[string]contracts.Entry),
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of w
func Clone(w *contracts.Window) *contracts.Window {
	out := *w
	out.Entries = make(map[string]contracts.Entry, len(w.Entries))
	for k, e := range w.Entries {
		out.Entries[k] = cloneEntry(e)
	}
	return &out
}

// Cleared returns a copy of w with no entries and the same start date
func Cleared(w *contracts.Window, now time.Time) *contracts.Window {
	out := *w
	out.Entries = make(map[string]contracts.Entry)
	out.UpdatedAt = now
	return &out
}

// Progress derives the presentation view from w
func Progress(w *contracts.Window) contracts.Progress {
	total := w.TotalDays
	if total <= 0 {
		total = TotalDays
	}
	completed := CompletedDays(w.Count(), total)
	complete := IsComplete(completed, total)

	state := contracts.StateTracking
	if complete {
		state = contracts.StateComplete
	}

	return contracts.Progress{
		UserID:        w.UserID,
		WindowID:      w.ID,
		StartDate:     w.StartDate,
		EndDate:       EndDate(w.StartDate),
		CompletedDays: completed,
		TotalDays:     total,
		RemainingDays: total - completed,
		Percentage:    Percentage(completed, total),
		IsComplete:    complete,
		State:         state,
	}
}

// Clamp restores the window invariants on a value read back from storage.
// Entries outside [start, start+TotalDays-1] are dropped; when more than
// TotalDays remain, the oldest dates relative to the start date are kept.
func Clamp(w *contracts.Window) *contracts.Window {
	out := *w
	out.StartDate = Day(w.StartDate)
	out.TotalDays = TotalDays
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	entries := make([]contracts.Entry, 0, len(w.Entries))
	for _, e := range w.Entries {
		if InRange(out.StartDate, e.Date) {
			entries = append(entries, e)
		}
	}
	SortEntries(entries)

	out.Entries = make(map[string]contracts.Entry, TotalDays)
	for _, e := range entries {
		key := DateKey(e.Date)
		if _, dup := out.Entries[key]; dup {
			continue
		}
		if len(out.Entries) >= TotalDays {
			break
		}
		e = cloneEntry(e)
		e.Date = Day(e.Date)
		out.Entries[key] = e
	}

	return &out
}

// Keys returns the set of date keys present in w
func Keys(w *contracts.Window) map[string]bool {
	keys := make(map[string]bool, len(w.Entries))
	for k := range w.Entries {
		keys[k] = true
	}
	return keys
}

// SortedEntries returns w's entries ordered by date
func SortedEntries(w *contracts.Window) []contracts.Entry {
	entries := make([]contracts.Entry, 0, len(w.Entries))
	for _, e := range w.Entries {
		entries = append(entries, e)
	}
	SortEntries(entries)
	return entries
}

// SortEntries orders entries by date ascending
func SortEntries(entries []contracts.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
}

func cloneEntry(e contracts.Entry) contracts.Entry {
	if e.Metrics != nil {
		m := make(map[string]float64, len(e.Metrics))
		for k, v := range e.Metrics {
			m[k] = v
		}
		e.Metrics = m
	}
	return e
}
