package contracts

import (
	"fmt"
	"time"
)

// Entry is one calendar day's recorded observation
// ⭐ SSOT: 일별 증상 기록
type Entry struct {
	Date    time.Time          `json:"date"`              // UTC midnight
	Metrics map[string]float64 `json:"metrics"`           // symptom -> intensity (0~10)
	Note    string             `json:"note,omitempty"`
}

// Window is the currently active observation period of one user
// Treated as an immutable value: mutations build a new Window and swap it in.
type Window struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	StartDate time.Time        `json:"start_date"`
	TotalDays int              `json:"total_days"`
	Entries   map[string]Entry `json:"entries"` // keyed by YYYY-MM-DD
	UpdatedAt time.Time        `json:"updated_at"`
}

// Count returns the number of stored entries
func (w *Window) Count() int {
	return len(w.Entries)
}

// Has reports whether an entry exists for the date key
func (w *Window) Has(key string) bool {
	_, ok := w.Entries[key]
	return ok
}

// TrackingState is the logical state of a window
type TrackingState string

const (
	StateTracking TrackingState = "tracking"
	StateComplete TrackingState = "complete"
)

// Progress is the derived view handed to the presentation layer
// ⭐ SSOT: UserProgress 표시용 요약
type Progress struct {
	UserID        string        `json:"user_id"`
	WindowID      string        `json:"window_id"`
	StartDate     time.Time     `json:"start_date"`
	EndDate       time.Time     `json:"end_date"`
	CompletedDays int           `json:"completed_days"`
	TotalDays     int           `json:"total_days"`
	RemainingDays int           `json:"remaining_days"`
	Percentage    float64       `json:"percentage"`
	IsComplete    bool          `json:"is_complete"`
	State         TrackingState `json:"state"`
}

// Message returns the status line shown under the progress bar
func (p Progress) Message() string {
	if p.IsComplete {
		return "Tracking period complete. Ready for prediction analysis."
	}
	if p.RemainingDays == 1 {
		return "1 day remaining"
	}
	return fmt.Sprintf("%d days remaining", p.RemainingDays)
}

// IngestResult reports how many entries an ingestion accepted
// Rejections are partial-success counts, not errors.
type IngestResult struct {
	Accepted     int `json:"accepted"`
	Rejected     int `json:"rejected"`
	OutOfRange   int `json:"out_of_range"`
	Duplicate    int `json:"duplicate"`
	OverCapacity int `json:"over_capacity"`
}

// Add merges another result into r
func (r *IngestResult) Add(other IngestResult) {
	r.Accepted += other.Accepted
	r.Rejected += other.Rejected
	r.OutOfRange += other.OutOfRange
	r.Duplicate += other.Duplicate
	r.OverCapacity += other.OverCapacity
}

// EventKind names the mutation that produced a progress event
type EventKind string

const (
	EventIngested       EventKind = "ingested"
	EventCleared        EventKind = "cleared"
	EventPeriodStarted  EventKind = "period_started"
	EventScenarioLoaded EventKind = "scenario_loaded"
	EventCompleted      EventKind = "completed"
)

// ProgressEvent is the "progress changed" notification
type ProgressEvent struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	UserID    string    `json:"user_id"`
	Progress  Progress  `json:"progress"`
	Completed bool      `json:"completed"` // window became complete with this mutation
	At        time.Time `json:"at"`
}
