package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/internal/tracker"
	"github.com/wonny/symptrack/internal/window"
	"github.com/wonny/symptrack/pkg/logger"
)

// ProgressHandler handles window progress and entry endpoints
// ⭐ SSOT: 진행률 API 핸들러는 이 구조체에서만
type ProgressHandler struct {
	registry *tracker.Registry
	logger   *logger.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(registry *tracker.Registry, log *logger.Logger) *ProgressHandler {
	return &ProgressHandler{
		registry: registry,
		logger:   log,
	}
}

// EntryPayload is the wire form of one day's entry
type EntryPayload struct {
	Date    string             `json:"date"` // YYYY-MM-DD
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Note    string             `json:"note,omitempty"`
}

// ProgressResponse is the progress view plus the window's entries
type ProgressResponse struct {
	contracts.Progress
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Rounded   int            `json:"percentage_rounded"`
	Message   string         `json:"message"`
	Entries   []EntryPayload `json:"entries"`
}

// MutationResponse is returned by every mutating endpoint
type MutationResponse struct {
	Result   *contracts.IngestResult `json:"result,omitempty"`
	Progress ProgressResponse        `json:"progress"`
}

func newProgressResponse(t *tracker.Tracker) ProgressResponse {
	p := t.Progress()
	entries := t.Entries()

	out := ProgressResponse{
		Progress:  p,
		StartDate: window.DateKey(p.StartDate),
		EndDate:   window.DateKey(p.EndDate),
		Rounded:   int(p.Percentage + 0.5),
		Message:   p.Message(),
		Entries:   make([]EntryPayload, len(entries)),
	}
	for i, e := range entries {
		out.Entries[i] = EntryPayload{
			Date:    window.DateKey(e.Date),
			Metrics: e.Metrics,
			Note:    e.Note,
		}
	}
	return out
}

func (h *ProgressHandler) tracker(w http.ResponseWriter, r *http.Request) (*tracker.Tracker, bool) {
	t, err := h.registry.Get(r.Context(), mux.Vars(r)["user"])
	if err != nil {
		respondErr(w, h.logger, err, "Failed to load tracker")
		return nil, false
	}
	return t, true
}

// GetProgress returns the user's current progress
// GET /api/users/{user}/progress
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	t, ok := h.tracker(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newProgressResponse(t))
}

// ListProgress returns the progress of every loaded tracker
// GET /api/progress
func (h *ProgressHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trackers": h.registry.Snapshot(),
	})
}

// IngestRequest is the body of POST /entries
type IngestRequest struct {
	Entries []EntryPayload `json:"entries"`
}

// Ingest records entries
// POST /api/users/{user}/entries
func (h *ProgressHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entries := make([]contracts.Entry, 0, len(req.Entries))
	for _, p := range req.Entries {
		d, err := window.ParseDate(p.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", p.Date))
			return
		}
		entries = append(entries, contracts.Entry{Date: d, Metrics: p.Metrics, Note: p.Note})
	}

	t, ok := h.tracker(w, r)
	if !ok {
		return
	}

	result, err := t.Ingest(r.Context(), entries)
	if err != nil {
		respondErr(w, h.logger, err, "Failed to ingest entries")
		return
	}

	respondJSON(w, http.StatusOK, MutationResponse{Result: &result, Progress: newProgressResponse(t)})
}

// Clear removes every entry of the current window
// DELETE /api/users/{user}/entries
func (h *ProgressHandler) Clear(w http.ResponseWriter, r *http.Request) {
	t, ok := h.tracker(w, r)
	if !ok {
		return
	}

	if err := t.ClearAll(r.Context()); err != nil {
		respondErr(w, h.logger, err, "Failed to clear entries")
		return
	}

	respondJSON(w, http.StatusOK, MutationResponse{Progress: newProgressResponse(t)})
}

// StartPeriodRequest is the body of POST /period
type StartPeriodRequest struct {
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD, default today
}

// StartPeriod rolls a complete window into a new one
// POST /api/users/{user}/period
func (h *ProgressHandler) StartPeriod(w http.ResponseWriter, r *http.Request) {
	var req StartPeriodRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var start time.Time
	if req.StartDate != "" {
		d, err := window.ParseDate(req.StartDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD")
			return
		}
		start = d
	}

	t, ok := h.tracker(w, r)
	if !ok {
		return
	}

	if err := t.StartNewPeriod(r.Context(), start); err != nil {
		respondErr(w, h.logger, err, "Failed to start new period")
		return
	}

	respondJSON(w, http.StatusOK, MutationResponse{Progress: newProgressResponse(t)})
}

// RandomDaysRequest is the body of POST /random-days
type RandomDaysRequest struct {
	Days int `json:"days"`
}

// AddRandomDays adds generated entries on free dates
// POST /api/users/{user}/random-days
func (h *ProgressHandler) AddRandomDays(w http.ResponseWriter, r *http.Request) {
	req := RandomDaysRequest{Days: 5}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, ok := h.tracker(w, r)
	if !ok {
		return
	}

	result, err := t.AddRandomDays(r.Context(), req.Days)
	if err != nil {
		respondErr(w, h.logger, err, "Failed to add random days")
		return
	}

	respondJSON(w, http.StatusOK, MutationResponse{Result: &result, Progress: newProgressResponse(t)})
}
