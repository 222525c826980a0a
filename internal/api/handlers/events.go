package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/symptrack/internal/notify"
	"github.com/wonny/symptrack/internal/tracker"
	"github.com/wonny/symptrack/pkg/logger"
)

// EventsHandler streams progress events over a websocket
type EventsHandler struct {
	registry *tracker.Registry
	hub      *notify.Hub
	logger   *logger.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(registry *tracker.Registry, hub *notify.Hub, log *logger.Logger) *EventsHandler {
	return &EventsHandler{
		registry: registry,
		hub:      hub,
		logger:   log,
	}
}

// Stream upgrades to a websocket and pushes the user's progress events
// GET /api/users/{user}/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	t, err := h.registry.Get(r.Context(), mux.Vars(r)["user"])
	if err != nil {
		respondErr(w, h.logger, err, "Failed to load tracker")
		return
	}
	h.hub.ServeWS(w, r, t.UserID())
}
