package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/symptrack/internal/api/handlers"
	"github.com/wonny/symptrack/pkg/logger"
)

// Handlers groups every endpoint handler of the router
type Handlers struct {
	Progress *handlers.ProgressHandler
	Scenario *handlers.ScenarioHandler
	Events   *handlers.EventsHandler // optional, nil disables the websocket route
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, limiter Limiter, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Read endpoints
	api.HandleFunc("/progress", h.Progress.ListProgress).Methods("GET")
	api.HandleFunc("/scenarios", h.Scenario.List).Methods("GET")
	api.HandleFunc("/users/{user}/progress", h.Progress.GetProgress).Methods("GET")
	if h.Events != nil {
		api.HandleFunc("/users/{user}/events", h.Events.Stream).Methods("GET")
	}

	// Mutations (rate limited per user)
	mut := api.PathPrefix("/users/{user}").Subrouter()
	mut.HandleFunc("/entries", h.Progress.Ingest).Methods("POST")
	mut.HandleFunc("/entries", h.Progress.Clear).Methods("DELETE")
	mut.HandleFunc("/period", h.Progress.StartPeriod).Methods("POST")
	mut.HandleFunc("/random-days", h.Progress.AddRandomDays).Methods("POST")
	// custom before {name}
	mut.HandleFunc("/scenarios/custom", h.Scenario.LoadCustom).Methods("POST")
	mut.HandleFunc("/scenarios/{name}", h.Scenario.Load).Methods("POST")
	if limiter != nil {
		mut.Use(rateLimitMiddleware(limiter, log))
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "symptrack-api",
	})
}
