package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/symptrack/internal/scenario"
	"github.com/wonny/symptrack/internal/tracker"
	"github.com/wonny/symptrack/pkg/logger"
)

// ScenarioHandler handles demo scenario endpoints
type ScenarioHandler struct {
	registry  *tracker.Registry
	generator *scenario.Generator
	logger    *logger.Logger
}

// NewScenarioHandler creates a new scenario handler
func NewScenarioHandler(registry *tracker.Registry, gen *scenario.Generator, log *logger.Logger) *ScenarioHandler {
	return &ScenarioHandler{
		registry:  registry,
		generator: gen,
		logger:    log,
	}
}

// ScenarioInfo describes one predefined profile
type ScenarioInfo struct {
	Key          string  `json:"key"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	RiskLevel    string  `json:"risk_level"`
	MinIntensity float64 `json:"min_intensity"`
	MaxIntensity float64 `json:"max_intensity"`
	IncludeNotes bool    `json:"include_notes"`
}

// List returns the profile catalogue
// GET /api/scenarios
func (h *ScenarioHandler) List(w http.ResponseWriter, r *http.Request) {
	specs := h.generator.Catalogue()
	out := make([]ScenarioInfo, 0, len(specs))
	for _, s := range specs {
		out = append(out, ScenarioInfo{
			Key:          s.Profile.String(),
			Name:         s.Name,
			Description:  s.Description,
			RiskLevel:    string(s.RiskLevel),
			MinIntensity: s.Intensity.Min,
			MaxIntensity: s.Intensity.Max,
			IncludeNotes: s.IncludeNotes,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scenarios": out,
		"custom":    scenario.DefaultCustom,
	})
}

// Load replaces the window's entries with a predefined scenario
// POST /api/users/{user}/scenarios/{name}
func (h *ScenarioHandler) Load(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	profile, err := scenario.ParseProfile(vars["name"])
	if err != nil {
		respondErr(w, h.logger, err, "Failed to load scenario")
		return
	}

	t, err := h.registry.Get(r.Context(), vars["user"])
	if err != nil {
		respondErr(w, h.logger, err, "Failed to load tracker")
		return
	}

	result, err := t.LoadScenario(r.Context(), profile)
	if err != nil {
		respondErr(w, h.logger, err, "Failed to load scenario")
		return
	}

	respondJSON(w, http.StatusOK, MutationResponse{Result: &result, Progress: newProgressResponse(t)})
}

// CustomRequest is the body of POST /scenarios/custom
type CustomRequest struct {
	RiskLevel        string   `json:"risk_level"`
	SymptomIntensity *float64 `json:"symptom_intensity"`
	IncludeNotes     *bool    `json:"include_notes"`
}

// LoadCustom replaces the window's entries with a custom scenario
// POST /api/users/{user}/scenarios/custom
func (h *ScenarioHandler) LoadCustom(w http.ResponseWriter, r *http.Request) {
	var req CustomRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	params := scenario.DefaultCustom
	if req.RiskLevel != "" {
		level, err := scenario.ParseRiskLevel(req.RiskLevel)
		if err != nil {
			respondErr(w, h.logger, err, "Failed to load custom scenario")
			return
		}
		params.RiskLevel = level
	}
	if req.SymptomIntensity != nil {
		params.SymptomIntensity = *req.SymptomIntensity
	}
	if req.IncludeNotes != nil {
		params.IncludeNotes = *req.IncludeNotes
	}

	t, err := h.registry.Get(r.Context(), mux.Vars(r)["user"])
	if err != nil {
		respondErr(w, h.logger, err, "Failed to load tracker")
		return
	}

	result, err := t.LoadCustom(r.Context(), params)
	if err != nil {
		respondErr(w, h.logger, err, "Failed to load custom scenario")
		return
	}

	respondJSON(w, http.StatusOK, MutationResponse{Result: &result, Progress: newProgressResponse(t)})
}
