package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/symptrack/internal/api/handlers"
	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/internal/notify"
	"github.com/wonny/symptrack/internal/scenario"
	"github.com/wonny/symptrack/internal/storage"
	"github.com/wonny/symptrack/internal/tracker"
	"github.com/wonny/symptrack/pkg/logger"
)

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	router   http.Handler
	registry *tracker.Registry
	hub      *notify.Hub
}

func newTestEnv(t *testing.T, limiter Limiter) *testEnv {
	t.Helper()

	log := logger.Nop()
	hub := notify.NewHub(zerolog.Nop())
	gen := scenario.NewGenerator(42)
	registry := tracker.NewRegistry(tracker.Deps{
		Store:     storage.NewMemoryStore(),
		Notifier:  hub,
		Generator: gen,
		Clock:     func() time.Time { return testNow },
		Logger:    zerolog.Nop(),
	})

	router := NewRouter(Handlers{
		Progress: handlers.NewProgressHandler(registry, log),
		Scenario: handlers.NewScenarioHandler(registry, gen, log),
		Events:   handlers.NewEventsHandler(registry, hub, log),
	}, limiter, log)

	return &testEnv{router: router, registry: registry, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type mutation struct {
	Result   *contracts.IngestResult `json:"result"`
	Progress struct {
		CompletedDays int                     `json:"completed_days"`
		TotalDays     int                     `json:"total_days"`
		Percentage    float64                 `json:"percentage"`
		IsComplete    bool                    `json:"is_complete"`
		StartDate     string                  `json:"start_date"`
		WindowID      string                  `json:"window_id"`
		Message       string                  `json:"message"`
		Entries       []handlers.EntryPayload `json:"entries"`
	} `json:"progress"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) mutation {
	t.Helper()
	var m mutation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestGetProgress_NewUser(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/users/alice/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var m mutation
	require.NoError(t, json.Unmarshal([]byte(`{"progress":`+rec.Body.String()+`}`), &m))
	assert.Equal(t, 0, m.Progress.CompletedDays)
	assert.Equal(t, 20, m.Progress.TotalDays)
	assert.Equal(t, "2024-05-01", m.Progress.StartDate)
	assert.Equal(t, "20 days remaining", m.Progress.Message)
	assert.Empty(t, m.Progress.Entries)
}

func TestIngest(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/users/alice/entries", map[string]interface{}{
		"entries": []map[string]interface{}{
			{"date": "2024-05-01", "metrics": map[string]float64{"fatigue": 4}},
			{"date": "2024-05-02"},
			{"date": "2024-05-02"},
			{"date": "2024-06-30"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	m := decode(t, rec)
	require.NotNil(t, m.Result)
	assert.Equal(t, 2, m.Result.Accepted)
	assert.Equal(t, 2, m.Result.Rejected)
	assert.Equal(t, 1, m.Result.Duplicate)
	assert.Equal(t, 1, m.Result.OutOfRange)
	assert.Equal(t, 2, m.Progress.CompletedDays)
	assert.Equal(t, 10.0, m.Progress.Percentage)
}

func TestIngest_BadDate(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/users/alice/entries", map[string]interface{}{
		"entries": []map[string]interface{}{{"date": "05/01/2024"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClear(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/users/alice/scenarios/lowRisk", nil)

	rec := env.do(t, http.MethodDelete, "/api/users/alice/entries", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	m := decode(t, rec)
	assert.Equal(t, 0, m.Progress.CompletedDays)
	assert.Equal(t, "2024-05-01", m.Progress.StartDate)
}

func TestStartPeriod(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/users/alice/period", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	first := decode(t, env.do(t, http.MethodPost, "/api/users/alice/scenarios/highRisk", nil))
	require.True(t, first.Progress.IsComplete)

	rec = env.do(t, http.MethodPost, "/api/users/alice/period", map[string]string{"start_date": "2024-06-01"})
	require.Equal(t, http.StatusOK, rec.Code)

	m := decode(t, rec)
	assert.Equal(t, 0, m.Progress.CompletedDays)
	assert.Equal(t, "2024-06-01", m.Progress.StartDate)
	assert.NotEqual(t, first.Progress.WindowID, m.Progress.WindowID)
}

func TestAddRandomDays(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/users/alice/random-days", map[string]int{"days": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode(t, rec)
	assert.Equal(t, 5, m.Result.Accepted)
	assert.Equal(t, 5, m.Progress.CompletedDays)

	rec = env.do(t, http.MethodPost, "/api/users/alice/random-days", map[string]int{"days": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenarios(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, key := range []string{"highRisk", "moderateRisk", "lowRisk"} {
		assert.Contains(t, rec.Body.String(), `"key":"`+key+`"`)
	}

	rec = env.do(t, http.MethodPost, "/api/users/alice/scenarios/extremeRisk", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/users/alice/scenarios/moderateRisk", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode(t, rec)
	assert.Equal(t, 20, m.Result.Accepted)
	assert.True(t, m.Progress.IsComplete)
	assert.Equal(t, "2024-05-01", m.Progress.Entries[0].Date)
	assert.Equal(t, "2024-05-20", m.Progress.Entries[19].Date)
}

func TestCustomScenario(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/users/alice/scenarios/custom", map[string]interface{}{
		"risk_level":        "high",
		"symptom_intensity": 0.9,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, decode(t, rec).Progress.CompletedDays)

	rec = env.do(t, http.MethodPost, "/api/users/bob/scenarios/custom", map[string]interface{}{
		"symptom_intensity": 1.5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/users/bob/scenarios/custom", map[string]interface{}{
		"risk_level": "extreme",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProgress(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/api/users/alice/progress", nil)
	env.do(t, http.MethodGet, "/api/users/bob/progress", nil)

	rec := env.do(t, http.MethodGet, "/api/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Trackers []contracts.Progress `json:"trackers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Trackers, 2)
	assert.Equal(t, "alice", body.Trackers[0].UserID)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, NewLocalLimiter(0.001, 2))

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodDelete, "/api/users/alice/entries", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := env.do(t, http.MethodDelete, "/api/users/alice/entries", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// other users and reads are unaffected
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/users/bob/entries", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/users/alice/progress", nil).Code)
}

func TestEventsWebsocket(t *testing.T) {
	env := newTestEnv(t, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/users/alice/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.Count("alice") == 1 }, time.Second, 10*time.Millisecond)

	tr, err := env.registry.Get(context.Background(), "alice")
	require.NoError(t, err)
	_, err = tr.LoadScenario(context.Background(), scenario.LowRisk)
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event contracts.ProgressEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, contracts.EventScenarioLoaded, event.Kind)
	assert.True(t, event.Completed)
	assert.Equal(t, 20, event.Progress.CompletedDays)
}
