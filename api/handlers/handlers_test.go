package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalsim-labs/kalsim/core"
	"github.com/kalsim-labs/kalsim/market"
)

type fakeRunner struct {
	startErr error
	running  bool
	snapshot core.RunSnapshot
	artifact core.RunArtifact
	noResult bool

	gotConfig core.SimulationConfig
}

func (f *fakeRunner) Start(cfg core.SimulationConfig) (string, error) {
	f.gotConfig = cfg
	if f.startErr != nil {
		return "", f.startErr
	}
	return "run-123", nil
}

func (f *fakeRunner) Stop() bool { return f.running }

func (f *fakeRunner) State() core.RunSnapshot { return f.snapshot }

func (f *fakeRunner) Results() (core.RunArtifact, error) {
	if f.noResult {
		return core.RunArtifact{}, core.ErrNoResults
	}
	return f.artifact, nil
}

func testRouter(runner *fakeRunner, fetcher market.TrendFetcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := New(runner, fetcher)
	api := router.Group("/api")
	api.POST("/simulation/start", h.StartSimulation)
	api.POST("/simulation/stop", h.StopSimulation)
	api.GET("/simulation/state", h.GetSimulationState)
	api.GET("/results/stats", h.GetResultsStats)
	api.GET("/market/trend", h.GetMarketTrend)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestStartSimulationOK(t *testing.T) {
	runner := &fakeRunner{}
	router := testRouter(runner, nil)

	w, body := doJSON(t, router, http.MethodPost, "/api/simulation/start",
		`{"agent_count": 10, "day_count": 1, "mock_mode": true, "market_topic": "gme", "random_seed": 7}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "run-123", body["run_id"])
	assert.EqualValues(t, 24, body["total_steps"])

	assert.Equal(t, 10, runner.gotConfig.AgentCount)
	assert.True(t, runner.gotConfig.MockMode)
	require.NotNil(t, runner.gotConfig.RandomSeed)
	assert.EqualValues(t, 7, *runner.gotConfig.RandomSeed)
}

func TestStartSimulationMalformedBody(t *testing.T) {
	router := testRouter(&fakeRunner{}, nil)
	w, _ := doJSON(t, router, http.MethodPost, "/api/simulation/start", `{"agent_count": "ten"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartSimulationConflict(t *testing.T) {
	router := testRouter(&fakeRunner{startErr: core.ErrRunConflict}, nil)
	w, body := doJSON(t, router, http.MethodPost, "/api/simulation/start",
		`{"agent_count": 10, "day_count": 1}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, body["error"], "already running")
}

func TestStartSimulationValidationError(t *testing.T) {
	router := testRouter(&fakeRunner{
		startErr: &core.ConfigValidationError{Field: "agent_count", Reason: "must be between 1 and 1000"},
	}, nil)
	w, body := doJSON(t, router, http.MethodPost, "/api/simulation/start",
		`{"agent_count": 0, "day_count": 1}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "agent_count", body["field"])
}

func TestStopSimulation(t *testing.T) {
	router := testRouter(&fakeRunner{running: true}, nil)
	w, body := doJSON(t, router, http.MethodPost, "/api/simulation/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Stop requested", body["message"])

	router = testRouter(&fakeRunner{running: false}, nil)
	w, body = doJSON(t, router, http.MethodPost, "/api/simulation/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No simulation running", body["message"])
}

func TestGetSimulationState(t *testing.T) {
	runner := &fakeRunner{snapshot: core.RunSnapshot{
		RunID:       "run-123",
		IsRunning:   true,
		Status:      core.StatusRunning,
		CurrentStep: 12,
		TotalSteps:  24,
		ProgressPct: 50,
	}}
	router := testRouter(runner, nil)

	w, body := doJSON(t, router, http.MethodGet, "/api/simulation/state", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "RUNNING", body["status"])
	assert.EqualValues(t, 12, body["current_step"])
	assert.EqualValues(t, 50, body["progress_pct"])
}

func TestGetResultsStats(t *testing.T) {
	runner := &fakeRunner{artifact: core.RunArtifact{
		RunID:   "run-123",
		Status:  core.StatusCompleted,
		Summary: core.ResultsSummary{TotalPosts: 42},
	}}
	router := testRouter(runner, nil)

	w, body := doJSON(t, router, http.MethodGet, "/api/results/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "run-123", body["run_id"])
	summary, ok := body["summary"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 42, summary["total_posts"])
}

func TestGetResultsStatsNoResults(t *testing.T) {
	router := testRouter(&fakeRunner{noResult: true}, nil)
	w, _ := doJSON(t, router, http.MethodGet, "/api/results/stats", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type fixedTrendFetcher struct{ seed market.TrendSeed }

func (f fixedTrendFetcher) FetchTrend(topic string) (market.TrendSeed, error) {
	return f.seed, nil
}

func TestGetMarketTrend(t *testing.T) {
	fetcher := fixedTrendFetcher{seed: market.TrendSeed{
		Topic:     "gme",
		BasePrice: 42,
		Headlines: []string{"short interest spikes"},
	}}
	router := testRouter(&fakeRunner{}, fetcher)

	w, body := doJSON(t, router, http.MethodGet, "/api/market/trend?topic=gme", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gme", body["topic"])
	assert.EqualValues(t, 42, body["base_price"])
}

func TestGetMarketTrendNilFetcherNeutral(t *testing.T) {
	router := testRouter(&fakeRunner{}, nil)

	w, body := doJSON(t, router, http.MethodGet, "/api/market/trend", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, market.DefaultBasePrice, body["base_price"])
}
