package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuescout/internal/config"
	"valuescout/internal/model"
	"valuescout/internal/service"
)

const (
	analysisJSON = `{"attributes": [{"key": "size", "label": "Size", "type": "NUMBER"}], "marketGuide": "Buy big."}`
	searchJSON   = `{"summary": "One pick", "products": [{"brand": "Acme", "name": "Panel", "price": 199, "valueScore": 88}]}`
)

// scriptedClient answers analysis prompts and search prompts by request mode
type scriptedClient struct {
	mu      sync.Mutex
	enabled bool
	err     error
	calls   int
}

func (s *scriptedClient) IsEnabled() bool { return s.enabled }

func (s *scriptedClient) Generate(_ context.Context, req service.GenerateRequest) (*service.GenerateResponse, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if req.Grounding {
		return &service.GenerateResponse{Text: searchJSON}, nil
	}
	return &service.GenerateResponse{Text: analysisJSON}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{AllowedOrigins: "*"},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}
}

func newTestRouter(t *testing.T, client service.AIClient, cfg *config.Config) *gin.Engine {
	return newTestRouterWithMissions(t, client, cfg, nil)
}

func newTestRouterWithMissions(t *testing.T, client service.AIClient, cfg *config.Config, missions *service.MissionService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	scout := service.NewScout(
		service.NewCategoryAnalyzer(client, nil),
		service.NewProductSearcher(client, nil, nil),
		service.NewRanker(),
		nil,
		service.WithMetrics(service.NewMetrics(reg)),
	)

	return NewRouter(RouterDeps{
		Config:   cfg,
		Scout:    scout,
		Missions: missions,
		Gatherer: reg,
		Build:    BuildInfo{Version: "test"},
	})
}

func doRequest(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthAndVersion(t *testing.T) {
	router := newTestRouter(t, &scriptedClient{enabled: true}, testConfig())

	w := doRequest(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = doRequest(router, http.MethodGet, "/version", "", map[string]string{requestIDHeader: "abc"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Header().Get(requestIDHeader))
}

func TestResolveRegion(t *testing.T) {
	router := newTestRouter(t, &scriptedClient{enabled: true}, testConfig())

	w := doRequest(router, http.MethodGet, "/api/v1/regions/resolve?timeZone=America/Vancouver", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var region model.RegionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &region))
	assert.Equal(t, "Canada", region.CountryName)
	assert.Equal(t, "amazon.ca", region.Domain)
}

func TestAnalyze(t *testing.T) {
	router := newTestRouter(t, &scriptedClient{enabled: true}, testConfig())

	w := doRequest(router, http.MethodPost, "/api/v1/analyze", `{"query": "monitor", "timeZone": "America/New_York"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result model.AnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Attributes, 1)
	assert.Equal(t, "size", result.Attributes[0].Key)
	assert.Equal(t, "USA", result.Region.CountryName)
}

func TestAnalyzeRejectsEmptyQuery(t *testing.T) {
	client := &scriptedClient{enabled: true}
	router := newTestRouter(t, client, testConfig())

	for _, body := range []string{`{}`, `{"query": "   "}`, `not json`} {
		w := doRequest(router, http.MethodPost, "/api/v1/analyze", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Zero(t, client.calls)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	tests := []struct {
		name   string
		client *scriptedClient
		status int
		kind   service.ErrorKind
	}{
		{
			name:   "missing key",
			client: &scriptedClient{enabled: false},
			status: http.StatusServiceUnavailable,
			kind:   service.KindEnvironmentAuthFailure,
		},
		{
			name:   "rejected key",
			client: &scriptedClient{enabled: true, err: &service.BackendError{StatusCode: 403, Message: "forbidden"}},
			status: http.StatusBadGateway,
			kind:   service.KindCredentialRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.client, testConfig())

			w := doRequest(router, http.MethodPost, "/api/v1/scout", `{"query": "monitor"}`, nil)
			assert.Equal(t, tt.status, w.Code)

			var body model.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, string(tt.kind), body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusForKind(service.KindSuperseded))
	assert.Equal(t, http.StatusBadGateway, statusForKind(service.KindMalformedResponse))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(service.KindBackend))
}

func TestScout(t *testing.T) {
	router := newTestRouter(t, &scriptedClient{enabled: true}, testConfig())

	w := doRequest(router, http.MethodPost, "/api/v1/scout", `{"query": "monitor"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.ScoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, 1, resp.Products[0].Rank)
	assert.Equal(t, "One pick", resp.Summary)
	assert.NotEmpty(t, resp.Products[0].Retailers)
}

func TestScoutStream(t *testing.T) {
	router := newTestRouter(t, &scriptedClient{enabled: true}, testConfig())

	w := doRequest(router, http.MethodPost, "/api/v1/scout/stream", `{"query": "monitor"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	body := w.Body.String()
	order := []string{"event: start", "event: analyzing", "event: analysis", "event: searching", "event: results", "event: done"}
	last := -1
	for _, event := range order {
		idx := strings.Index(body, event)
		require.Greater(t, idx, last, "missing or out of order: %s", event)
		last = idx
	}
	assert.NotContains(t, body, "event: error")
}

func TestScoutStreamError(t *testing.T) {
	router := newTestRouter(t, &scriptedClient{enabled: false}, testConfig())

	w := doRequest(router, http.MethodPost, "/api/v1/scout/stream", `{"query": "monitor"}`, nil)
	body := w.Body.String()
	assert.Contains(t, body, "event: error")
	assert.Contains(t, body, string(service.KindEnvironmentAuthFailure))
	assert.NotContains(t, body, "event: results")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	router := newTestRouter(t, &scriptedClient{enabled: true}, cfg)

	w := doRequest(router, http.MethodPost, "/api/v1/analyze", `{"query": "monitor"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/analyze", `{"query": "monitor"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

	// region lookups are not limited
	w = doRequest(router, http.MethodGet, "/api/v1/regions/resolve", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminStats(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, &scriptedClient{enabled: true}, cfg)

	w := doRequest(router, http.MethodGet, "/api/v1/admin/stats", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	cfg.Admin.Passcode = "letmein"
	router = newTestRouter(t, &scriptedClient{enabled: true}, cfg)

	w = doRequest(router, http.MethodGet, "/api/v1/admin/stats", "", map[string]string{adminPasscodeHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// no mission store configured
	w = doRequest(router, http.MethodGet, "/api/v1/admin/stats", "", map[string]string{adminPasscodeHeader: "letmein"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSimilarMissionsWithoutStore(t *testing.T) {
	router := newTestRouter(t, &scriptedClient{enabled: true}, testConfig())

	w := doRequest(router, http.MethodGet, "/api/v1/missions/similar?q=monitor", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &scriptedClient{enabled: true}, testConfig())

	doRequest(router, http.MethodPost, "/api/v1/analyze", `{"query": "monitor"}`, nil)

	w := doRequest(router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "searches_total")
}

func TestUnknownAPIRoute(t *testing.T) {
	router := newTestRouter(t, &scriptedClient{enabled: true}, testConfig())

	w := doRequest(router, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// stubStore is a MissionStore with fixed answers
type stubStore struct{}

func (stubStore) RecordMission(context.Context, *model.Mission, []float32) (int64, error) {
	return 1, nil
}

func (stubStore) GetStats(_ context.Context, days int) (*model.MissionStats, error) {
	return &model.MissionStats{TotalMissions: 3, History: make([]model.DailyMissions, days)}, nil
}

func (stubStore) FindSimilar(context.Context, []float32, int) ([]model.Mission, error) {
	return nil, nil
}

func TestSimilarMissionsWithoutEmbedder(t *testing.T) {
	missions := service.NewMissionService(stubStore{}, nil, nil)
	router := newTestRouterWithMissions(t, &scriptedClient{enabled: true}, testConfig(), missions)

	w := doRequest(router, http.MethodGet, "/api/v1/missions/similar?q=monitor", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "UNAVAILABLE", body.Error)
	assert.Equal(t, service.ErrEmbedderMissing.Error(), body.Message)
}

func TestAdminStatsWithStore(t *testing.T) {
	cfg := testConfig()
	cfg.Admin.Passcode = "letmein"
	missions := service.NewMissionService(stubStore{}, nil, nil)
	router := newTestRouterWithMissions(t, &scriptedClient{enabled: true}, cfg, missions)

	w := doRequest(router, http.MethodGet, "/api/v1/admin/stats?days=3", "", map[string]string{adminPasscodeHeader: "letmein"})
	require.Equal(t, http.StatusOK, w.Code)

	var stats model.MissionStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalMissions)
	assert.Len(t, stats.History, 3)

	w = doRequest(router, http.MethodGet, "/api/v1/admin/stats?days=0", "", map[string]string{adminPasscodeHeader: "letmein"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
