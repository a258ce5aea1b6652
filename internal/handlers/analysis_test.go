package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/analysis"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/api"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/config"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/handlers"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/store"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var refInstant = time.Date(2026, 2, 14, 21, 0, 0, 0, time.UTC)

type fetcherStub struct {
	points  []models.SeriesPoint
	release chan struct{}
}

func (f *fetcherStub) FetchCounts(_ context.Context, _ string) ([]models.SeriesPoint, error) {
	if f.release != nil {
		<-f.release
	}
	return f.points, nil
}

func seriesFixture() []models.SeriesPoint {
	points := make([]models.SeriesPoint, 0, 8)
	counts := []int{2, 4, 6, 8, 20, 15, 4, 3}
	for i, count := range counts {
		start := refInstant.Add(time.Duration(i-4) * 15 * time.Minute)
		points = append(points, models.SeriesPoint{Start: start, End: start.Add(15 * time.Minute), Count: count})
	}
	return points
}

type harness struct {
	router *gin.Engine
	runner *analysis.Runner
	works  *handlers.WorkSet
}

func newHarness(t *testing.T, fetcher analysis.Fetcher) *harness {
	t.Helper()
	log := testhelpers.NewTestLogger()

	dir := t.TempDir()
	mappingPath := filepath.Join(dir, "issue_date_mapping.csv")
	require.NoError(t, os.WriteFile(mappingPath, []byte("issue_number,date\n12,2026-02-14 21:00:00\n"), 0o644))
	issues := store.NewIssueDateMapping(mappingPath, time.UTC, log)

	summaryStore := store.NewSummaryStore(filepath.Join(dir, "data"), log)
	analyzer := analysis.NewAnalyzer(fetcher, 15*time.Minute, log)
	runner := analysis.NewRunner(analyzer, issues, nil, log)
	workSet := handlers.NewWorkSet([]models.Work{{Name: "alpha", Query: "alpha", QueryElements: []string{"alpha"}}})

	analysisHandler := handlers.NewAnalysisHandler(runner, summaryStore, workSet, 12, nil, log)
	worksHandler := handlers.NewWorksHandler(workSet, issues, 12, log)

	cfg := &config.Config{Server: config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}}}
	return &harness{
		router: api.NewRouter(cfg, analysisHandler, worksHandler, log),
		runner: runner,
		works:  workSet,
	}
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) waitCompleted(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.runner.Progress().Status == models.RunCompleted
	}, 2*time.Second, 5*time.Millisecond)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	h := newHarness(t, &fetcherStub{})

	w := h.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestProgressIdle(t *testing.T) {
	h := newHarness(t, &fetcherStub{})

	w := h.do(http.MethodGet, "/api/v1/analysis/progress", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "idle", body["status"])
	assert.Zero(t, body["current"])
	assert.Zero(t, body["total"])
}

func TestResultsBeforeAnyRun(t *testing.T) {
	h := newHarness(t, &fetcherStub{})

	w := h.do(http.MethodGet, "/api/v1/analysis/results", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No results available", decodeBody(t, w)["error"])
}

func TestStartRunsToCompletion(t *testing.T) {
	h := newHarness(t, &fetcherStub{points: seriesFixture()})

	start := h.do(http.MethodPost, "/api/v1/analysis/start",
		`{"reference_issue_number": 12, "trend_words": [{"word": "rocket", "work_name": "alpha", "rank": "1"}]}`)
	require.Equal(t, http.StatusOK, start.Code)
	assert.NotEmpty(t, decodeBody(t, start)["run_id"])

	h.waitCompleted(t)

	results := h.do(http.MethodGet, "/api/v1/analysis/results", "")
	require.Equal(t, http.StatusOK, results.Code)
	body := decodeBody(t, results)
	list, ok := body["results"].([]any)
	require.True(t, ok)
	// Original query, combined query, isolated trend word.
	assert.Len(t, list, 3)
}

func TestStartUsesConfiguredWorksByDefault(t *testing.T) {
	h := newHarness(t, &fetcherStub{points: seriesFixture()})

	start := h.do(http.MethodPost, "/api/v1/analysis/start", `{}`)
	require.Equal(t, http.StatusOK, start.Code)
	h.waitCompleted(t)

	results := h.do(http.MethodGet, "/api/v1/analysis/results", "")
	body := decodeBody(t, results)
	list := body["results"].([]any)
	require.Len(t, list, 1)
	first := list[0].(map[string]any)
	assert.Equal(t, "alpha", first["work_name"])
}

func TestStartConflict(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, &fetcherStub{points: seriesFixture(), release: release})

	first := h.do(http.MethodPost, "/api/v1/analysis/start", `{}`)
	require.Equal(t, http.StatusOK, first.Code)

	second := h.do(http.MethodPost, "/api/v1/analysis/start", `{}`)
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Equal(t, "Analysis already running", decodeBody(t, second)["error"])

	close(release)
	h.waitCompleted(t)
}

func TestStartInvalidBody(t *testing.T) {
	h := newHarness(t, &fetcherStub{})

	w := h.do(http.MethodPost, "/api/v1/analysis/start", `{"works": "not-a-list"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveWithoutResults(t *testing.T) {
	h := newHarness(t, &fetcherStub{})

	w := h.do(http.MethodPost, "/api/v1/analysis/save", `{}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveThenSummary(t *testing.T) {
	h := newHarness(t, &fetcherStub{points: seriesFixture()})

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/v1/analysis/start", `{}`).Code)
	h.waitCompleted(t)

	save := h.do(http.MethodPost, "/api/v1/analysis/save", `{}`)
	require.Equal(t, http.StatusOK, save.Code)
	body := decodeBody(t, save)
	assert.Equal(t, float64(12), body["issue_number"])
	assert.Equal(t, float64(1), body["saved_count"])
	assert.Equal(t, float64(0), body["trend_saved_count"])

	summary := h.do(http.MethodGet, "/api/v1/summary", "")
	require.Equal(t, http.StatusOK, summary.Code)
	summaryBody := decodeBody(t, summary)
	records := summaryBody["data"].([]any)
	require.Len(t, records, 1)
	record := records[0].(map[string]any)
	assert.Equal(t, "alpha", record["work_name"])
	assert.Equal(t, "12", record["issue_number"])

	trends := h.do(http.MethodGet, "/api/v1/trends", "")
	require.Equal(t, http.StatusOK, trends.Code)
	assert.Empty(t, decodeBody(t, trends)["data"])
}

func TestSummaryWithoutSavedData(t *testing.T) {
	h := newHarness(t, &fetcherStub{})

	w := h.do(http.MethodGet, "/api/v1/summary", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No saved data", decodeBody(t, w)["error"])
}
