package api

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

	"github.com/stretchr/testify/assert"

	"adscope/adapters/memory"
	"adscope/ai"
	"adscope/app"
	"adscope/domain/analysis"
	"adscope/domain/dataset"
	"adscope/internal/retry"
	"adscope/internal/testkit"
	"adscope/models"
)

type stubSummarizer struct {
	summary *dataset.Summary
}

func (s *stubSummarizer) Summarize(ctx context.Context) (*dataset.Summary, error) {
	return s.summary, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memory.RunStore) {
	t.Helper()

	dir := t.TempDir()
	for _, name := range []string{"planner", "insight", "evaluator", "creative"} {
		err := os.WriteFile(filepath.Join(dir, name+".txt"),
			[]byte("{QUERY}{PLAN}{DATA_SUMMARY}{HYPOTHESES}{CAMPAIGN}{ADSET}{CTR}{CURRENT_MESSAGE}{WINNING_PATTERNS}{FINDINGS}"), 0o644)
		assert.NoError(t, err)
	}

	client := testkit.NewScriptedClient(
		testkit.Respond(testkit.PlanJSON),
		testkit.Respond(testkit.InsightJSON),
		testkit.Respond(testkit.EvaluationJSON),
		testkit.Respond(testkit.CreativeJSON),
	)
	inv := ai.NewInvoker(client, &models.AIConfig{SystemContext: "analyst", MaxTokens: 512, PromptsDir: dir})

	summary := &dataset.Summary{
		RowCount:        10,
		LowCTRThreshold: 0.012,
		LowCTRCampaigns: []dataset.LowPerformer{
			{CampaignName: "Summer_Launch", AdsetName: "broad_all", CTR: 0.009},
		},
	}

	orch := app.NewOrchestrator(inv, &stubSummarizer{summary: summary},
		retry.Policy{MaxAttempts: 2, BaseDelay: time.Microsecond, MaxDelay: time.Millisecond, Multiplier: 2.0},
		app.Thresholds{Hypothesis: 0.5, Validation: 0.6})

	store := memory.NewRunStore()
	ts := httptest.NewServer(NewServer(orch, store).Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func TestCreateRunEndpoint(t *testing.T) {
	ts, store := newTestServer(t)

	resp, err := http.Post(ts.URL+"/runs", "application/json",
		strings.NewReader(`{"query": "why did roas decline?"}`))
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var run analysis.Context
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, analysis.StateCompiled, run.State)
	assert.NotEmpty(t, run.Hypotheses)

	// Run persisted in the store.
	stored, err := store.GetRun(context.Background(), run.RunID)
	assert.NoError(t, err)
	assert.Equal(t, run.Query, stored.Query)
}

func TestCreateRunRejectsEmptyQuery(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/runs", "application/json", strings.NewReader(`{"query": "  "}`))
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRunAndReportAndTrace(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/runs", "application/json", strings.NewReader(`{"query": "q"}`))
	assert.NoError(t, err)
	var run analysis.Context
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	resp.Body.Close()

	// Full run document.
	getResp, err := http.Get(ts.URL + "/runs/" + run.RunID.String())
	assert.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	// HTML report.
	reportResp, err := http.Get(ts.URL + "/runs/" + run.RunID.String() + "/report")
	assert.NoError(t, err)
	defer reportResp.Body.Close()
	assert.Equal(t, http.StatusOK, reportResp.StatusCode)
	assert.Contains(t, reportResp.Header.Get("Content-Type"), "text/html")

	// JSONL trace.
	traceResp, err := http.Get(ts.URL + "/runs/" + run.RunID.String() + "/trace")
	assert.NoError(t, err)
	defer traceResp.Body.Close()
	assert.Equal(t, http.StatusOK, traceResp.StatusCode)
	assert.Contains(t, traceResp.Header.Get("Content-Type"), "application/x-ndjson")
}

func TestGetRunNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/runs/unknown-id")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListRunsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	for i := 0; i < 2; i++ {
		resp, err := http.Post(ts.URL+"/runs", "application/json", strings.NewReader(`{"query": "q"}`))
		assert.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/runs?limit=1")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var summaries []runSummary
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&summaries))
	assert.Len(t, summaries, 1)
}
