package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"adscope/domain/analysis"
	"adscope/domain/core"
)

func compiledRun() *analysis.Context {
	run := analysis.NewContext("why did roas decline?")
	run.State = analysis.StateCompiled
	run.CompletedAt = core.Now()
	run.Summary = testSummary()
	run.Plan = &analysis.Plan{Subtasks: []analysis.Subtask{{ID: "task_1", Title: "Summarize"}}}
	run.Hypotheses = []analysis.Hypothesis{
		{ID: "h_1", Title: "Creative fatigue", Driver: "creative_fatigue", Confidence: 0.8},
	}
	run.Validations[core.HypothesisID("h_1")] = analysis.ValidationResult{
		HypothesisID:    "h_1",
		HypothesisTitle: "Creative fatigue",
		Status:          analysis.StatusConfirmed,
		Confidence:      0.85,
	}
	run.Findings = []analysis.ValidationResult{run.Validations[core.HypothesisID("h_1")]}
	run.Recommendations = []analysis.CreativeRecommendation{
		{
			ID:            core.RecommendationID(core.NewID()),
			Campaign:      "Summer_Launch",
			Adset:         "broad_all",
			Headline:      "Feel the difference",
			Rationale:     "ugc outperforms static",
			PredictedLift: "+15-25%",
		},
	}
	run.Trace.Record(analysis.AttemptRecord{Stage: analysis.StagePlan, Attempt: 1, Outcome: analysis.OutcomeSuccess})
	return run
}

func TestReportWriterWritesAllArtifacts(t *testing.T) {
	run := compiledRun()
	writer := NewReportWriter(t.TempDir())

	dir, err := writer.Write(run)
	assert.NoError(t, err)

	for _, name := range []string{"insights.json", "creatives.json", "creatives.xlsx", "report.md", "trace.jsonl"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "missing artifact %s", name)
	}

	// insights.json round-trips.
	data, err := os.ReadFile(filepath.Join(dir, "insights.json"))
	assert.NoError(t, err)
	var insights insightsDocument
	assert.NoError(t, json.Unmarshal(data, &insights))
	assert.Equal(t, run.RunID.String(), insights.RunID)
	assert.Len(t, insights.Findings, 1)

	// trace.jsonl has one line per attempt.
	trace, err := os.ReadFile(filepath.Join(dir, "trace.jsonl"))
	assert.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(trace)), "\n"), run.Trace.Len())
}

func TestReportWriterXLSXContent(t *testing.T) {
	run := compiledRun()
	dir, err := NewReportWriter(t.TempDir()).Write(run)
	assert.NoError(t, err)

	f, err := excelize.OpenFile(filepath.Join(dir, "creatives.xlsx"))
	assert.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	assert.NoError(t, err)
	assert.Len(t, rows, 2) // header + one recommendation
	assert.Equal(t, "campaign", rows[0][0])
	assert.Equal(t, "Summer_Launch", rows[1][0])
}

func TestRenderMarkdownIncludesSections(t *testing.T) {
	md := RenderMarkdown(compiledRun())

	assert.Contains(t, md, "# Ad Performance Analysis Report")
	assert.Contains(t, md, "## Dataset")
	assert.Contains(t, md, "## Validated Findings")
	assert.Contains(t, md, "Creative fatigue")
	assert.Contains(t, md, "## Creative Recommendations")
	assert.Contains(t, md, "Feel the difference")
	assert.Contains(t, md, "## Execution Trace")
}

func TestRenderMarkdownHaltedRun(t *testing.T) {
	run := analysis.NewContext("q")
	run.State = analysis.StateHalted
	run.HaltReason = "data summary failed: file missing"

	md := RenderMarkdown(run)
	assert.Contains(t, md, "Run halted: data summary failed")
	assert.NotContains(t, md, "## Validated Findings")
}

func TestRenderMarkdownNoFindings(t *testing.T) {
	run := compiledRun()
	run.Findings = nil

	md := RenderMarkdown(run)
	assert.Contains(t, md, "No hypothesis cleared the validation confidence threshold")
}
