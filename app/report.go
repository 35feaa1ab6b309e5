package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"adscope/domain/analysis"
)

// ReportWriter materializes a compiled run as report artifacts:
// insights.json, creatives.json, creatives.xlsx, report.md and
// trace.jsonl under a per-run directory.
type ReportWriter struct {
	Dir string
}

// NewReportWriter creates a writer rooted at dir.
func NewReportWriter(dir string) *ReportWriter {
	return &ReportWriter{Dir: dir}
}

// insightsDocument is the insights.json artifact shape.
type insightsDocument struct {
	RunID       string                      `json:"run_id"`
	Query       string                      `json:"query"`
	State       analysis.RunState           `json:"state"`
	Plan        *analysis.Plan              `json:"plan,omitempty"`
	Hypotheses  []analysis.Hypothesis       `json:"hypotheses"`
	Validations []analysis.ValidationResult `json:"validations"`
	Findings    []analysis.ValidationResult `json:"actionable_findings"`
}

// creativesDocument is the creatives.json artifact shape.
type creativesDocument struct {
	RunID           string                            `json:"run_id"`
	Recommendations []analysis.CreativeRecommendation `json:"recommendations"`
}

// Write renders every artifact for the run. The files are independent,
// so they are written concurrently.
func (w *ReportWriter) Write(run *analysis.Context) (string, error) {
	dir := filepath.Join(w.Dir, run.RunID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	var g errgroup.Group

	g.Go(func() error {
		doc := insightsDocument{
			RunID:       run.RunID.String(),
			Query:       run.Query,
			State:       run.State,
			Plan:        run.Plan,
			Hypotheses:  run.Hypotheses,
			Validations: validationsInOrder(run),
			Findings:    run.Findings,
		}
		return writeJSON(filepath.Join(dir, "insights.json"), doc)
	})

	g.Go(func() error {
		doc := creativesDocument{
			RunID:           run.RunID.String(),
			Recommendations: run.Recommendations,
		}
		return writeJSON(filepath.Join(dir, "creatives.json"), doc)
	})

	g.Go(func() error {
		return writeCreativesXLSX(filepath.Join(dir, "creatives.xlsx"), run.Recommendations)
	})

	g.Go(func() error {
		return os.WriteFile(filepath.Join(dir, "report.md"), []byte(RenderMarkdown(run)), 0o644)
	})

	g.Go(func() error {
		trace, err := run.Trace.ExportJSONL()
		if err != nil {
			return fmt.Errorf("export trace: %w", err)
		}
		return os.WriteFile(filepath.Join(dir, "trace.jsonl"), []byte(trace), 0o644)
	})

	if err := g.Wait(); err != nil {
		return dir, err
	}

	log.Printf("[ReportWriter] run=%s artifacts written to %s", run.RunID, dir)
	return dir, nil
}

// RenderMarkdown produces the human-readable run report.
func RenderMarkdown(run *analysis.Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Ad Performance Analysis Report\n\n")
	fmt.Fprintf(&b, "**Run:** %s  \n", run.RunID)
	fmt.Fprintf(&b, "**Query:** %s  \n", run.Query)
	fmt.Fprintf(&b, "**State:** %s  \n", run.State)
	fmt.Fprintf(&b, "**Started:** %s  \n\n", run.StartedAt)

	if run.State == analysis.StateHalted {
		fmt.Fprintf(&b, "> Run halted: %s\n", run.HaltReason)
		return b.String()
	}

	if s := run.Summary; s != nil {
		fmt.Fprintf(&b, "## Dataset\n\n")
		fmt.Fprintf(&b, "- %d rows from %s to %s\n", s.RowCount,
			s.DateRange.Start.Format("2006-01-02"), s.DateRange.End.Format("2006-01-02"))
		fmt.Fprintf(&b, "- %d campaigns, %d adsets, %d creative types\n",
			len(s.Campaigns), len(s.Adsets), len(s.CreativeTypes))
		fmt.Fprintf(&b, "- Spend $%.2f, revenue $%.2f, average ROAS %.2f (median %.2f)\n",
			s.Performance.TotalSpend, s.Performance.TotalRevenue,
			s.Performance.AvgROAS, s.Performance.MedianROAS)
		fmt.Fprintf(&b, "- Average CTR %.4f; ROAS trend slope %.5f per day\n\n",
			s.Performance.AvgCTR, s.ROASTrendSlope)

		if len(s.LowCTRCampaigns) > 0 {
			fmt.Fprintf(&b, "### Low-CTR Campaigns (threshold %.4f)\n\n", s.LowCTRThreshold)
			fmt.Fprintf(&b, "| Campaign | Adset | CTR |\n|---|---|---|\n")
			for _, lp := range s.LowCTRCampaigns {
				fmt.Fprintf(&b, "| %s | %s | %.4f |\n", lp.CampaignName, lp.AdsetName, lp.CTR)
			}
			fmt.Fprintf(&b, "\n")
		}
	}

	if len(run.Findings) > 0 {
		fmt.Fprintf(&b, "## Validated Findings\n\n")
		for i, f := range run.Findings {
			fmt.Fprintf(&b, "### %d. %s\n\n", i+1, f.HypothesisTitle)
			fmt.Fprintf(&b, "- **Status:** %s (confidence %.2f)\n", f.Status, f.Confidence)
			if len(f.SupportingMetrics) > 0 {
				fmt.Fprintf(&b, "- **Evidence:** %s\n", strings.Join(f.SupportingMetrics, "; "))
			}
			if f.Reasoning != "" {
				fmt.Fprintf(&b, "- **Reasoning:** %s\n", f.Reasoning)
			}
			if f.Actionability != "" {
				fmt.Fprintf(&b, "- **Action:** %s\n", f.Actionability)
			}
			fmt.Fprintf(&b, "\n")
		}
	} else {
		fmt.Fprintf(&b, "## Validated Findings\n\nNo hypothesis cleared the validation confidence threshold.\n\n")
	}

	if len(run.Hypotheses) > 0 {
		fmt.Fprintf(&b, "## All Hypotheses\n\n")
		fmt.Fprintf(&b, "| ID | Title | Driver | Confidence | Verdict |\n|---|---|---|---|---|\n")
		for _, h := range run.Hypotheses {
			verdict := "not evaluated"
			if v, ok := run.Validations[h.ID]; ok {
				verdict = string(v.Status)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %s |\n", h.ID, h.Title, h.Driver, h.Confidence, verdict)
		}
		fmt.Fprintf(&b, "\n")
	}

	if len(run.Recommendations) > 0 {
		fmt.Fprintf(&b, "## Creative Recommendations\n\n")
		for _, rec := range run.Recommendations {
			fmt.Fprintf(&b, "### %s\n\n", rec.Campaign)
			fmt.Fprintf(&b, "- **Headline:** %s\n", rec.Headline)
			if rec.CTA != "" {
				fmt.Fprintf(&b, "- **CTA:** %s\n", rec.CTA)
			}
			fmt.Fprintf(&b, "- **Rationale:** %s\n", rec.Rationale)
			fmt.Fprintf(&b, "- **Predicted lift:** %s\n\n", rec.PredictedLift)
		}
	}

	fmt.Fprintf(&b, "## Execution Trace\n\n")
	fmt.Fprintf(&b, "| Stage | Attempt | Outcome | Elapsed |\n|---|---|---|---|\n")
	for _, rec := range run.Trace.Export() {
		fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", rec.Stage, rec.Attempt, rec.Outcome, rec.Elapsed)
	}

	return b.String()
}

// validationsInOrder flattens the validation map into hypothesis order.
func validationsInOrder(run *analysis.Context) []analysis.ValidationResult {
	out := make([]analysis.ValidationResult, 0, len(run.Validations))
	for _, h := range run.Hypotheses {
		if v, ok := run.Validations[h.ID]; ok {
			out = append(out, v)
		}
	}
	// Orphans should not exist, but never silently drop data.
	if len(out) < len(run.Validations) {
		seen := make(map[string]bool, len(out))
		for _, v := range out {
			seen[v.HypothesisID.String()] = true
		}
		var rest []analysis.ValidationResult
		for _, v := range run.Validations {
			if !seen[v.HypothesisID.String()] {
				rest = append(rest, v)
			}
		}
		sort.Slice(rest, func(i, j int) bool {
			return rest[i].HypothesisID < rest[j].HypothesisID
		})
		out = append(out, rest...)
	}
	return out
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}

// writeCreativesXLSX exports recommendations as a spreadsheet for media
// buyers who live in Excel.
func writeCreativesXLSX(path string, recs []analysis.CreativeRecommendation) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"campaign", "adset", "headline", "creative_angle", "value_prop", "cta", "rationale", "predicted_lift"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for row, rec := range recs {
		values := []string{rec.Campaign, rec.Adset, rec.Headline, rec.CreativeAngle, rec.ValueProp, rec.CTA, rec.Rationale, rec.PredictedLift}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}
