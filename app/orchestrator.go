package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"adscope/adapters/llm/heuristic"
	"adscope/ai"
	"adscope/domain/analysis"
	"adscope/domain/core"
	"adscope/internal/retry"
	"adscope/models"
	"adscope/ports"
)

// Stage temperatures. Planning and evaluation run cold for determinism;
// hypothesis generation and creative work run warm for diversity.
const (
	tempPlan      = 0.3
	tempInsight   = 0.7
	tempEvaluator = 0.2
	tempCreative  = 0.8
)

// maxCreativeTargets caps how many low-CTR campaigns receive creative
// recommendations per run.
const maxCreativeTargets = 3

// Thresholds holds the per-stage confidence cutoffs.
type Thresholds struct {
	Hypothesis float64
	Validation float64
}

// Orchestrator drives the fixed analysis pipeline:
// Plan -> DataSummary -> Hypotheses -> Validation -> Creative -> Compile.
// It owns exactly one run context per Run call and never shares it.
type Orchestrator struct {
	invoker    *ai.Invoker
	summarizer ports.DataSummarizer
	fallback   *heuristic.Generator
	policy     retry.Policy
	thresholds Thresholds
}

// NewOrchestrator creates a pipeline orchestrator.
func NewOrchestrator(invoker *ai.Invoker, summarizer ports.DataSummarizer, policy retry.Policy, thresholds Thresholds) *Orchestrator {
	return &Orchestrator{
		invoker:    invoker,
		summarizer: summarizer,
		fallback:   heuristic.NewGenerator(),
		policy:     policy,
		thresholds: thresholds,
	}
}

// Run executes the full pipeline for one query. The returned context is
// always structurally complete: model failures degrade to fallback
// payloads, and only a dataset failure halts the run. A halted run is
// returned alongside the halting error so callers can still persist it.
func (o *Orchestrator) Run(ctx context.Context, query string) (*analysis.Context, error) {
	run := analysis.NewContext(query)
	started := time.Now()

	log.Printf("[Orchestrator] run=%s starting query=%q", run.RunID, query)

	if err := o.runPlanStage(ctx, run); err != nil {
		return run, err
	}
	if err := o.runDataSummaryStage(ctx, run); err != nil {
		return run, err
	}
	if err := o.runHypothesesStage(ctx, run); err != nil {
		return run, err
	}
	if err := o.runValidationStage(ctx, run); err != nil {
		return run, err
	}
	if err := o.runCreativeStage(ctx, run); err != nil {
		return run, err
	}

	o.compile(run)

	log.Printf("[Orchestrator] run=%s compiled in %s: %d hypotheses, %d findings, %d recommendations, %d attempts traced",
		run.RunID, time.Since(started).Round(time.Millisecond),
		len(run.Hypotheses), len(run.Findings), len(run.Recommendations), run.Trace.Len())

	return run, nil
}

// runPlanStage asks the planner to decompose the query into subtasks.
func (o *Orchestrator) runPlanStage(ctx context.Context, run *analysis.Context) error {
	vars := map[string]string{
		"QUERY": run.Query,
	}

	resp, err := retry.Do(ctx, o.policy, run.Trace, analysis.StagePlan,
		func(ctx context.Context) (*models.PlanResponse, error) {
			return ai.Invoke[models.PlanResponse](ctx, o.invoker, analysis.StagePlan, "planner", vars, tempPlan)
		})
	if err != nil {
		if !retry.IsExhausted(err) {
			return err
		}
		log.Printf("[Orchestrator] run=%s plan exhausted, using fallback: %v", run.RunID, err)
		resp = o.fallback.Plan(run.Query)
		o.recordFallback(run, analysis.StagePlan)
	}

	run.Plan = planFromResponse(resp)
	log.Printf("[Orchestrator] run=%s plan ready: %d subtasks", run.RunID, len(run.Plan.Subtasks))
	return nil
}

// runDataSummaryStage loads and summarizes the dataset. This is the one
// stage with no fallback: analysis without data would be fabrication, so
// a load failure halts the run.
func (o *Orchestrator) runDataSummaryStage(ctx context.Context, run *analysis.Context) error {
	start := time.Now()
	summary, err := o.summarizer.Summarize(ctx)
	elapsed := time.Since(start)

	if err != nil {
		run.Trace.Record(analysis.AttemptRecord{
			Stage:   analysis.StageDataSummary,
			Attempt: 1,
			Outcome: analysis.OutcomeInvocationFailed,
			Elapsed: elapsed,
			Error:   err.Error(),
		})
		run.State = analysis.StateHalted
		run.HaltReason = fmt.Sprintf("data summary failed: %v", err)
		run.CompletedAt = core.Now()
		log.Printf("[Orchestrator] run=%s halted: %v", run.RunID, err)
		return err
	}

	run.Trace.Record(analysis.AttemptRecord{
		Stage:   analysis.StageDataSummary,
		Attempt: 1,
		Outcome: analysis.OutcomeSuccess,
		Elapsed: elapsed,
	})
	run.Summary = summary
	log.Printf("[Orchestrator] run=%s data summary ready: %d rows, %d campaigns, %d low-CTR targets",
		run.RunID, summary.RowCount, len(summary.Campaigns), len(summary.LowCTRCampaigns))
	return nil
}

// runHypothesesStage generates candidate explanations and filters them by
// the hypothesis confidence threshold. Dropped hypotheses remain in the
// context but are excluded from validation.
func (o *Orchestrator) runHypothesesStage(ctx context.Context, run *analysis.Context) error {
	vars := map[string]string{
		"QUERY":        run.Query,
		"PLAN":         mustJSON(run.Plan),
		"DATA_SUMMARY": mustJSON(run.Summary),
	}

	resp, err := retry.Do(ctx, o.policy, run.Trace, analysis.StageHypotheses,
		func(ctx context.Context) (*models.InsightResponse, error) {
			return ai.Invoke[models.InsightResponse](ctx, o.invoker, analysis.StageHypotheses, "insight", vars, tempInsight)
		})
	if err != nil {
		if !retry.IsExhausted(err) {
			return err
		}
		log.Printf("[Orchestrator] run=%s hypotheses exhausted, using fallback: %v", run.RunID, err)
		resp = o.fallback.Insights(run.Query)
		o.recordFallback(run, analysis.StageHypotheses)
	}

	run.Hypotheses = hypothesesFromResponse(resp)

	kept, dropped := analysis.FilterByConfidence(run.Hypotheses, o.thresholds.Hypothesis)
	log.Printf("[Orchestrator] run=%s hypotheses ready: %d generated, %d above threshold %.2f, %d dropped",
		run.RunID, len(run.Hypotheses), len(kept), o.thresholds.Hypothesis, len(dropped))
	return nil
}

// runValidationStage asks the evaluator to score hypotheses that passed
// the confidence filter. If every hypothesis was filtered out the model
// call is skipped entirely.
func (o *Orchestrator) runValidationStage(ctx context.Context, run *analysis.Context) error {
	candidates, _ := analysis.FilterByConfidence(run.Hypotheses, o.thresholds.Hypothesis)
	if len(candidates) == 0 {
		log.Printf("[Orchestrator] run=%s validation skipped: no hypothesis above threshold %.2f",
			run.RunID, o.thresholds.Hypothesis)
		return nil
	}

	vars := map[string]string{
		"QUERY":        run.Query,
		"HYPOTHESES":   mustJSON(candidates),
		"DATA_SUMMARY": mustJSON(run.Summary),
	}

	resp, err := retry.Do(ctx, o.policy, run.Trace, analysis.StageValidation,
		func(ctx context.Context) (*models.EvaluationResponse, error) {
			return ai.Invoke[models.EvaluationResponse](ctx, o.invoker, analysis.StageValidation, "evaluator", vars, tempEvaluator)
		})
	if err != nil {
		if !retry.IsExhausted(err) {
			return err
		}
		log.Printf("[Orchestrator] run=%s validation exhausted, using fallback: %v", run.RunID, err)
		resp = o.fallback.Evaluation(candidates)
		o.recordFallback(run, analysis.StageValidation)
	}

	for _, item := range resp.Evaluations {
		id, err := core.ParseHypothesisID(item.HypothesisID)
		if err != nil {
			log.Printf("[Orchestrator] run=%s discarding evaluation with empty hypothesis id", run.RunID)
			continue
		}
		hyp, ok := run.HypothesisByID(id)
		if !ok {
			log.Printf("[Orchestrator] run=%s discarding evaluation for unknown hypothesis %s", run.RunID, id)
			continue
		}
		result := analysis.ValidationResult{
			HypothesisID:         id,
			HypothesisTitle:      hyp.Title,
			Status:               analysis.ValidationStatus(item.ValidationStatus),
			Confidence:           analysis.ClampConfidence(item.ConfidenceScore),
			SupportingMetrics:    item.SupportingMetrics,
			ContradictingMetrics: item.ContradictingMetrics,
			Reasoning:            item.ConfidenceReasoning,
			Actionability:        item.Actionability,
		}
		run.Validations[id] = result
	}

	run.Findings = actionableFindings(run, candidates, o.thresholds.Validation)
	log.Printf("[Orchestrator] run=%s validation ready: %d scored, %d actionable above threshold %.2f",
		run.RunID, len(run.Validations), len(run.Findings), o.thresholds.Validation)
	return nil
}

// runCreativeStage generates new creative recommendations for the worst
// low-CTR campaigns, one model call per target. A per-target exhaustion
// degrades to zero recommendations for that target rather than failing
// the run.
func (o *Orchestrator) runCreativeStage(ctx context.Context, run *analysis.Context) error {
	targets := run.Summary.LowCTRCampaigns
	if len(targets) > maxCreativeTargets {
		targets = targets[:maxCreativeTargets]
	}
	if len(targets) == 0 {
		log.Printf("[Orchestrator] run=%s creative skipped: no campaign below CTR threshold %.4f",
			run.RunID, run.Summary.LowCTRThreshold)
		return nil
	}

	for _, target := range targets {
		vars := map[string]string{
			"CAMPAIGN":         target.CampaignName,
			"ADSET":            target.AdsetName,
			"CTR":              fmt.Sprintf("%.4f", target.CTR),
			"CURRENT_MESSAGE":  target.CreativeMessage,
			"WINNING_PATTERNS": mustJSON(run.Summary.CreativePerformance),
			"FINDINGS":         mustJSON(run.Findings),
		}

		resp, err := retry.Do(ctx, o.policy, run.Trace, analysis.StageCreative,
			func(ctx context.Context) (*models.CreativeResponse, error) {
				return ai.Invoke[models.CreativeResponse](ctx, o.invoker, analysis.StageCreative, "creative", vars, tempCreative)
			})
		if err != nil {
			if !retry.IsExhausted(err) {
				return err
			}
			log.Printf("[Orchestrator] run=%s creative exhausted for campaign %q: %v", run.RunID, target.CampaignName, err)
			resp = o.fallback.Creative(target.CampaignName)
			o.recordFallback(run, analysis.StageCreative)
		}

		for _, item := range resp.Recommendations {
			rec := analysis.CreativeRecommendation{
				ID:            core.RecommendationID(core.NewID()),
				Campaign:      target.CampaignName,
				Adset:         target.AdsetName,
				Headline:      item.Headline,
				CreativeAngle: item.CreativeAngle,
				ValueProp:     item.ValueProp,
				CTA:           item.CTA,
				Rationale:     item.Rationale,
				PredictedLift: item.PredictedLift,
			}
			run.Recommendations = append(run.Recommendations, rec)
		}
	}

	log.Printf("[Orchestrator] run=%s creative ready: %d recommendations across %d campaigns",
		run.RunID, len(run.Recommendations), len(targets))
	return nil
}

// compile marks the run terminal. Artifact writing lives in ReportWriter
// so API callers can compile without touching disk.
func (o *Orchestrator) compile(run *analysis.Context) {
	start := time.Now()
	run.State = analysis.StateCompiled
	run.CompletedAt = core.Now()
	run.Trace.Record(analysis.AttemptRecord{
		Stage:   analysis.StageCompile,
		Attempt: 1,
		Outcome: analysis.OutcomeSuccess,
		Elapsed: time.Since(start),
	})
}

// recordFallback appends the fallback marker after the exhausted attempts.
func (o *Orchestrator) recordFallback(run *analysis.Context, stage analysis.Stage) {
	run.Trace.Record(analysis.AttemptRecord{
		Stage:   stage,
		Attempt: o.policy.MaxAttempts + 1,
		Outcome: analysis.OutcomeFallbackUsed,
	})
}

// actionableFindings keeps validations that both carry a positive verdict
// and clear the validation confidence threshold, in hypothesis order.
func actionableFindings(run *analysis.Context, candidates []analysis.Hypothesis, threshold float64) []analysis.ValidationResult {
	ordered := make([]analysis.ValidationResult, 0, len(candidates))
	for _, h := range candidates {
		result, ok := run.Validations[h.ID]
		if !ok {
			continue
		}
		if result.Status != analysis.StatusConfirmed && result.Status != analysis.StatusPartiallyConfirmed {
			continue
		}
		ordered = append(ordered, result)
	}
	kept, _ := analysis.FilterByConfidence(ordered, threshold)
	return kept
}

func planFromResponse(resp *models.PlanResponse) *analysis.Plan {
	plan := &analysis.Plan{
		AnalysisType:    resp.AnalysisType,
		KeyMetrics:      resp.KeyMetrics,
		SuccessCriteria: resp.SuccessCriteria,
		Reasoning:       resp.Reasoning,
		Subtasks:        make([]analysis.Subtask, 0, len(resp.Subtasks)),
	}
	for _, item := range resp.Subtasks {
		plan.Subtasks = append(plan.Subtasks, analysis.Subtask{
			ID:               item.ID,
			Title:            item.Title,
			Description:      item.Description,
			OwnerAgent:       item.OwnerAgent,
			DataRequirements: item.DataRequirements,
		})
	}
	return plan
}

func hypothesesFromResponse(resp *models.InsightResponse) []analysis.Hypothesis {
	hypotheses := make([]analysis.Hypothesis, 0, len(resp.Hypotheses))
	for _, item := range resp.Hypotheses {
		hypotheses = append(hypotheses, analysis.Hypothesis{
			ID:                 core.HypothesisID(item.ID),
			Title:              item.Title,
			Description:        item.Description,
			Driver:             item.Driver,
			TestablePrediction: item.TestablePrediction,
			SupportingEvidence: item.SupportingEvidence,
			Confidence:         analysis.ClampConfidence(item.Confidence),
		})
	}
	return hypotheses
}

// mustJSON renders v compactly for prompt interpolation. Prompt context
// is best-effort; a marshal failure degrades to an empty object.
func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
