// Package heuristic produces deterministic, schema-valid stand-in payloads
// used when all retries for a stage are exhausted. Fallbacks never fail:
// downstream stages must never see a malformed context.
package heuristic

import (
	"fmt"

	"adscope/domain/analysis"
	"adscope/models"
)

// FallbackConfidence marks fallback findings as low-confidence so the
// confidence filter excludes them from actionable output.
const FallbackConfidence = 0.2

// Generator builds fallback payloads per stage.
type Generator struct{}

// NewGenerator creates a fallback generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Plan returns the canned analysis plan used when the planner model is
// unavailable.
func (g *Generator) Plan(query string) *models.PlanResponse {
	return &models.PlanResponse{
		AnalysisType: "holistic",
		Subtasks: []models.SubtaskItem{
			{
				ID:               "task_1",
				Title:            "Load and summarize dataset",
				Description:      "Aggregate performance metrics by campaign, adset, and creative type",
				OwnerAgent:       "data_agent",
				DataRequirements: []string{"campaign_summary", "creative_performance", "timeline"},
			},
			{
				ID:               "task_2",
				Title:            "Generate performance hypotheses",
				Description:      "Create 3-5 testable hypotheses explaining observed patterns",
				OwnerAgent:       "insight_agent",
				DataRequirements: []string{"performance_trends", "segment_analysis"},
			},
			{
				ID:               "task_3",
				Title:            "Validate hypotheses quantitatively",
				Description:      "Test hypotheses with statistical evidence and assign confidence scores",
				OwnerAgent:       "evaluator",
				DataRequirements: []string{"all_metrics"},
			},
			{
				ID:               "task_4",
				Title:            "Generate creative recommendations",
				Description:      "Create new messaging for low-CTR campaigns based on winning patterns",
				OwnerAgent:       "creative_generator",
				DataRequirements: []string{"low_ctr_campaigns", "high_ctr_examples"},
			},
		},
		KeyMetrics: []string{"roas", "ctr", "spend", "revenue", "impressions", "clicks"},
		Reasoning:  "Standard analysis pipeline for ad performance diagnosis; model plan unavailable",
	}
}

// Insights returns a single low-confidence placeholder hypothesis stating
// that model output was insufficient.
func (g *Generator) Insights(query string) *models.InsightResponse {
	return &models.InsightResponse{
		QuerySummary: query,
		Hypotheses: []models.HypothesisItem{
			{
				ID:          "h_fallback",
				Title:       "Insufficient Model Output",
				Description: "The insight model produced no usable hypotheses after all retries; this placeholder keeps the analysis context structurally valid.",
				Driver:      "Unknown",
				Confidence:  FallbackConfidence,
				ConfidenceReasoning: "Placeholder generated without model input",
			},
		},
		Reasoning: "Fallback hypotheses after model exhaustion",
	}
}

// Evaluation marks every supplied hypothesis REQUIRES_MORE_DATA.
func (g *Generator) Evaluation(hypotheses []analysis.Hypothesis) *models.EvaluationResponse {
	evaluations := make([]models.EvaluationItem, 0, len(hypotheses))
	for _, h := range hypotheses {
		evaluations = append(evaluations, models.EvaluationItem{
			HypothesisID:        h.ID.String(),
			HypothesisTitle:     h.Title,
			ValidationStatus:    string(analysis.StatusRequiresMoreData),
			ConfidenceScore:     FallbackConfidence,
			ConfidenceReasoning: "Evaluator model unavailable; verdict deferred",
			Actionability:       "Re-run evaluation before acting on this hypothesis",
		})
	}
	return &models.EvaluationResponse{
		EvaluationSummary: fmt.Sprintf("Evaluator unavailable; %d hypotheses deferred", len(hypotheses)),
		Evaluations:       evaluations,
		EvaluationMethod:  "fallback",
	}
}

// Creative returns zero recommendations: proposing untested creative copy
// without model input would be worse than proposing none.
func (g *Generator) Creative(campaign string) *models.CreativeResponse {
	return &models.CreativeResponse{
		Campaign:        campaign,
		Recommendations: []models.CreativeItem{},
	}
}
