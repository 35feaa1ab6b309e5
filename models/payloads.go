package models

// Stage payload DTOs. These are the structured shapes each pipeline stage
// expects back from the model capability, after schema validation. Field
// names mirror the JSON the prompts specify.

// PlanResponse is the Plan stage payload.
type PlanResponse struct {
	AnalysisType    string        `json:"analysis_type"`
	Subtasks        []SubtaskItem `json:"subtasks"`
	KeyMetrics      []string      `json:"key_metrics,omitempty"`
	SuccessCriteria []string      `json:"success_criteria,omitempty"`
	Reasoning       string        `json:"reasoning,omitempty"`
}

// SubtaskItem is one planned subtask.
type SubtaskItem struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	OwnerAgent       string   `json:"owner_agent,omitempty"`
	DataRequirements []string `json:"data_requirements,omitempty"`
}

// InsightResponse is the Hypotheses stage payload.
type InsightResponse struct {
	QuerySummary string           `json:"query_summary,omitempty"`
	Hypotheses   []HypothesisItem `json:"hypotheses"`
	Reasoning    string           `json:"reasoning,omitempty"`
}

// HypothesisItem is one generated hypothesis.
type HypothesisItem struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Driver              string   `json:"driver"`
	TestablePrediction  string   `json:"testable_prediction,omitempty"`
	SupportingEvidence  []string `json:"supporting_evidence,omitempty"`
	Confidence          float64  `json:"confidence"`
	ConfidenceReasoning string   `json:"confidence_reasoning,omitempty"`
}

// EvaluationResponse is the Validation stage payload.
type EvaluationResponse struct {
	EvaluationSummary  string           `json:"evaluation_summary,omitempty"`
	Evaluations        []EvaluationItem `json:"hypothesis_evaluations"`
	RecommendedActions []string         `json:"recommended_actions,omitempty"`
	EvaluationMethod   string           `json:"evaluation_methodology,omitempty"`
}

// EvaluationItem is the evaluator's verdict on one hypothesis.
type EvaluationItem struct {
	HypothesisID         string   `json:"hypothesis_id"`
	HypothesisTitle      string   `json:"hypothesis_title,omitempty"`
	ValidationStatus     string   `json:"validation_status"`
	ConfidenceScore      float64  `json:"confidence_score"`
	SupportingMetrics    []string `json:"supporting_metrics,omitempty"`
	ContradictingMetrics []string `json:"contradicting_metrics,omitempty"`
	ConfidenceReasoning  string   `json:"confidence_reasoning,omitempty"`
	Actionability        string   `json:"actionability,omitempty"`
}

// CreativeResponse is the Creative stage payload for one low performer.
type CreativeResponse struct {
	Campaign        string         `json:"campaign,omitempty"`
	Recommendations []CreativeItem `json:"recommendations"`
}

// CreativeItem is one proposed creative variation.
type CreativeItem struct {
	ID            string `json:"id,omitempty"`
	Headline      string `json:"headline"`
	CreativeAngle string `json:"creative_angle,omitempty"`
	ValueProp     string `json:"value_prop,omitempty"`
	CTA           string `json:"cta,omitempty"`
	Rationale     string `json:"rationale"`
	PredictedLift string `json:"predicted_lift"`
}
