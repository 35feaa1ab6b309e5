package analysis

import (
	"adscope/domain/core"
	"adscope/domain/dataset"
)

// Stage is one step of the fixed analysis pipeline.
type Stage string

const (
	StagePlan        Stage = "plan"
	StageDataSummary Stage = "data_summary"
	StageHypotheses  Stage = "hypotheses"
	StageValidation  Stage = "validation"
	StageCreative    Stage = "creative"
	StageCompile     Stage = "compile"
)

// RunState tracks where the pipeline state machine is.
type RunState string

const (
	StateRunning  RunState = "RUNNING"
	StateCompiled RunState = "COMPILED"
	StateHalted   RunState = "HALTED"
)

// ValidationStatus is the evaluator's verdict on a hypothesis.
type ValidationStatus string

const (
	StatusConfirmed          ValidationStatus = "CONFIRMED"
	StatusPartiallyConfirmed ValidationStatus = "PARTIALLY_CONFIRMED"
	StatusRejected           ValidationStatus = "REJECTED"
	StatusRequiresMoreData   ValidationStatus = "REQUIRES_MORE_DATA"
)

// KnownValidationStatuses lists every accepted evaluator verdict.
var KnownValidationStatuses = []ValidationStatus{
	StatusConfirmed,
	StatusPartiallyConfirmed,
	StatusRejected,
	StatusRequiresMoreData,
}

// IsKnownValidationStatus reports whether s is an accepted verdict.
func IsKnownValidationStatus(s ValidationStatus) bool {
	for _, known := range KnownValidationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Subtask is one planned unit of analysis work.
type Subtask struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	OwnerAgent       string   `json:"owner_agent,omitempty"`
	DataRequirements []string `json:"data_requirements,omitempty"`
}

// Plan is the ordered decomposition of the user query.
type Plan struct {
	AnalysisType    string    `json:"analysis_type,omitempty"`
	Subtasks        []Subtask `json:"subtasks"`
	KeyMetrics      []string  `json:"key_metrics,omitempty"`
	SuccessCriteria []string  `json:"success_criteria,omitempty"`
	Reasoning       string    `json:"reasoning,omitempty"`
}

// Hypothesis is a candidate explanation for an observed performance pattern.
// Read-only after the Hypotheses stage except for confidence adjustment
// during evaluation.
type Hypothesis struct {
	ID                 core.HypothesisID `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Driver             string            `json:"driver"`
	TestablePrediction string            `json:"testable_prediction,omitempty"`
	SupportingEvidence []string          `json:"supporting_evidence,omitempty"`
	Confidence         float64           `json:"confidence"`
}

// ConfidenceScore implements Scored.
func (h Hypothesis) ConfidenceScore() float64 { return h.Confidence }

// ValidationResult is the evaluator's quantitative verdict on one hypothesis.
type ValidationResult struct {
	HypothesisID         core.HypothesisID `json:"hypothesis_id"`
	HypothesisTitle      string            `json:"hypothesis_title,omitempty"`
	Status               ValidationStatus  `json:"validation_status"`
	Confidence           float64           `json:"confidence_score"`
	SupportingMetrics    []string          `json:"supporting_metrics,omitempty"`
	ContradictingMetrics []string          `json:"contradicting_metrics,omitempty"`
	Reasoning            string            `json:"confidence_reasoning,omitempty"`
	Actionability        string            `json:"actionability,omitempty"`
}

// ConfidenceScore implements Scored.
func (v ValidationResult) ConfidenceScore() float64 { return v.Confidence }

// CreativeRecommendation is a proposed creative variation for a
// low-performing campaign.
type CreativeRecommendation struct {
	ID            core.RecommendationID `json:"id"`
	Campaign      string                `json:"campaign"`
	Adset         string                `json:"adset,omitempty"`
	Headline      string                `json:"headline"`
	CreativeAngle string                `json:"creative_angle,omitempty"`
	ValueProp     string                `json:"value_prop,omitempty"`
	CTA           string                `json:"cta,omitempty"`
	Rationale     string                `json:"rationale"`
	PredictedLift string                `json:"predicted_lift"`
}

// Context is the single mutable object threaded through the pipeline.
// Owned exclusively by the orchestrator for the run's lifetime; never
// shared across concurrent runs.
type Context struct {
	RunID           core.RunID                             `json:"run_id"`
	Query           string                                 `json:"query"`
	StartedAt       core.Timestamp                         `json:"started_at"`
	State           RunState                               `json:"state"`
	HaltReason      string                                 `json:"halt_reason,omitempty"`
	Summary         *dataset.Summary                       `json:"data_summary,omitempty"`
	Plan            *Plan                                  `json:"plan,omitempty"`
	Hypotheses      []Hypothesis                           `json:"hypotheses"`
	Validations     map[core.HypothesisID]ValidationResult `json:"validations"`
	Findings        []ValidationResult                     `json:"actionable_findings"`
	Recommendations []CreativeRecommendation               `json:"creative_recommendations"`
	CompletedAt     core.Timestamp                         `json:"completed_at,omitempty"`
	Trace           *TraceRecorder                         `json:"-"`
}

// NewContext creates a fresh per-run context with its own trace recorder.
func NewContext(query string) *Context {
	return &Context{
		RunID:       core.RunID(core.NewID()),
		Query:       query,
		StartedAt:   core.Now(),
		State:       StateRunning,
		Validations: make(map[core.HypothesisID]ValidationResult),
		Trace:       NewTraceRecorder(),
	}
}

// HypothesisByID looks up a hypothesis in generation order.
func (c *Context) HypothesisByID(id core.HypothesisID) (Hypothesis, bool) {
	for _, h := range c.Hypotheses {
		if h.ID == id {
			return h, true
		}
	}
	return Hypothesis{}, false
}

// ClampConfidence pins a confidence value into [0, 1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
