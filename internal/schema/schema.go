package schema

import (
	"fmt"

	"adscope/domain/analysis"
	"adscope/domain/core"
)

// Kind is the expected JSON kind of a field value.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindArray  Kind = "array"
	KindObject Kind = "object"
)

// Field declares one expected field: name, kind, and constraints.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	NonEmpty bool     // strings must be non-blank, arrays must have >= 1 element
	Min      *float64 // numeric lower bound, inclusive
	Max      *float64 // numeric upper bound, inclusive
	Enum     []string // allowed string values, empty = unrestricted
	Elem     *Object  // element shape for arrays of objects
}

// Object is a declarative description of an expected JSON object.
type Object struct {
	Fields []Field
}

func bound(v float64) *float64 { return &v }

var confidenceRange = struct{ min, max *float64 }{bound(0), bound(1)}

// stageSchemas is the per-stage contract table. Only LLM-backed stages
// have structured-output contracts.
var stageSchemas = map[analysis.Stage]*Object{
	analysis.StagePlan: {
		Fields: []Field{
			{Name: "analysis_type", Kind: KindString},
			{Name: "subtasks", Kind: KindArray, Required: true, NonEmpty: true, Elem: &Object{
				Fields: []Field{
					{Name: "id", Kind: KindString, Required: true, NonEmpty: true},
					{Name: "title", Kind: KindString, Required: true, NonEmpty: true},
					{Name: "description", Kind: KindString, Required: true},
					{Name: "owner_agent", Kind: KindString},
					{Name: "data_requirements", Kind: KindArray},
				},
			}},
			{Name: "key_metrics", Kind: KindArray},
			{Name: "success_criteria", Kind: KindArray},
			{Name: "reasoning", Kind: KindString},
		},
	},
	analysis.StageHypotheses: {
		Fields: []Field{
			{Name: "query_summary", Kind: KindString},
			{Name: "hypotheses", Kind: KindArray, Required: true, NonEmpty: true, Elem: &Object{
				Fields: []Field{
					{Name: "id", Kind: KindString, Required: true, NonEmpty: true},
					{Name: "title", Kind: KindString, Required: true, NonEmpty: true},
					{Name: "description", Kind: KindString, Required: true},
					{Name: "driver", Kind: KindString, Required: true},
					{Name: "testable_prediction", Kind: KindString},
					{Name: "supporting_evidence", Kind: KindArray},
					{Name: "confidence", Kind: KindNumber, Required: true, Min: confidenceRange.min, Max: confidenceRange.max},
					{Name: "confidence_reasoning", Kind: KindString},
				},
			}},
			{Name: "reasoning", Kind: KindString},
		},
	},
	analysis.StageValidation: {
		Fields: []Field{
			{Name: "evaluation_summary", Kind: KindString},
			{Name: "hypothesis_evaluations", Kind: KindArray, Required: true, NonEmpty: true, Elem: &Object{
				Fields: []Field{
					{Name: "hypothesis_id", Kind: KindString, Required: true, NonEmpty: true},
					{Name: "hypothesis_title", Kind: KindString},
					{Name: "validation_status", Kind: KindString, Required: true, Enum: []string{
						string(analysis.StatusConfirmed),
						string(analysis.StatusPartiallyConfirmed),
						string(analysis.StatusRejected),
						string(analysis.StatusRequiresMoreData),
					}},
					{Name: "confidence_score", Kind: KindNumber, Required: true, Min: confidenceRange.min, Max: confidenceRange.max},
					{Name: "supporting_metrics", Kind: KindArray},
					{Name: "contradicting_metrics", Kind: KindArray},
					{Name: "confidence_reasoning", Kind: KindString},
					{Name: "actionability", Kind: KindString},
				},
			}},
			{Name: "recommended_actions", Kind: KindArray},
			{Name: "evaluation_methodology", Kind: KindString},
		},
	},
	// The Creative stage may legitimately return zero recommendations
	// (no low performers, or nothing worth proposing).
	analysis.StageCreative: {
		Fields: []Field{
			{Name: "campaign", Kind: KindString},
			{Name: "recommendations", Kind: KindArray, Required: true, Elem: &Object{
				Fields: []Field{
					{Name: "id", Kind: KindString},
					{Name: "headline", Kind: KindString, Required: true, NonEmpty: true},
					{Name: "creative_angle", Kind: KindString},
					{Name: "value_prop", Kind: KindString},
					{Name: "cta", Kind: KindString},
					{Name: "rationale", Kind: KindString, Required: true},
					{Name: "predicted_lift", Kind: KindString, Required: true},
				},
			}},
		},
	},
}

// For returns the structured-output contract for a stage.
func For(stage analysis.Stage) (*Object, error) {
	obj, ok := stageSchemas[stage]
	if !ok {
		return nil, fmt.Errorf("%w: no schema for stage %q", core.ErrUnknownStage, stage)
	}
	return obj, nil
}
