package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"adscope/domain/analysis"
	"adscope/domain/core"
)

func validHypothesesTree() map[string]any {
	return map[string]any{
		"hypotheses": []any{
			map[string]any{
				"id":          "h_1",
				"title":       "Creative fatigue",
				"description": "Broad adsets wearing out",
				"driver":      "creative_fatigue",
				"confidence":  0.8,
			},
		},
	}
}

func TestValidateAcceptsValidPayloads(t *testing.T) {
	tests := []struct {
		name  string
		stage analysis.Stage
		tree  map[string]any
	}{
		{
			name:  "plan",
			stage: analysis.StagePlan,
			tree: map[string]any{
				"subtasks": []any{
					map[string]any{"id": "task_1", "title": "Summarize"},
				},
			},
		},
		{
			name:  "hypotheses",
			stage: analysis.StageHypotheses,
			tree:  validHypothesesTree(),
		},
		{
			name:  "validation",
			stage: analysis.StageValidation,
			tree: map[string]any{
				"hypothesis_evaluations": []any{
					map[string]any{
						"hypothesis_id":     "h_1",
						"validation_status": "CONFIRMED",
						"confidence_score":  0.9,
					},
				},
			},
		},
		{
			name:  "creative with empty recommendations",
			stage: analysis.StageCreative,
			tree: map[string]any{
				"recommendations": []any{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, Validate(tt.stage, tt.tree))
		})
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	tree := map[string]any{
		"hypotheses": []any{
			map[string]any{
				// missing title and description
				"id":         "h_1",
				"driver":     "other",
				"confidence": 1.7, // out of range
			},
		},
	}

	err := Validate(analysis.StageHypotheses, tree)
	assert.Error(t, err)

	schemaErr, ok := err.(*Error)
	assert.True(t, ok, "expected *schema.Error, got %T", err)
	assert.Equal(t, analysis.StageHypotheses, schemaErr.Stage)
	assert.Len(t, schemaErr.Violations, 3)
	assert.True(t, core.IsSchemaError(err))
}

func TestValidateRejectsMissingRequiredList(t *testing.T) {
	err := Validate(analysis.StagePlan, map[string]any{})
	assert.Error(t, err)
	assert.True(t, core.IsSchemaError(err))
}

func TestValidateRejectsEmptyRequiredList(t *testing.T) {
	err := Validate(analysis.StagePlan, map[string]any{"subtasks": []any{}})
	assert.Error(t, err)
}

func TestValidateRejectsUnknownEnumValue(t *testing.T) {
	tree := map[string]any{
		"hypothesis_evaluations": []any{
			map[string]any{
				"hypothesis_id":     "h_1",
				"validation_status": "MAYBE",
				"confidence_score":  0.5,
			},
		},
	}
	err := Validate(analysis.StageValidation, tree)
	assert.Error(t, err)
	assert.True(t, core.IsSchemaError(err))
}

func TestValidateIsIdempotent(t *testing.T) {
	tree := validHypothesesTree()
	assert.NoError(t, Validate(analysis.StageHypotheses, tree))
	// Validation must not mutate the tree.
	assert.NoError(t, Validate(analysis.StageHypotheses, tree))
}

func TestForRejectsNonLLMStages(t *testing.T) {
	for _, stage := range []analysis.Stage{analysis.StageDataSummary, analysis.StageCompile, analysis.Stage("bogus")} {
		_, err := For(stage)
		assert.ErrorIs(t, err, core.ErrUnknownStage, "stage %s", stage)
	}
}
