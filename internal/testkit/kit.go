// Package testkit provides shared fixtures for pipeline tests: a scripted
// model client that plays back canned responses, and schema-valid stage
// payloads.
package testkit

import (
	"context"
	"errors"
	"sync"

	"adscope/ports"
)

// ScriptedClient is a ports.LLMClient that returns pre-scripted responses
// in order. When the script runs out it repeats the last entry. An entry
// with a non-nil Err fails that call.
type ScriptedClient struct {
	mu       sync.Mutex
	script   []ScriptEntry
	cursor   int
	Requests []ports.CompletionRequest
}

// ScriptEntry is one scripted completion.
type ScriptEntry struct {
	Response string
	Err      error
}

// NewScriptedClient creates a client that plays entries in order.
func NewScriptedClient(entries ...ScriptEntry) *ScriptedClient {
	return &ScriptedClient{script: entries}
}

// Respond is shorthand for a successful entry.
func Respond(response string) ScriptEntry {
	return ScriptEntry{Response: response}
}

// Fail is shorthand for a failing entry.
func Fail(message string) ScriptEntry {
	return ScriptEntry{Err: errors.New(message)}
}

// Complete implements ports.LLMClient.
func (c *ScriptedClient) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Requests = append(c.Requests, req)

	if len(c.script) == 0 {
		return "", errors.New("scripted client has no entries")
	}
	entry := c.script[c.cursor]
	if c.cursor < len(c.script)-1 {
		c.cursor++
	}
	if entry.Err != nil {
		return "", entry.Err
	}
	return entry.Response, nil
}

// Calls returns how many completions were requested.
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}

// Canned stage responses, each valid against its stage schema.

// PlanJSON is a minimal valid plan response.
const PlanJSON = `{
  "analysis_type": "holistic",
  "subtasks": [
    {"id": "task_1", "title": "Summarize dataset", "description": "Aggregate metrics", "owner_agent": "data_agent"},
    {"id": "task_2", "title": "Generate hypotheses", "description": "Explain patterns", "owner_agent": "insight_agent"}
  ],
  "key_metrics": ["roas", "ctr"],
  "reasoning": "standard decomposition"
}`

// InsightJSON carries two hypotheses straddling a 0.5 threshold.
const InsightJSON = `{
  "query_summary": "roas decline",
  "hypotheses": [
    {
      "id": "h_1",
      "title": "Creative fatigue in broad adsets",
      "description": "Long-running broad creatives are wearing out",
      "driver": "creative_fatigue",
      "confidence": 0.8,
      "supporting_evidence": ["declining ctr in broad adsets"]
    },
    {
      "id": "h_2",
      "title": "Seasonal dip",
      "description": "Demand fell with the season",
      "driver": "seasonality",
      "confidence": 0.3
    }
  ]
}`

// EvaluationJSON confirms h_1 with high confidence.
const EvaluationJSON = `{
  "evaluation_summary": "one confirmed",
  "hypothesis_evaluations": [
    {
      "hypothesis_id": "h_1",
      "hypothesis_title": "Creative fatigue in broad adsets",
      "validation_status": "CONFIRMED",
      "confidence_score": 0.85,
      "supporting_metrics": ["ctr slope negative"],
      "confidence_reasoning": "consistent decline",
      "actionability": "refresh creatives"
    }
  ]
}`

// CreativeJSON proposes one recommendation.
const CreativeJSON = `{
  "recommendations": [
    {
      "headline": "Feel the difference in 30 days",
      "creative_angle": "social proof",
      "value_prop": "comfort guarantee",
      "cta": "Shop Now",
      "rationale": "ugc_video outperforms static in account",
      "predicted_lift": "+15-25%"
    }
  ]
}`
