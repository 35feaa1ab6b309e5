package ai

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"adscope/domain/analysis"
	"adscope/domain/core"
	"adscope/internal/testkit"
	"adscope/models"
)

func writePrompt(t *testing.T, dir, name, body string) {
	t.Helper()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name+".txt"), []byte(body), 0o644))
}

func newTestInvoker(t *testing.T, client *testkit.ScriptedClient) *Invoker {
	t.Helper()
	dir := t.TempDir()
	writePrompt(t, dir, "insight", "Question: {QUERY}\nRespond with JSON.")
	return NewInvoker(client, &models.AIConfig{
		SystemContext: "analyst",
		MaxTokens:     1024,
		PromptsDir:    dir,
	})
}

func TestInvokeDecodesValidResponse(t *testing.T) {
	client := testkit.NewScriptedClient(testkit.Respond(testkit.InsightJSON))
	inv := newTestInvoker(t, client)

	resp, err := Invoke[models.InsightResponse](context.Background(), inv,
		analysis.StageHypotheses, "insight", map[string]string{"QUERY": "why did roas drop"}, 0.7)

	assert.NoError(t, err)
	assert.Len(t, resp.Hypotheses, 2)
	assert.Equal(t, "h_1", resp.Hypotheses[0].ID)
	assert.Equal(t, 0.8, resp.Hypotheses[0].Confidence)

	// Placeholder interpolation reached the model.
	assert.Contains(t, client.Requests[0].Prompt, "why did roas drop")
	assert.Equal(t, "analyst", client.Requests[0].System)
	assert.Equal(t, 0.7, client.Requests[0].Temperature)
}

func TestInvokeCleansMarkdownFences(t *testing.T) {
	wrapped := "Here is the analysis you asked for:\n```json\n" + testkit.InsightJSON + "\n```\nLet me know if you need more."
	client := testkit.NewScriptedClient(testkit.Respond(wrapped))
	inv := newTestInvoker(t, client)

	resp, err := Invoke[models.InsightResponse](context.Background(), inv,
		analysis.StageHypotheses, "insight", map[string]string{"QUERY": "q"}, 0.7)

	assert.NoError(t, err)
	assert.Len(t, resp.Hypotheses, 2)
}

func TestInvokeClassifiesTransportFailure(t *testing.T) {
	client := testkit.NewScriptedClient(testkit.Fail("connection refused"))
	inv := newTestInvoker(t, client)

	_, err := Invoke[models.InsightResponse](context.Background(), inv,
		analysis.StageHypotheses, "insight", map[string]string{"QUERY": "q"}, 0.7)

	assert.True(t, core.IsInvocationError(err))
}

func TestInvokeClassifiesParseFailure(t *testing.T) {
	client := testkit.NewScriptedClient(testkit.Respond("I could not produce JSON for this request."))
	inv := newTestInvoker(t, client)

	_, err := Invoke[models.InsightResponse](context.Background(), inv,
		analysis.StageHypotheses, "insight", map[string]string{"QUERY": "q"}, 0.7)

	assert.True(t, core.IsParseError(err))
}

func TestInvokeClassifiesSchemaFailure(t *testing.T) {
	// Valid JSON, but hypotheses is empty which the contract forbids.
	client := testkit.NewScriptedClient(testkit.Respond(`{"hypotheses": []}`))
	inv := newTestInvoker(t, client)

	_, err := Invoke[models.InsightResponse](context.Background(), inv,
		analysis.StageHypotheses, "insight", map[string]string{"QUERY": "q"}, 0.7)

	assert.True(t, core.IsSchemaError(err))
	assert.False(t, core.IsParseError(err))
}

func TestParseTreeVariants(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"bare object", `{"a": 1}`, false},
		{"fenced", "```json\n{\"a\": 1}\n```", false},
		{"fence without language", "```\n{\"a\": 1}\n```", false},
		{"prose around object", "Sure! {\"a\": 1} Hope that helps.", false},
		{"plain prose", "no json here", true},
		{"truncated json", `{"a": `, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := ParseTree(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, core.IsParseError(err))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, float64(1), tree["a"])
			}
		})
	}
}

func TestRenderPromptReplacesAllPlaceholders(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, "creative", "Campaign: {CAMPAIGN}, CTR: {CTR}")
	pm := NewPromptManager(dir)

	rendered, err := pm.RenderPrompt("creative", map[string]string{
		"CAMPAIGN": "Summer_Launch",
		"CTR":      "0.0090",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Campaign: Summer_Launch, CTR: 0.0090", rendered)
}
