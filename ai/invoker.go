package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"adscope/domain/analysis"
	"adscope/domain/core"
	"adscope/internal/schema"
	"adscope/models"
	"adscope/ports"
)

// Invoker performs a single structured model invocation per call: render
// the stage prompt, call the model, parse the raw text as JSON, validate
// against the stage schema, and decode into the stage's typed payload.
// It never retries; retry policy lives in internal/retry.
type Invoker struct {
	Client        ports.LLMClient
	PromptManager *PromptManager
	SystemContext string
	MaxTokens     int
}

// NewInvoker creates an invoker from AI config and a model client.
func NewInvoker(client ports.LLMClient, config *models.AIConfig) *Invoker {
	return &Invoker{
		Client:        client,
		PromptManager: NewPromptManager(config.PromptsDir),
		SystemContext: config.SystemContext,
		MaxTokens:     config.MaxTokens,
	}
}

// Invoke runs one invocation for a stage. Failures carry the error
// taxonomy: core.ErrInvocation for transport, core.ErrParse for
// non-JSON output, core.ErrSchema (via schema.Error) for contract
// violations.
func Invoke[T any](ctx context.Context, inv *Invoker, stage analysis.Stage, promptName string, vars map[string]string, temperature float64) (*T, error) {
	prompt, err := inv.PromptManager.RenderPrompt(promptName, vars)
	if err != nil {
		return nil, core.NewInvocationError(err)
	}

	log.Printf("[Invoker] stage=%s prompt=%s length=%d temp=%.2f", stage, promptName, len(prompt), temperature)

	raw, err := inv.Client.Complete(ctx, ports.CompletionRequest{
		System:      inv.SystemContext,
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   inv.MaxTokens,
	})
	if err != nil {
		return nil, core.NewInvocationError(err)
	}

	tree, err := ParseTree(raw)
	if err != nil {
		return nil, err
	}

	if err := schema.Validate(stage, tree); err != nil {
		return nil, err
	}

	payload, err := Decode[T](tree)
	if err != nil {
		return nil, err
	}

	log.Printf("[Invoker] stage=%s response validated (%d bytes)", stage, len(raw))
	return payload, nil
}

// ParseTree cleans and parses raw model output into a JSON tree.
func ParseTree(raw string) (map[string]any, error) {
	content := cleanJSONContent(raw)

	var tree map[string]any
	if err := json.Unmarshal([]byte(content), &tree); err != nil {
		preview := content
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return nil, core.NewParseError(fmt.Errorf("%v (content: %s)", err, preview))
	}
	return tree, nil
}

// Decode converts a validated tree into the stage's typed payload.
func Decode[T any](tree map[string]any) (*T, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, core.NewParseError(err)
	}
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, core.NewParseError(err)
	}
	return &payload, nil
}

// cleanJSONContent strips markdown fences and leading/trailing chatter
// that models wrap around JSON output.
func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}

	// Cut prose before the first brace and after the last one.
	start := strings.IndexAny(content, "{[")
	if start > 0 {
		content = content[start:]
	}
	end := strings.LastIndexAny(content, "}]")
	if end >= 0 && end < len(content)-1 {
		content = content[:end+1]
	}

	return strings.TrimSpace(content)
}
