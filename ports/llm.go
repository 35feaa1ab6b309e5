package ports

import "context"

// CompletionRequest carries one model invocation.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// LLMClient is the abstract language-model capability. The core depends
// only on this signature; transport, authentication and rate limiting are
// the implementing adapter's concern.
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
