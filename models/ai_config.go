package models

import (
	"os"
	"strconv"
)

// AIConfig holds model settings consumed by the ai package.
type AIConfig struct {
	OpenAIKey     string
	OpenAIModel   string
	SystemContext string
	MaxTokens     int
	PromptsDir    string // Directory for external prompt files
}

// DefaultAIConfig returns sensible defaults for AI configuration
func DefaultAIConfig() *AIConfig {
	config := &AIConfig{
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("LLM_MODEL"),
		SystemContext: "You are a senior paid-social performance analyst. Respond with valid JSON only.",
		MaxTokens:     2048,
		PromptsDir:    "./prompts",
	}

	if config.OpenAIModel == "" {
		config.OpenAIModel = "gpt-4.1-mini"
	}

	if maxTokensStr := os.Getenv("MAX_TOKENS"); maxTokensStr != "" {
		if maxTokens, err := strconv.Atoi(maxTokensStr); err == nil {
			config.MaxTokens = maxTokens
		}
	}

	return config
}
