package config

import (
	"os"
	"strconv"
	"time"

	"adscope/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	AI       AIConfig
	Data     DataConfig
	Retry    RetryConfig
	Filter   FilterConfig
	Output   OutputConfig
	Server   ServerConfig
	Database DatabaseConfig
}

// AIConfig holds AI/LLM related settings
type AIConfig struct {
	OpenAIKey     string
	OpenAIModel   string
	SystemContext string
	MaxTokens     int
	PromptsDir    string
}

// DataConfig holds dataset settings
type DataConfig struct {
	DatasetPath     string
	SampleMode      bool
	SampleSize      int
	LowCTRThreshold float64
}

// RetryConfig holds retry/backoff settings for stage invocations
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// FilterConfig holds per-stage confidence thresholds
type FilterConfig struct {
	HypothesisThreshold float64
	ValidationThreshold float64
}

// OutputConfig holds report artifact paths
type OutputConfig struct {
	ReportsDir string
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds optional run-ledger settings
type DatabaseConfig struct {
	URL string // empty disables persistence
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		AI: AIConfig{
			OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:   getEnvOrDefault("LLM_MODEL", "gpt-4.1-mini"),
			SystemContext: "You are a senior paid-social performance analyst. Respond with valid JSON only.",
			MaxTokens:     getEnvIntOrDefault("MAX_TOKENS", 2048),
			PromptsDir:    getEnvOrDefault("PROMPTS_DIR", "./prompts"),
		},
		Data: DataConfig{
			DatasetPath:     getEnvOrDefault("DATASET_PATH", "data/synthetic_fb_ads.csv"),
			SampleMode:      getEnvBoolOrDefault("SAMPLE_MODE", false),
			SampleSize:      getEnvIntOrDefault("SAMPLE_SIZE", 100),
			LowCTRThreshold: getEnvFloatOrDefault("LOW_CTR_THRESHOLD", 0.012),
		},
		Retry: RetryConfig{
			MaxAttempts: getEnvIntOrDefault("MAX_ATTEMPTS", 3),
			BaseDelay:   getEnvDurationOrDefault("RETRY_BASE_DELAY", time.Second),
			MaxDelay:    getEnvDurationOrDefault("RETRY_MAX_DELAY", 30*time.Second),
			Multiplier:  getEnvFloatOrDefault("RETRY_MULTIPLIER", 2.0),
		},
		Filter: FilterConfig{
			HypothesisThreshold: getEnvFloatOrDefault("HYPOTHESIS_CONFIDENCE_THRESHOLD", 0.5),
			ValidationThreshold: getEnvFloatOrDefault("VALIDATION_CONFIDENCE_THRESHOLD", 0.6),
		},
		Output: OutputConfig{
			ReportsDir: getEnvOrDefault("REPORTS_DIR", "./reports"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.AI.OpenAIKey == "" {
		return errors.ConfigInvalid("OPENAI_API_KEY is required")
	}
	if cfg.AI.PromptsDir == "" {
		return errors.ConfigInvalid("prompts directory is required")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return errors.ConfigInvalid("MAX_ATTEMPTS must be >= 1")
	}
	if cfg.Filter.HypothesisThreshold < 0 || cfg.Filter.HypothesisThreshold > 1 {
		return errors.ConfigInvalid("HYPOTHESIS_CONFIDENCE_THRESHOLD must be in [0,1]")
	}
	if cfg.Filter.ValidationThreshold < 0 || cfg.Filter.ValidationThreshold > 1 {
		return errors.ConfigInvalid("VALIDATION_CONFIDENCE_THRESHOLD must be in [0,1]")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
