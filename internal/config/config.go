// Package config provides configuration loading for condense.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (CONDENSE_COMPLETION_API_KEY, CONDENSE_STRATEGY, ...)
//  2. YAML config file
//  3. Defaults (Default)
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/condense/internal/logging"
	"github.com/fyrsmithlabs/condense/internal/telemetry"
)

// Config holds the complete condense configuration.
type Config struct {
	Strategy      string              `koanf:"strategy"`
	Chunking      ChunkingConfig      `koanf:"chunking"`
	Summarization SummarizationConfig `koanf:"summarization"`
	Tokenizer     TokenizerConfig     `koanf:"tokenizer"`
	Completion    CompletionConfig    `koanf:"completion"`
	Prompts       PromptsConfig       `koanf:"prompts"`
	Logging       logging.Config      `koanf:"logging"`
	Telemetry     telemetry.Config    `koanf:"telemetry"`
}

// ChunkingConfig controls how cleaned documents are split into chunks.
type ChunkingConfig struct {
	CharLimit int `koanf:"char_limit"`
}

// SummarizationConfig controls the summarization strategy.
type SummarizationConfig struct {
	PageCharCap int `koanf:"page_char_cap"`
}

// TokenizerConfig selects the sentence splitter and the token-counting encoding.
type TokenizerConfig struct {
	Kind     string `koanf:"kind"` // "punkt" or "simple"
	Encoding string `koanf:"encoding"`
}

// CompletionConfig holds completion provider settings.
type CompletionConfig struct {
	Provider    string        `koanf:"provider"` // "openai" or "anthropic"
	Model       string        `koanf:"model"`    // empty selects the provider default
	APIKey      Secret        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxTokens   int           `koanf:"max_tokens"`
	Temperature float64       `koanf:"temperature"`
	RateLimit   float64       `koanf:"rate_limit"` // requests per second, 0 disables
	Burst       int           `koanf:"burst"`
	MaxRetries  int           `koanf:"max_retries"`
}

// PromptsConfig points at an optional directory of template overrides.
type PromptsConfig struct {
	Dir string `koanf:"dir"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Strategy: "chunk_filtering",
		Chunking: ChunkingConfig{
			CharLimit: 500,
		},
		Summarization: SummarizationConfig{
			PageCharCap: 5000,
		},
		Tokenizer: TokenizerConfig{
			Kind:     "punkt",
			Encoding: "cl100k_base",
		},
		Completion: CompletionConfig{
			Provider:    "openai",
			Timeout:     120 * time.Second,
			MaxTokens:   4096,
			Temperature: 0,
			RateLimit:   50.0 / 60.0,
			Burst:       5,
			MaxRetries:  3,
		},
		Logging:   *logging.NewDefaultConfig(),
		Telemetry: *telemetry.NewDefaultConfig(),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Strategy {
	case "chunk_filtering", "fact_centric", "summarization":
	default:
		return fmt.Errorf("unknown strategy %q (want chunk_filtering, fact_centric or summarization)", c.Strategy)
	}

	if c.Chunking.CharLimit <= 0 {
		return fmt.Errorf("chunking.char_limit must be positive, got %d", c.Chunking.CharLimit)
	}
	if c.Summarization.PageCharCap <= 0 {
		return fmt.Errorf("summarization.page_char_cap must be positive, got %d", c.Summarization.PageCharCap)
	}

	switch c.Tokenizer.Kind {
	case "punkt", "simple":
	default:
		return fmt.Errorf("unknown tokenizer kind %q", c.Tokenizer.Kind)
	}

	if err := c.Completion.Validate(); err != nil {
		return fmt.Errorf("completion: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

// Validate checks completion settings. A missing API key is not an error here;
// providers report it when they are constructed.
func (c *CompletionConfig) Validate() error {
	switch c.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if c.RateLimit < 0 {
		return errors.New("rate_limit cannot be negative")
	}
	if c.RateLimit > 0 && c.Burst <= 0 {
		return errors.New("burst must be positive when rate_limit is set")
	}
	if c.MaxRetries < 0 {
		return errors.New("max_retries cannot be negative")
	}
	return nil
}
