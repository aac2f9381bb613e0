package completion

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/condense/internal/config"
	"github.com/fyrsmithlabs/condense/internal/logging"
)

// New builds the provider selected by cfg.Provider.
func New(cfg config.CompletionConfig, logger *logging.Logger) (Service, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAI(OpenAIConfig{
			APIKey:      cfg.APIKey.Value(),
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			RateLimit:   cfg.RateLimit,
			Burst:       cfg.Burst,
			MaxRetries:  cfg.MaxRetries,
		}, logger)
	case ProviderAnthropic:
		return NewAnthropic(AnthropicConfig{
			APIKey:      cfg.APIKey.Value(),
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			RateLimit:   cfg.RateLimit,
			Burst:       cfg.Burst,
			MaxRetries:  cfg.MaxRetries,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
