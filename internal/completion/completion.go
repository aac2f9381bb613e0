// Package completion provides language-model completion providers.
//
// Providers share one contract: send a single user prompt, get text back.
// When structured output is requested the provider asks the model for a JSON
// object; callers still validate what comes back.
//
// Rate limiting and retries with exponential backoff live here, not in the
// callers.
package completion

import (
	"context"
	"errors"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var (
	// ErrMissingAPIKey is returned when a provider needs an API key and none is configured.
	ErrMissingAPIKey = errors.New("completion API key required")

	// ErrUnknownProvider is returned for provider names New does not know.
	ErrUnknownProvider = errors.New("unknown completion provider")

	// ErrEmptyResponse is returned when the provider answers without any text.
	ErrEmptyResponse = errors.New("empty completion response")
)

// Service sends a prompt to a language model.
type Service interface {
	// Complete returns the model's answer to prompt. With structured set the
	// answer is requested as a JSON object.
	Complete(ctx context.Context, prompt string, structured bool) (string, error)
}
