package tokenizer

import (
	"errors"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// BPE ranks come from the embedded loader, so counting works offline.
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

const defaultEncoding = "cl100k_base"

// ErrCounterUnavailable is returned when no tiktoken encoding can be loaded.
var ErrCounterUnavailable = errors.New("token counter unavailable")

// TokenCounter counts model tokens with a tiktoken encoding.
type TokenCounter struct {
	encoding string
	tke      *tiktoken.Tiktoken
}

// NewTokenCounter resolves modelOrEncoding as an encoding name first, then as
// a model name. An empty value selects cl100k_base.
func NewTokenCounter(modelOrEncoding string) (*TokenCounter, error) {
	if modelOrEncoding == "" {
		modelOrEncoding = defaultEncoding
	}

	tke, encErr := tiktoken.GetEncoding(modelOrEncoding)
	if encErr == nil {
		return &TokenCounter{encoding: modelOrEncoding, tke: tke}, nil
	}

	tke, modelErr := tiktoken.EncodingForModel(modelOrEncoding)
	if modelErr != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCounterUnavailable, modelOrEncoding, errors.Join(encErr, modelErr))
	}
	return &TokenCounter{encoding: modelOrEncoding, tke: tke}, nil
}

// Count returns the number of tokens in text.
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.tke.Encode(text, nil, nil))
}

// Encoding returns the encoding or model name the counter was built with.
func (c *TokenCounter) Encoding() string {
	return c.encoding
}
