package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/condense/internal/logging"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-5-sonnet-20241022"
	defaultMaxTokens        = 4096
	anthropicVersion        = "2023-06-01"
)

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	RateLimit   float64
	Burst       int
	MaxRetries  int
}

// Anthropic calls the Messages API over HTTP. Structured requests prefill
// the assistant turn with "{" so the model continues a JSON object.
type Anthropic struct {
	cfg        AnthropicConfig
	httpClient *http.Client
	caller     caller
	logger     *logging.Logger
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropic creates the provider.
func NewAnthropic(cfg AnthropicConfig, logger *logging.Logger) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrMissingAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Anthropic{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		caller:     newCaller(cfg.RateLimit, cfg.Burst, cfg.MaxRetries),
		logger:     logger.Named("completion.anthropic"),
	}, nil
}

// Complete sends prompt as a single user message.
func (a *Anthropic) Complete(ctx context.Context, prompt string, structured bool) (out string, err error) {
	start := time.Now()
	defer func() { observe(ProviderAnthropic, structured, start, err) }()

	req := anthropicRequest{
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: scrubSecrets(prompt)},
		},
	}
	if a.cfg.Temperature > 0 {
		req.Temperature = &a.cfg.Temperature
	}
	if structured {
		req.Messages = append(req.Messages, anthropicMessage{Role: "assistant", Content: "{"})
	}
	a.logger.Trace(ctx, "completion request", zap.String("prompt", prompt), zap.Bool("structured", structured))

	out, err = a.caller.do(ctx, func(ctx context.Context) (string, error) {
		return a.doRequest(ctx, req)
	})
	if err != nil {
		a.logger.Warn(ctx, "completion failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return "", err
	}
	if structured {
		out = "{" + out
	}

	a.logger.Debug(ctx, "completion done",
		zap.String("model", a.cfg.Model),
		zap.Bool("structured", structured),
		zap.Int("response.len", len(out)),
		zap.Duration("duration", time.Since(start)),
	)
	a.logger.Trace(ctx, "completion response", zap.String("response", out))
	return out, nil
}

func (a *Anthropic) doRequest(ctx context.Context, req anthropicRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("anthropic: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", a.cfg.APIKey)
	httpReq.Header.Set("Anthropic-Version", anthropicVersion)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("anthropic: %w", ctx.Err())
		}
		return "", &retryableError{err: fmt.Errorf("anthropic: request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", &retryableError{err: fmt.Errorf("anthropic: read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &retryableError{err: fmt.Errorf("anthropic: rate limited (429)")}
	case resp.StatusCode >= 500:
		return "", &retryableError{err: fmt.Errorf("anthropic: server error (%d): %s", resp.StatusCode, respBody)}
	case resp.StatusCode != http.StatusOK:
		var apiErr anthropicError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("anthropic: API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("anthropic: API error (%d): %s", resp.StatusCode, respBody)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("anthropic: parse response: %w", err)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}
	return sb.String(), nil
}

var _ Service = (*Anthropic)(nil)
