package completion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/condense/internal/logging"
)

const (
	defaultOpenAIModel = "o3"
	defaultTimeout     = 120 * time.Second
)

// OpenAIConfig configures the OpenAI-compatible provider.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // empty uses the OpenAI endpoint
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64 // 0 leaves the model default
	RateLimit   float64 // requests per second, 0 disables
	Burst       int
	MaxRetries  int
}

// OpenAI talks to any OpenAI-compatible chat completions endpoint through
// langchaingo. Structured requests use JSON mode.
type OpenAI struct {
	llm    llms.Model
	cfg    OpenAIConfig
	caller caller
	logger *logging.Logger
}

// NewOpenAI creates the provider.
func NewOpenAI(cfg OpenAIConfig, logger *logging.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai: creating client: %w", err)
	}

	return newOpenAIWithModel(llm, cfg, logger), nil
}

func newOpenAIWithModel(llm llms.Model, cfg OpenAIConfig, logger *logging.Logger) *OpenAI {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &OpenAI{
		llm:    llm,
		cfg:    cfg,
		caller: newCaller(cfg.RateLimit, cfg.Burst, cfg.MaxRetries),
		logger: logger.Named("completion.openai"),
	}
}

// Complete sends prompt as a single user message.
func (o *OpenAI) Complete(ctx context.Context, prompt string, structured bool) (out string, err error) {
	start := time.Now()
	defer func() { observe(ProviderOpenAI, structured, start, err) }()

	callOpts := []llms.CallOption{}
	if o.cfg.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(o.cfg.MaxTokens))
	}
	if o.cfg.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(o.cfg.Temperature))
	}
	if structured {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, scrubSecrets(prompt)),
	}
	o.logger.Trace(ctx, "completion request", zap.String("prompt", prompt), zap.Bool("structured", structured))

	out, err = o.caller.do(ctx, func(ctx context.Context) (string, error) {
		resp, err := o.llm.GenerateContent(ctx, messages, callOpts...)
		if err != nil {
			return "", classify(fmt.Errorf("openai: %w", err))
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
			return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
		}
		return resp.Choices[0].Content, nil
	})
	if err != nil {
		o.logger.Warn(ctx, "completion failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return "", err
	}

	o.logger.Debug(ctx, "completion done",
		zap.String("model", o.cfg.Model),
		zap.Bool("structured", structured),
		zap.Int("response.len", len(out)),
		zap.Duration("duration", time.Since(start)),
	)
	o.logger.Trace(ctx, "completion response", zap.String("response", out))
	return out, nil
}

var _ Service = (*OpenAI)(nil)
