package compression

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/condense/internal/completion"
	"github.com/fyrsmithlabs/condense/internal/config"
	"github.com/fyrsmithlabs/condense/internal/logging"
	"github.com/fyrsmithlabs/condense/internal/prompts"
	"github.com/fyrsmithlabs/condense/internal/telemetry"
	"github.com/fyrsmithlabs/condense/internal/tokenizer"
)

// New builds the strategy of the given kind.
func New(kind Kind, deps Deps, opts ...Option) (Strategy, error) {
	switch kind {
	case KindChunkFiltering:
		return NewChunkFiltering(deps, opts...)
	case KindFactCentric:
		return NewFactCentric(deps, opts...)
	case KindSummarization:
		return NewSummarization(deps, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrConfig, kind)
	}
}

// DepsFromConfig builds the sentence splitter, completion provider and prompt
// registry described by cfg. Every failure wraps ErrConfig.
func DepsFromConfig(cfg *config.Config, logger *logging.Logger, tel *telemetry.Telemetry) (Deps, error) {
	splitter, err := tokenizer.New(cfg.Tokenizer.Kind)
	if err != nil {
		return Deps{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	llm, err := completion.New(cfg.Completion, logger)
	if err != nil {
		return Deps{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	registry, err := prompts.NewRegistry(cfg.Prompts.Dir)
	if err != nil {
		return Deps{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if logger != nil {
		logger.Debug(context.Background(), "prompt templates loaded",
			zap.String("dir", cfg.Prompts.Dir),
			zap.Strings("templates", registry.Names()))
	}

	return Deps{
		Completion: llm,
		Prompts:    registry,
		Splitter:   splitter,
		Logger:     logger,
		Telemetry:  tel,
	}, nil
}

// OptionsFromConfig returns the strategy options set in cfg.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithCharLimit(cfg.Chunking.CharLimit),
		WithPageCharCap(cfg.Summarization.PageCharCap),
	}
}

// NewFromConfig builds the strategy named by cfg.Strategy with its
// collaborators.
func NewFromConfig(cfg *config.Config, logger *logging.Logger, tel *telemetry.Telemetry) (Strategy, error) {
	kind, err := ParseKind(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	deps, err := DepsFromConfig(cfg, logger, tel)
	if err != nil {
		return nil, err
	}
	return New(kind, deps, OptionsFromConfig(cfg)...)
}
