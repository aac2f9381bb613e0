package compression

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/condense/internal/completion"
	"github.com/fyrsmithlabs/condense/internal/config"
	"github.com/fyrsmithlabs/condense/internal/logging"
	"github.com/fyrsmithlabs/condense/internal/prompts"
	"github.com/fyrsmithlabs/condense/internal/telemetry"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("hybrid")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind   Kind
		wantKB KnowledgeBase
	}{
		{kind: KindChunkFiltering, wantKB: ChunkIDList{}},
		{kind: KindFactCentric, wantKB: FactList{}},
		{kind: KindSummarization, wantKB: Summary("")},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			_, deps := newHarness(t)
			s, err := New(tt.kind, deps)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, s.Kind())
			assert.Equal(t, tt.wantKB, s.KnowledgeBase())
			assert.Equal(t, tt.kind, s.KnowledgeBase().Kind())
			assert.Equal(t, 0, s.KnowledgeBase().Len())
			assert.NotNil(t, s.Store())
		})
	}
}

func TestNew_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		mutate func(*Deps)
		opts   []Option
	}{
		{name: "unknown kind", kind: "hybrid"},
		{name: "no completion", kind: KindChunkFiltering, mutate: func(d *Deps) { d.Completion = nil }},
		{name: "no prompts", kind: KindFactCentric, mutate: func(d *Deps) { d.Prompts = nil }},
		{name: "no splitter", kind: KindChunkFiltering, mutate: func(d *Deps) { d.Splitter = nil }},
		{name: "zero char limit", kind: KindFactCentric, opts: []Option{WithCharLimit(0)}},
		{name: "negative page cap", kind: KindSummarization, opts: []Option{WithPageCharCap(-1)}},
		{name: "missing template", kind: KindChunkFiltering, mutate: func(d *Deps) { d.Prompts = &emptyRegistry{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, deps := newHarness(t)
			if tt.mutate != nil {
				tt.mutate(&deps)
			}
			_, err := New(tt.kind, deps, tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfig), "got %v", err)
		})
	}
}

func TestNew_SummarizationNeedsNoSplitter(t *testing.T) {
	_, deps := newHarness(t)
	deps.Splitter = nil
	_, err := NewSummarization(deps)
	require.NoError(t, err)
}

func TestNew_OptionalLoggerAndTelemetry(t *testing.T) {
	_, deps := newHarness(t)
	deps.Logger = nil
	deps.Telemetry = nil
	_, err := NewChunkFiltering(deps)
	require.NoError(t, err)
}

func TestNewFromConfig(t *testing.T) {
	t.Run("builds configured strategy", func(t *testing.T) {
		cfg := config.Default()
		cfg.Strategy = "fact_centric"
		cfg.Tokenizer.Kind = "simple"
		cfg.Completion.APIKey = config.Secret("sk-test")

		s, err := NewFromConfig(cfg, logging.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, KindFactCentric, s.Kind())
	})

	t.Run("logs loaded templates", func(t *testing.T) {
		cfg := config.Default()
		cfg.Tokenizer.Kind = "simple"
		cfg.Completion.APIKey = config.Secret("sk-test")
		tl := logging.NewTestLogger()

		_, err := DepsFromConfig(cfg, tl.Logger, nil)
		require.NoError(t, err)
		tl.AssertField(t, "prompt templates loaded", "templates",
			[]any{prompts.ChunkFilter, prompts.FactExtraction, prompts.PageSummary, prompts.SummaryMerge})
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := config.Default()
		cfg.Tokenizer.Kind = "simple"

		_, err := NewFromConfig(cfg, logging.NewNop(), nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConfig))
		assert.True(t, errors.Is(err, completion.ErrMissingAPIKey))
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := config.Default()
		cfg.Tokenizer.Kind = "simple"
		cfg.Completion.Provider = "cohere"
		cfg.Completion.APIKey = config.Secret("k")

		_, err := NewFromConfig(cfg, logging.NewNop(), nil)
		assert.True(t, errors.Is(err, ErrConfig))
		assert.True(t, errors.Is(err, completion.ErrUnknownProvider))
	})

	t.Run("unknown strategy", func(t *testing.T) {
		cfg := config.Default()
		cfg.Strategy = "hybrid"

		_, err := NewFromConfig(cfg, logging.NewNop(), nil)
		assert.True(t, errors.Is(err, ErrConfig))
	})

	t.Run("missing prompt dir", func(t *testing.T) {
		cfg := config.Default()
		cfg.Tokenizer.Kind = "simple"
		cfg.Completion.APIKey = config.Secret("k")
		cfg.Prompts.Dir = t.TempDir() + "/missing"

		_, err := NewFromConfig(cfg, logging.NewNop(), nil)
		assert.True(t, errors.Is(err, ErrConfig))
	})

	t.Run("options follow config", func(t *testing.T) {
		cfg := config.Default()
		cfg.Chunking.CharLimit = 0

		_, err := New(KindChunkFiltering, mustDeps(t), OptionsFromConfig(cfg)...)
		assert.True(t, errors.Is(err, ErrConfig))
	})
}

func mustDeps(t *testing.T) Deps {
	t.Helper()
	_, deps := newHarness(t)
	deps.Telemetry = telemetry.NewTestTelemetry().Telemetry
	return deps
}

// emptyRegistry knows no templates.
type emptyRegistry struct{}

func (*emptyRegistry) Render(name string, _ map[string]any) (string, error) {
	return "", prompts.ErrTemplateNotFound
}

func (*emptyRegistry) Require(names ...string) error {
	if len(names) == 0 {
		return nil
	}
	return prompts.ErrTemplateNotFound
}
