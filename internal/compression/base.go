package compression

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/condense/internal/chunking"
	"github.com/fyrsmithlabs/condense/internal/chunkstore"
	"github.com/fyrsmithlabs/condense/internal/completion"
	"github.com/fyrsmithlabs/condense/internal/logging"
	"github.com/fyrsmithlabs/condense/internal/prompts"
	"github.com/fyrsmithlabs/condense/internal/telemetry"
	"github.com/fyrsmithlabs/condense/internal/tokenizer"
)

const instrumentationName = "github.com/fyrsmithlabs/condense/internal/compression"

// Separator joins chunk texts in checklist and report contexts.
const Separator = "\n\n---\n\n"

// Deps are the collaborators a strategy needs.
type Deps struct {
	Completion completion.Service
	Prompts    prompts.Renderer
	// Splitter is required by the chunking strategies.
	Splitter tokenizer.SentenceSplitter
	// Logger and Telemetry are optional.
	Logger    *logging.Logger
	Telemetry *telemetry.Telemetry
}

type options struct {
	charLimit   int
	pageCharCap int
}

// Option tunes a strategy.
type Option func(*options)

// WithCharLimit sets the chunk size limit in characters.
func WithCharLimit(n int) Option {
	return func(o *options) { o.charLimit = n }
}

// WithPageCharCap sets the per-page truncation used by summarization.
func WithPageCharCap(n int) Option {
	return func(o *options) { o.pageCharCap = n }
}

func buildOptions(opts []Option) options {
	o := options{charLimit: chunking.DefaultCharLimit, pageCharCap: DefaultPageCharCap}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// base carries state and helpers shared by all strategies.
type base struct {
	kind    Kind
	store   *chunkstore.Store
	chunker *chunking.Chunker
	llm     completion.Service
	prompts prompts.Renderer
	logger  *logging.Logger
	tracer  trace.Tracer
	metrics *metrics
}

// newBase validates deps. needChunker is false for strategies that never chunk.
func newBase(kind Kind, deps Deps, o options, needChunker bool, templates ...string) (base, error) {
	if deps.Completion == nil {
		return base{}, fmt.Errorf("%w: completion service is required", ErrConfig)
	}
	if deps.Prompts == nil {
		return base{}, fmt.Errorf("%w: prompt renderer is required", ErrConfig)
	}
	if req, ok := deps.Prompts.(interface{ Require(...string) error }); ok {
		if err := req.Require(templates...); err != nil {
			return base{}, fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}

	b := base{
		kind:    kind,
		store:   chunkstore.New(),
		llm:     deps.Completion,
		prompts: deps.Prompts,
		logger:  deps.Logger,
		tracer:  deps.Telemetry.Tracer(instrumentationName),
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	b.logger = b.logger.Named("compression")

	if needChunker {
		if deps.Splitter == nil {
			return base{}, fmt.Errorf("%w: sentence splitter is required for %s", ErrConfig, kind)
		}
		if o.charLimit <= 0 {
			return base{}, fmt.Errorf("%w: char limit must be positive, got %d", ErrConfig, o.charLimit)
		}
		chunker, err := chunking.New(deps.Splitter, chunking.WithCharLimit(o.charLimit))
		if err != nil {
			return base{}, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		b.chunker = chunker
	}

	m, err := newMetrics(deps.Telemetry.Meter(instrumentationName))
	if err != nil {
		return base{}, fmt.Errorf("initializing metrics: %w", err)
	}
	b.metrics = m

	return b, nil
}

// Kind returns the strategy kind.
func (b *base) Kind() Kind { return b.kind }

// Store returns the chunk store.
func (b *base) Store() *chunkstore.Store { return b.store }

// chunkAndStore chunks every non-blank result, stores each chunk under
// GenerateChunkID(url, index) and returns the chunks in order.
func (b *base) chunkAndStore(results []SearchResult, report *BatchReport) []chunkstore.Chunk {
	var out []chunkstore.Chunk
	for _, r := range results {
		if strings.TrimSpace(r.Text) == "" {
			report.SkippedResults++
			continue
		}
		for i, text := range b.chunker.Chunk(r.Text) {
			c := chunkstore.Chunk{ID: chunkstore.GenerateChunkID(r.URL, i), Text: text, SourceURL: r.URL}
			b.store.Put(c)
			out = append(out, c)
		}
	}
	report.ChunksStored = len(out)
	return out
}

// batch tracks one Process call.
type batch struct {
	ctx    context.Context
	span   trace.Span
	start  time.Time
	report *BatchReport
}

func (b *base) begin(ctx context.Context, query string, results []SearchResult) *batch {
	report := &BatchReport{
		BatchID:  uuid.NewString(),
		Strategy: b.kind,
		Outcome:  OutcomeEmpty,
		Results:  len(results),
	}

	ctx = logging.WithStrategy(ctx, string(b.kind))
	ctx = logging.WithBatchID(ctx, report.BatchID)
	ctx, span := b.tracer.Start(ctx, "compression.process", trace.WithAttributes(
		attribute.String("strategy", string(b.kind)),
		attribute.String("batch.id", report.BatchID),
		attribute.Int("results.count", len(results)),
		attribute.Int("query.length", len(query)),
	))

	return &batch{ctx: ctx, span: span, start: time.Now(), report: report}
}

// finish records metrics, span attributes and the timing log.
func (b *base) finish(bt *batch, err error) {
	r := bt.report
	r.Duration = time.Since(bt.start)
	defer bt.span.End()

	outcome := string(r.Outcome)
	if err != nil {
		outcome = "error"
		bt.span.RecordError(err)
		bt.span.SetStatus(codes.Error, err.Error())
	}
	bt.span.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("chunks.stored", r.ChunksStored),
		attribute.Int("items.added", r.ItemsAdded),
		attribute.Int("indices.dropped", r.DroppedIndices),
	)

	b.metrics.record(bt.ctx, b.kind, outcome, r)

	fields := []zap.Field{
		zap.String("outcome", outcome),
		zap.Int("results", r.Results),
		zap.Int("skipped", r.SkippedResults),
		zap.Int("chunks.stored", r.ChunksStored),
		zap.Int("items.added", r.ItemsAdded),
		zap.Int("completion.calls", r.CompletionCalls),
		zap.Duration("duration", r.Duration),
	}
	if err != nil {
		b.logger.Error(bt.ctx, "batch failed", append(fields, zap.Error(err))...)
		return
	}
	b.logger.Info(bt.ctx, "batch processed", fields...)
}

// complete renders the named prompt and calls the completion service.
func (b *base) complete(bt *batch, name string, fields map[string]any, structured bool) (string, error) {
	prompt, err := b.prompts.Render(name, fields)
	if err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", name, err)
	}
	bt.report.CompletionCalls++
	out, err := b.llm.Complete(bt.ctx, prompt, structured)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCompletionFailed, name, err)
	}
	return out, nil
}

// malformed marks the batch as a soft failure and logs the response.
func (b *base) malformed(bt *batch, name, response, reason string) {
	bt.report.Outcome = OutcomeMalformed
	b.logger.Warn(bt.ctx, "malformed completion response",
		zap.String("prompt", name),
		zap.String("reason", reason),
		zap.String("response", snippet(response, 200)),
	)
}

type indexedChunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

func indexChunks(chunks []chunkstore.Chunk) []indexedChunk {
	out := make([]indexedChunk, len(chunks))
	for i, c := range chunks {
		out[i] = indexedChunk{Index: i, Text: c.Text}
	}
	return out
}

// snippet truncates s to at most n runes.
func snippet(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "..."
		}
		i++
	}
	return s
}
