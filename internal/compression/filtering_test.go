package compression

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/condense/internal/chunkstore"
	"github.com/fyrsmithlabs/condense/internal/completion"
	"github.com/fyrsmithlabs/condense/internal/logging"
)

func TestChunkFiltering_SingleChunkScenario(t *testing.T) {
	h, deps := newHarness(t, `{"relevant_indices":[0]}`)
	s, err := NewChunkFiltering(deps)
	require.NoError(t, err)

	report, err := s.Process(context.Background(), "what is X", []SearchResult{{URL: "u1", Text: "Sentence one. Sentence two."}})
	require.NoError(t, err)

	assert.Equal(t, OutcomeContributed, report.Outcome)
	assert.Equal(t, 1, report.ChunksStored)
	assert.Equal(t, 1, report.ItemsAdded)
	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, 1, s.KnowledgeBase().Len())

	chunkText, ok := s.Store().Text(chunkstore.GenerateChunkID("u1", 0))
	require.True(t, ok)
	assert.Equal(t, "Sentence one.\nSentence two.", chunkText)
	assert.Equal(t, chunkText, s.ChecklistContext().String())

	calls := h.llm.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Structured)
	assert.Contains(t, calls[0].Prompt, "what is X")
	assert.Contains(t, calls[0].Prompt, `"index": 0`)
}

func TestChunkFiltering_PreservesServiceOrder(t *testing.T) {
	_, deps := newHarness(t, `{"relevant_indices":[2, 0, 2, 7, -1, 1.5, "1"]}`)
	s, err := NewChunkFiltering(deps, WithCharLimit(10))
	require.NoError(t, err)

	report, err := s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "Alpha one. Beta two. Gamma three."}})
	require.NoError(t, err)
	require.Equal(t, 3, report.ChunksStored)

	want := ChunkIDList{
		chunkstore.GenerateChunkID("u1", 2),
		chunkstore.GenerateChunkID("u1", 0),
		chunkstore.GenerateChunkID("u1", 2),
	}
	assert.Equal(t, want, s.KnowledgeBase())
	assert.Equal(t, 4, report.DroppedIndices)
	assert.Equal(t, "Gamma three."+Separator+"Alpha one."+Separator+"Gamma three.", s.ChecklistContext().String())
}

func TestChunkFiltering_IndicesSpanResults(t *testing.T) {
	_, deps := newHarness(t, `{"relevant_indices":[1]}`)
	s, err := NewChunkFiltering(deps)
	require.NoError(t, err)

	_, err = s.Process(context.Background(), "q", []SearchResult{
		{URL: "u1", Text: "First page."},
		{URL: "u2", Text: "Second page."},
	})
	require.NoError(t, err)
	assert.Equal(t, ChunkIDList{chunkstore.GenerateChunkID("u2", 0)}, s.KnowledgeBase())
}

func TestChunkFiltering_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		response string
		outcome  Outcome
	}{
		{name: "nothing relevant", response: `{"relevant_indices":[]}`, outcome: OutcomeEmpty},
		{name: "only out of range", response: `{"relevant_indices":[5]}`, outcome: OutcomeEmpty},
		{name: "not json", response: `I think chunk 0`, outcome: OutcomeMalformed},
		{name: "array instead of object", response: `[0]`, outcome: OutcomeMalformed},
		{name: "missing key", response: `{"indices":[0]}`, outcome: OutcomeMalformed},
		{name: "key not an array", response: `{"relevant_indices":0}`, outcome: OutcomeMalformed},
		{name: "fenced json", response: "```json\n{\"relevant_indices\":[0]}\n```", outcome: OutcomeContributed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, deps := newHarness(t, tt.response)
			s, err := NewChunkFiltering(deps)
			require.NoError(t, err)

			report, err := s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "Only sentence."}})
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, report.Outcome)

			if tt.outcome == OutcomeMalformed {
				assert.Equal(t, 0, s.KnowledgeBase().Len())
				h.log.AssertLogged(t, zapcore.WarnLevel, "malformed completion response")
			}
			assert.Equal(t, 1, s.Store().Len())
		})
	}
}

func TestChunkFiltering_BlankInputSkipsService(t *testing.T) {
	h, deps := newHarness(t)
	s, err := NewChunkFiltering(deps)
	require.NoError(t, err)

	report, err := s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "  \n"}, {URL: "u2"}})
	require.NoError(t, err)

	assert.Equal(t, OutcomeEmpty, report.Outcome)
	assert.Equal(t, 2, report.SkippedResults)
	assert.Empty(t, h.llm.Calls())
	assert.Equal(t, 0, s.Store().Len())
	assert.Equal(t, "", s.ChecklistContext().String())
}

func TestChunkFiltering_CompletionFailure(t *testing.T) {
	h, deps := newHarness(t)
	h.llm.Push(completion.MockResponse{Err: errors.New("connection reset")})
	s, err := NewChunkFiltering(deps)
	require.NoError(t, err)

	_, err = s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "Some text."}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompletionFailed))
	assert.Contains(t, err.Error(), "connection reset")

	assert.Equal(t, 0, s.KnowledgeBase().Len())
	assert.Equal(t, 1, s.Store().Len(), "chunks stored before the failure remain")
	h.log.AssertLogged(t, zapcore.ErrorLevel, "batch failed")
}

func TestChunkFiltering_NotIdempotent(t *testing.T) {
	_, deps := newHarness(t, `{"relevant_indices":[0]}`, `{"relevant_indices":[0]}`)
	s, err := NewChunkFiltering(deps)
	require.NoError(t, err)

	results := []SearchResult{{URL: "u1", Text: "Repeated text."}}
	_, err = s.Process(context.Background(), "q", results)
	require.NoError(t, err)
	_, err = s.Process(context.Background(), "q", results)
	require.NoError(t, err)

	assert.Equal(t, 2, s.KnowledgeBase().Len())
	assert.Equal(t, 1, s.Store().Len())
	assert.Equal(t, "Repeated text."+Separator+"Repeated text.", s.ChecklistContext().String())
}

func TestChunkFiltering_ChecklistSkipsUnknownIDs(t *testing.T) {
	_, deps := newHarness(t, `{"relevant_indices":[0]}`)
	s, err := NewChunkFiltering(deps)
	require.NoError(t, err)

	_, err = s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "Kept."}})
	require.NoError(t, err)
	s.kb = append(s.kb, "ffffffff-9")

	assert.Equal(t, "Kept.", s.ChecklistContext().String())
	assert.Equal(t, s.ChecklistContext().String(), s.ReconstructReportContext([]string{"anything"}))
}

func TestChunkFiltering_KnowledgeBaseIsCopy(t *testing.T) {
	_, deps := newHarness(t, `{"relevant_indices":[0]}`)
	s, err := NewChunkFiltering(deps)
	require.NoError(t, err)
	_, err = s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "Kept."}})
	require.NoError(t, err)

	kb := s.KnowledgeBase().(ChunkIDList)
	kb[0] = "changed"
	assert.NotEqual(t, "changed", s.KnowledgeBase().(ChunkIDList)[0])
}

func TestChunkFiltering_Telemetry(t *testing.T) {
	h, deps := newHarness(t, `{"relevant_indices":[0]}`)
	s, err := NewChunkFiltering(deps)
	require.NoError(t, err)

	report, err := s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "Kept."}})
	require.NoError(t, err)

	h.tel.AssertSpanExists(t, "compression.process")
	h.tel.AssertSpanAttribute(t, "compression.process", "strategy", "chunk_filtering")
	h.tel.AssertSpanAttribute(t, "compression.process", "outcome", "contributed")
	h.tel.AssertSpanAttribute(t, "compression.process", "batch.id", report.BatchID)

	batches, ok := h.tel.Int64Sum(t, "compression.batches_total")
	require.True(t, ok)
	assert.Equal(t, int64(1), batches)

	chunks, ok := h.tel.Int64Sum(t, "compression.chunks_stored_total")
	require.True(t, ok)
	assert.Equal(t, int64(1), chunks)

	count, ok := h.tel.HistogramCount(t, "compression.process_duration_seconds")
	require.True(t, ok)
	assert.Equal(t, uint64(1), count)

	h.log.AssertField(t, "batch processed", "batch.id", report.BatchID)
	h.log.AssertField(t, "batch processed", "strategy", "chunk_filtering")
	h.log.AssertField(t, "batch processed", "outcome", "contributed")
}

// serviceFunc answers completions with a plain function.
type serviceFunc func(ctx context.Context, prompt string, structured bool) (string, error)

func (f serviceFunc) Complete(ctx context.Context, prompt string, structured bool) (string, error) {
	return f(ctx, prompt, structured)
}

func TestChunkFiltering_ServiceSeesBatchContext(t *testing.T) {
	_, deps := newHarness(t)

	var batchID, strategy string
	var traced bool
	deps.Completion = serviceFunc(func(ctx context.Context, _ string, structured bool) (string, error) {
		assert.True(t, structured)
		batchID = logging.BatchIDFromContext(ctx)
		strategy = logging.StrategyFromContext(ctx)
		traced = trace.SpanContextFromContext(ctx).IsValid()
		return `{"relevant_indices":[0]}`, nil
	})

	s, err := NewChunkFiltering(deps)
	require.NoError(t, err)

	report, err := s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "Sentence one."}})
	require.NoError(t, err)

	assert.Equal(t, report.BatchID, batchID)
	assert.Equal(t, "chunk_filtering", strategy)
	assert.True(t, traced)
}
