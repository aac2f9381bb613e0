package compression

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/condense/internal/completion"
)

func TestSummarization_MergeScenario(t *testing.T) {
	h, deps := newHarness(t, "Summary of batch one.", "Summary of batch two.", "Merged summary.")
	s, err := NewSummarization(deps)
	require.NoError(t, err)

	report, err := s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "First page."}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeContributed, report.Outcome)
	assert.Equal(t, 1, report.CompletionCalls)
	assert.Equal(t, Summary("Summary of batch one."), s.KnowledgeBase())

	report, err = s.Process(context.Background(), "q", []SearchResult{{URL: "u2", Text: "Second page."}})
	require.NoError(t, err)
	assert.Equal(t, 2, report.CompletionCalls)
	assert.Equal(t, Summary("Merged summary."), s.KnowledgeBase())
	assert.Equal(t, "Merged summary.", s.ChecklistContext().String())
	assert.Equal(t, "Merged summary.", s.ReconstructReportContext([]string{"ignored"}))

	calls := h.llm.Calls()
	require.Len(t, calls, 3)
	for _, c := range calls {
		assert.False(t, c.Structured)
	}
	assert.Contains(t, calls[0].Prompt, "--- Page 1: u1")
	assert.Contains(t, calls[0].Prompt, "First page.")
	assert.Contains(t, calls[2].Prompt, "Summary of batch one.")
	assert.Contains(t, calls[2].Prompt, "Summary of batch two.")
	assert.Equal(t, 0, s.Store().Len(), "summarization never stores chunks")
}

func TestSummarization_EmptyBatchKeepsSummary(t *testing.T) {
	h, deps := newHarness(t, "Existing.", "")
	s, err := NewSummarization(deps)
	require.NoError(t, err)

	_, err = s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "Page."}})
	require.NoError(t, err)

	report, err := s.Process(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, report.Outcome)
	assert.Len(t, h.llm.Calls(), 1, "no pages means no call")

	report, err = s.Process(context.Background(), "q", []SearchResult{{URL: "u2", Text: "Page two."}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, report.Outcome)
	assert.Len(t, h.llm.Calls(), 2, "an empty batch summary is not merged")
	assert.Equal(t, Summary("Existing."), s.KnowledgeBase())
}

func TestSummarization_SkipsBlankPages(t *testing.T) {
	h, deps := newHarness(t, "S.")
	s, err := NewSummarization(deps)
	require.NoError(t, err)

	report, err := s.Process(context.Background(), "q", []SearchResult{
		{URL: "u1", Text: " \t"},
		{URL: "u2", Text: "Real page."},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.SkippedResults)

	prompt := h.llm.Calls()[0].Prompt
	assert.NotContains(t, prompt, "u1")
	assert.Contains(t, prompt, "--- Page 1: u2")
}

func TestSummarization_TruncatesPages(t *testing.T) {
	h, deps := newHarness(t, "S.")
	s, err := NewSummarization(deps, WithPageCharCap(10))
	require.NoError(t, err)

	_, err = s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "0123456789TAIL"}})
	require.NoError(t, err)

	prompt := h.llm.Calls()[0].Prompt
	assert.Contains(t, prompt, "0123456789")
	assert.NotContains(t, prompt, "TAIL")
}

func TestSummarization_EmptyMergeIsMalformed(t *testing.T) {
	_, deps := newHarness(t, "One.", "Two.", "   ")
	s, err := NewSummarization(deps)
	require.NoError(t, err)

	_, err = s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "A."}})
	require.NoError(t, err)
	report, err := s.Process(context.Background(), "q", []SearchResult{{URL: "u2", Text: "B."}})
	require.NoError(t, err)

	assert.Equal(t, OutcomeMalformed, report.Outcome)
	assert.Equal(t, Summary("One."), s.KnowledgeBase())
}

func TestSummarization_MergeFailureKeepsSummary(t *testing.T) {
	h, deps := newHarness(t, "One.", "Two.")
	h.llm.Push(completion.MockResponse{Err: errors.New("status code: 503")})
	s, err := NewSummarization(deps)
	require.NoError(t, err)

	_, err = s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "A."}})
	require.NoError(t, err)
	_, err = s.Process(context.Background(), "q", []SearchResult{{URL: "u2", Text: "B."}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompletionFailed))
	assert.Equal(t, Summary("One."), s.KnowledgeBase())
}

func TestSummarization_UnchangedSummaryIsEmpty(t *testing.T) {
	_, deps := newHarness(t, "Same.", "Other.", "Same.")
	s, err := NewSummarization(deps)
	require.NoError(t, err)

	_, err = s.Process(context.Background(), "q", []SearchResult{{URL: "u1", Text: "A."}})
	require.NoError(t, err)
	report, err := s.Process(context.Background(), "q", []SearchResult{{URL: "u2", Text: "B."}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, report.Outcome)
	assert.Equal(t, 0, report.ItemsAdded)
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{in: "hello", n: 10, want: "hello"},
		{in: "hello", n: 5, want: "hello"},
		{in: "hello", n: 3, want: "hel"},
		{in: "héllo wörld", n: 7, want: "héllo w"},
		{in: "日本語テキスト", n: 3, want: "日本語"},
		{in: "", n: 3, want: ""},
	}
	for _, tt := range tests {
		got := truncateRunes(tt.in, tt.n)
		assert.Equal(t, tt.want, got)
		assert.True(t, strings.HasPrefix(tt.in, got))
	}
}
