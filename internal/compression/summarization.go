package compression

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/condense/internal/prompts"
)

// DefaultPageCharCap bounds the characters of each page sent for summarization.
const DefaultPageCharCap = 5000

// Summarization keeps one running summary. Each batch is summarized and then
// merged into the existing summary. Its knowledge base is a Summary.
type Summarization struct {
	base
	pageCharCap int
	kb          Summary
}

type page struct {
	URL  string
	Text string
}

// NewSummarization creates a summarization strategy.
func NewSummarization(deps Deps, opts ...Option) (*Summarization, error) {
	o := buildOptions(opts)
	if o.pageCharCap <= 0 {
		return nil, fmt.Errorf("%w: page char cap must be positive, got %d", ErrConfig, o.pageCharCap)
	}
	b, err := newBase(KindSummarization, deps, o, false, prompts.PageSummary, prompts.SummaryMerge)
	if err != nil {
		return nil, err
	}
	return &Summarization{base: b, pageCharCap: o.pageCharCap}, nil
}

// Process summarizes the batch and merges the result into the running
// summary. Pages are used as given, truncated to the page cap; nothing is
// chunked or stored.
func (s *Summarization) Process(ctx context.Context, query string, results []SearchResult) (report *BatchReport, err error) {
	bt := s.begin(ctx, query, results)
	defer func() { s.finish(bt, err) }()

	pages := make([]page, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.Text) == "" {
			bt.report.SkippedResults++
			continue
		}
		pages = append(pages, page{URL: r.URL, Text: truncateRunes(r.Text, s.pageCharCap)})
	}

	batchSummary, err := s.summarizePages(bt, query, pages)
	if err != nil {
		return bt.report, err
	}
	if batchSummary == "" {
		return bt.report, nil
	}

	merged, err := s.mergeSummaries(bt, string(s.kb), batchSummary)
	if err != nil {
		return bt.report, err
	}
	if merged == "" {
		s.malformed(bt, prompts.SummaryMerge, merged, "empty merged summary")
		return bt.report, nil
	}

	if Summary(merged) != s.kb {
		bt.report.ItemsAdded = 1
		bt.report.Outcome = OutcomeContributed
	}
	s.kb = Summary(merged)
	return bt.report, nil
}

// summarizePages returns "" without calling the model when there are no pages.
func (s *Summarization) summarizePages(bt *batch, query string, pages []page) (string, error) {
	if len(pages) == 0 {
		return "", nil
	}
	out, err := s.complete(bt, prompts.PageSummary, map[string]any{
		"query": query,
		"pages": pages,
	}, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// mergeSummaries adopts newSummary when oldSummary is empty and keeps
// oldSummary when newSummary is empty; only otherwise is the model asked.
func (s *Summarization) mergeSummaries(bt *batch, oldSummary, newSummary string) (string, error) {
	if oldSummary == "" {
		return newSummary, nil
	}
	if newSummary == "" {
		return oldSummary, nil
	}
	out, err := s.complete(bt, prompts.SummaryMerge, map[string]any{
		"old_summary": oldSummary,
		"new_summary": newSummary,
	}, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ChecklistContext returns the running summary verbatim.
func (s *Summarization) ChecklistContext() ChecklistContext {
	return TextContext(s.kb)
}

// ReconstructReportContext returns the running summary; relevant is ignored.
func (s *Summarization) ReconstructReportContext([]string) string {
	return DefaultReportContext(s)
}

// KnowledgeBase returns the running summary.
func (s *Summarization) KnowledgeBase() KnowledgeBase {
	return s.kb
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	count := 0
	for pos := range s {
		if count == n {
			return s[:pos]
		}
		count++
	}
	return s
}

var _ Strategy = (*Summarization)(nil)
