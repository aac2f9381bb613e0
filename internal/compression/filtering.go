package compression

import (
	"context"
	"strings"

	"github.com/fyrsmithlabs/condense/internal/chunkstore"
	"github.com/fyrsmithlabs/condense/internal/prompts"
)

// ChunkFiltering keeps the chunks the model judges relevant to the query.
// Its knowledge base is a ChunkIDList.
type ChunkFiltering struct {
	base
	kb ChunkIDList
}

// NewChunkFiltering creates a chunk-filtering strategy.
func NewChunkFiltering(deps Deps, opts ...Option) (*ChunkFiltering, error) {
	b, err := newBase(KindChunkFiltering, deps, buildOptions(opts), true, prompts.ChunkFilter)
	if err != nil {
		return nil, err
	}
	return &ChunkFiltering{base: b}, nil
}

// Process chunks and stores results, asks the model which chunk indices are
// relevant and appends the matching chunk ids in the order returned.
func (s *ChunkFiltering) Process(ctx context.Context, query string, results []SearchResult) (report *BatchReport, err error) {
	bt := s.begin(ctx, query, results)
	defer func() { s.finish(bt, err) }()

	chunks := s.chunkAndStore(results, bt.report)
	if len(chunks) == 0 {
		return bt.report, nil
	}

	raw, err := s.complete(bt, prompts.ChunkFilter, map[string]any{
		"query":  query,
		"chunks": indexChunks(chunks),
	}, true)
	if err != nil {
		return bt.report, err
	}

	doc, ok := parseJSON(raw)
	if !ok || !doc.IsObject() {
		s.malformed(bt, prompts.ChunkFilter, raw, "not a JSON object")
		return bt.report, nil
	}
	indices := doc.Get("relevant_indices")
	if !indices.IsArray() {
		s.malformed(bt, prompts.ChunkFilter, raw, "relevant_indices missing or not an array")
		return bt.report, nil
	}

	ids, dropped := resolveIndices(indices, chunkIDs(chunks))
	bt.report.DroppedIndices = dropped
	if len(ids) == 0 {
		return bt.report, nil
	}

	s.kb = append(s.kb, ids...)
	bt.report.ItemsAdded = len(ids)
	bt.report.Outcome = OutcomeContributed
	return bt.report, nil
}

// ChecklistContext joins the text of every kept chunk with Separator. Ids
// missing from the store are skipped.
func (s *ChunkFiltering) ChecklistContext() ChecklistContext {
	if len(s.kb) == 0 {
		return TextContext("")
	}
	texts := make([]string, 0, len(s.kb))
	for _, id := range s.kb {
		if text, ok := s.store.Text(id); ok {
			texts = append(texts, text)
		}
	}
	return TextContext(strings.Join(texts, Separator))
}

// ReconstructReportContext returns the checklist text; relevant is ignored.
func (s *ChunkFiltering) ReconstructReportContext([]string) string {
	return DefaultReportContext(s)
}

// KnowledgeBase returns a copy of the kept chunk ids.
func (s *ChunkFiltering) KnowledgeBase() KnowledgeBase {
	out := make(ChunkIDList, len(s.kb))
	copy(out, s.kb)
	return out
}

func chunkIDs(chunks []chunkstore.Chunk) []string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids
}

var _ Strategy = (*ChunkFiltering)(nil)
