package compression

import (
	"context"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fyrsmithlabs/condense/internal/prompts"
)

const factIDPrefix = "fact_"

// FactCentric extracts source-attributed facts from chunks and can rebuild
// the grounding text for any subset of them. Its knowledge base is a FactList.
type FactCentric struct {
	base
	kb FactList
}

// NewFactCentric creates a fact-centric strategy.
func NewFactCentric(deps Deps, opts ...Option) (*FactCentric, error) {
	b, err := newBase(KindFactCentric, deps, buildOptions(opts), true, prompts.FactExtraction)
	if err != nil {
		return nil, err
	}
	return &FactCentric{base: b}, nil
}

// Process chunks and stores results, asks the model for facts citing chunk
// indices and appends every fact that keeps a summary and at least one
// resolvable chunk.
func (s *FactCentric) Process(ctx context.Context, query string, results []SearchResult) (report *BatchReport, err error) {
	bt := s.begin(ctx, query, results)
	defer func() { s.finish(bt, err) }()

	chunks := s.chunkAndStore(results, bt.report)
	if len(chunks) == 0 {
		return bt.report, nil
	}

	raw, err := s.complete(bt, prompts.FactExtraction, map[string]any{
		"query":  query,
		"chunks": indexChunks(chunks),
	}, true)
	if err != nil {
		return bt.report, err
	}

	doc, ok := parseJSON(raw)
	if !ok {
		s.malformed(bt, prompts.FactExtraction, raw, "not valid JSON")
		return bt.report, nil
	}
	records, ok := factRecords(doc)
	if !ok {
		s.malformed(bt, prompts.FactExtraction, raw, "no array of fact records")
		return bt.report, nil
	}

	ids := chunkIDs(chunks)
	var facts []Fact
	records.ForEach(func(_, rec gjson.Result) bool {
		fact, dropped, ok := s.toFact(rec, ids)
		bt.report.DroppedIndices += dropped
		if !ok {
			bt.report.DroppedRecords++
			return true
		}
		facts = append(facts, fact)
		return true
	})

	if len(facts) == 0 {
		return bt.report, nil
	}
	s.kb = append(s.kb, facts...)
	bt.report.ItemsAdded = len(facts)
	bt.report.Outcome = OutcomeContributed
	return bt.report, nil
}

func (s *FactCentric) toFact(rec gjson.Result, ids []string) (Fact, int, bool) {
	if !rec.IsObject() {
		return Fact{}, 0, false
	}
	summary := rec.Get("summary")
	if summary.Type != gjson.String || strings.TrimSpace(summary.Str) == "" {
		return Fact{}, 0, false
	}
	indices := rec.Get("chunk_indices")
	if !indices.IsArray() {
		return Fact{}, 0, false
	}
	resolved, dropped := resolveIndices(indices, ids)
	if len(resolved) == 0 {
		return Fact{}, dropped, false
	}
	url, _ := s.store.URL(resolved[0])
	return Fact{
		Summary:   strings.TrimSpace(summary.Str),
		ChunkIDs:  resolved,
		SourceURL: url,
	}, dropped, true
}

// ChecklistContext lists facts as fact_<position> with summary and source.
func (s *FactCentric) ChecklistContext() ChecklistContext {
	entries := make(FactContext, len(s.kb))
	for i, f := range s.kb {
		entries[i] = FactEntry{
			FactID:    FactID(i),
			Summary:   f.Summary,
			SourceURL: f.SourceURL,
		}
	}
	return entries
}

// ReconstructReportContext returns the text of the chunks behind the selected
// facts, deduplicated in first-seen order and joined with Separator. A nil
// relevant selects every fact; ids that do not parse or are out of range are
// skipped.
func (s *FactCentric) ReconstructReportContext(relevant []string) string {
	selected := s.kb
	if relevant != nil {
		selected = make(FactList, 0, len(relevant))
		for _, id := range relevant {
			i, ok := parseFactID(id)
			if !ok || i >= len(s.kb) {
				continue
			}
			selected = append(selected, s.kb[i])
		}
	}

	seen := make(map[string]struct{})
	var texts []string
	for _, f := range selected {
		for _, id := range f.ChunkIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if text, ok := s.store.Text(id); ok {
				texts = append(texts, text)
			}
		}
	}
	return strings.Join(texts, Separator)
}

// KnowledgeBase returns a deep copy of the facts.
func (s *FactCentric) KnowledgeBase() KnowledgeBase {
	out := make(FactList, len(s.kb))
	for i, f := range s.kb {
		out[i] = Fact{
			Summary:   f.Summary,
			ChunkIDs:  append([]string(nil), f.ChunkIDs...),
			SourceURL: f.SourceURL,
		}
	}
	return out
}

// FactID returns the checklist id of the fact at position i.
func FactID(i int) string {
	return factIDPrefix + strconv.Itoa(i)
}

func parseFactID(id string) (int, bool) {
	digits, ok := strings.CutPrefix(id, factIDPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return i, true
}

var _ Strategy = (*FactCentric)(nil)
