package compression

import (
	"context"

	"github.com/fyrsmithlabs/condense/internal/chunkstore"
)

// Strategy compresses batches of search results into a knowledge base.
type Strategy interface {
	// Kind names the strategy.
	Kind() Kind

	// Process chunks and stores results where the strategy chunks, asks the
	// completion service for a knowledge-base increment and merges it.
	// Blank results are skipped. Not idempotent.
	Process(ctx context.Context, query string, results []SearchResult) (*BatchReport, error)

	// ChecklistContext returns the compact view. It never mutates state.
	ChecklistContext() ChecklistContext

	// ReconstructReportContext returns the text for a report writer. A nil
	// relevant selects everything.
	ReconstructReportContext(relevant []string) string

	// KnowledgeBase returns a copy of the current knowledge base.
	KnowledgeBase() KnowledgeBase

	// Store returns the chunk store owned by the strategy.
	Store() *chunkstore.Store
}
