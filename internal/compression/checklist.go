package compression

import (
	"encoding/json"
)

// ChecklistContext is the compact view of a knowledge base: TextContext or
// FactContext.
type ChecklistContext interface {
	String() string
	checklistContext()
}

// TextContext is a plain-text checklist view.
type TextContext string

func (t TextContext) String() string { return string(t) }

func (TextContext) checklistContext() {}

// FactEntry is one fact as shown to the checklist consumer.
type FactEntry struct {
	FactID    string `json:"fact_id"`
	Summary   string `json:"summary"`
	SourceURL string `json:"source_url"`
}

// FactContext lists facts by position.
type FactContext []FactEntry

// String renders the entries as a JSON array; an empty list renders as "[]".
func (f FactContext) String() string {
	if len(f) == 0 {
		return "[]"
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}

func (FactContext) checklistContext() {}

// ChecklistProvider is anything that can produce a checklist view.
type ChecklistProvider interface {
	ChecklistContext() ChecklistContext
}

// DefaultReportContext is the report context of strategies that do not trace
// back to chunks: the checklist view coerced to a string.
func DefaultReportContext(p ChecklistProvider) string {
	return p.ChecklistContext().String()
}
