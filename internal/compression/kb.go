package compression

// KnowledgeBase is the accumulated representation of one strategy. Its
// concrete type is fixed when the strategy is built: ChunkIDList, FactList
// or Summary.
type KnowledgeBase interface {
	Kind() Kind
	Len() int
	knowledgeBase()
}

// ChunkIDList holds relevant chunk ids in decision order. Duplicates are kept.
type ChunkIDList []string

// Kind returns KindChunkFiltering.
func (ChunkIDList) Kind() Kind { return KindChunkFiltering }

// Len returns the number of ids.
func (l ChunkIDList) Len() int { return len(l) }

func (ChunkIDList) knowledgeBase() {}

// Fact is a source-attributed claim. ChunkIDs are lookups into the owning
// strategy's chunk store; SourceURL is the URL of the first chunk at creation.
type Fact struct {
	Summary   string
	ChunkIDs  []string
	SourceURL string
}

// FactList holds facts in extraction order.
type FactList []Fact

// Kind returns KindFactCentric.
func (FactList) Kind() Kind { return KindFactCentric }

// Len returns the number of facts.
func (l FactList) Len() int { return len(l) }

func (FactList) knowledgeBase() {}

// Summary is the running summary.
type Summary string

// Kind returns KindSummarization.
func (Summary) Kind() Kind { return KindSummarization }

// Len returns 1 for a non-empty summary and 0 otherwise.
func (s Summary) Len() int {
	if s == "" {
		return 0
	}
	return 1
}

func (Summary) knowledgeBase() {}
