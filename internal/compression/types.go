package compression

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConfig wraps every construction-time configuration problem.
	ErrConfig = errors.New("compression: configuration error")

	// ErrCompletionFailed wraps completion service failures during Process.
	ErrCompletionFailed = errors.New("compression: completion failed")
)

// Kind names a strategy.
type Kind string

// Strategy kinds.
const (
	KindChunkFiltering Kind = "chunk_filtering"
	KindFactCentric    Kind = "fact_centric"
	KindSummarization  Kind = "summarization"
)

// Kinds lists every strategy kind.
func Kinds() []Kind {
	return []Kind{KindChunkFiltering, KindFactCentric, KindSummarization}
}

// ParseKind validates s as a strategy kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown strategy %q", ErrConfig, s)
}

// SearchResult is one cleaned page handed to Process.
type SearchResult struct {
	URL  string
	Text string
}

// Outcome summarizes what one Process call did to the knowledge base.
type Outcome string

const (
	// OutcomeContributed means the knowledge base changed.
	OutcomeContributed Outcome = "contributed"
	// OutcomeEmpty means there was nothing to add: no usable input, or the
	// model found nothing relevant.
	OutcomeEmpty Outcome = "empty"
	// OutcomeMalformed means the completion response could not be decoded.
	OutcomeMalformed Outcome = "malformed"
)

// BatchReport describes one Process call.
type BatchReport struct {
	BatchID  string
	Strategy Kind
	Outcome  Outcome

	Results         int // results passed in
	SkippedResults  int // blank results skipped
	ChunksStored    int
	ItemsAdded      int // ids, facts, or 1 when the summary changed
	DroppedIndices  int // out-of-range or non-integer indices ignored
	DroppedRecords  int // fact records discarded
	CompletionCalls int
	Duration        time.Duration
}
