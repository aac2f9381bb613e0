// Package chunking packs sentences into size-bounded text chunks.
package chunking

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/fyrsmithlabs/condense/internal/tokenizer"
)

// DefaultCharLimit is the default maximum chunk length in characters.
const DefaultCharLimit = 500

// Chunker splits documents into sentence-respecting chunks of at most limit
// characters. A sentence longer than the limit becomes its own chunk.
type Chunker struct {
	limit    int
	splitter tokenizer.SentenceSplitter
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithCharLimit overrides DefaultCharLimit. Values below 1 are ignored.
func WithCharLimit(limit int) Option {
	return func(c *Chunker) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

// New creates a Chunker over splitter.
func New(splitter tokenizer.SentenceSplitter, opts ...Option) (*Chunker, error) {
	if splitter == nil {
		return nil, errors.New("chunking: sentence splitter is required")
	}
	c := &Chunker{limit: DefaultCharLimit, splitter: splitter}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Limit returns the configured character limit.
func (c *Chunker) Limit() int {
	return c.limit
}

// Chunk splits text into sentences and packs them with MergeSegments.
func (c *Chunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return MergeSegments(c.splitter.Split(text), c.limit)
}

// MergeSegments greedily packs trimmed, non-empty segments into chunks joined
// by "\n". A segment is appended while the chunk stays within limit
// characters, counting the separator; otherwise the chunk is sealed and a new
// one starts with the segment.
func MergeSegments(segments []string, limit int) []string {
	var (
		chunks     []string
		current    []string
		currentLen int
	)

	for _, raw := range segments {
		piece := strings.TrimSpace(raw)
		if piece == "" {
			continue
		}

		pieceLen := utf8.RuneCountInString(piece)
		prospective := pieceLen
		if len(current) > 0 {
			prospective = currentLen + 1 + pieceLen
		}

		if len(current) > 0 && prospective > limit {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = []string{piece}
			currentLen = pieceLen
			continue
		}
		current = append(current, piece)
		currentLen = prospective
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}
