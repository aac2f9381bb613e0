// Package chunkstore holds chunk text and provenance keyed by content-addressed ids.
package chunkstore

import (
	"crypto/md5" //nolint:gosec // identity only, not security
	"encoding/hex"
	"strconv"
)

// Chunk is one stored text unit and the page it came from.
type Chunk struct {
	ID        string
	Text      string
	SourceURL string
}

// GenerateChunkID returns the first 8 hex digits of md5(url), a dash and the
// zero-based index of the chunk within its document.
func GenerateChunkID(url string, index int) string {
	sum := md5.Sum([]byte(url)) //nolint:gosec
	return hex.EncodeToString(sum[:])[:8] + "-" + strconv.Itoa(index)
}

// Store maps chunk ids to text and source URL. It only grows and is not safe
// for concurrent use.
type Store struct {
	text map[string]string
	url  map[string]string
	ids  []string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		text: make(map[string]string),
		url:  make(map[string]string),
	}
}

// Put stores c. Re-putting an existing id overwrites its text and URL but
// keeps its original position.
func (s *Store) Put(c Chunk) {
	if _, ok := s.text[c.ID]; !ok {
		s.ids = append(s.ids, c.ID)
	}
	s.text[c.ID] = c.Text
	s.url[c.ID] = c.SourceURL
}

// Text returns the text stored under id.
func (s *Store) Text(id string) (string, bool) {
	t, ok := s.text[id]
	return t, ok
}

// URL returns the source URL stored under id.
func (s *Store) URL(id string) (string, bool) {
	u, ok := s.url[id]
	return u, ok
}

// Get returns the full chunk stored under id.
func (s *Store) Get(id string) (Chunk, bool) {
	t, ok := s.text[id]
	if !ok {
		return Chunk{}, false
	}
	return Chunk{ID: id, Text: t, SourceURL: s.url[id]}, true
}

// Len returns the number of distinct ids stored.
func (s *Store) Len() int {
	return len(s.ids)
}

// IDs returns stored ids in first-insertion order.
func (s *Store) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}
