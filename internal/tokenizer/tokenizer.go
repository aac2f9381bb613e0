// Package tokenizer splits text into sentences and counts model tokens.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"
)

// Splitter kinds accepted by New.
const (
	KindPunkt   = "punkt"
	KindSimple  = "simple"
	KindNewline = "newline"
)

// ErrUnavailable is returned when a splitter cannot be constructed.
var ErrUnavailable = errors.New("sentence tokenizer unavailable")

// SentenceSplitter splits text into sentence-like units in document order.
type SentenceSplitter interface {
	Split(text string) []string
}

// New returns the splitter registered under kind.
func New(kind string) (SentenceSplitter, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindPunkt, "":
		return NewPunkt()
	case KindSimple:
		return Simple{}, nil
	case KindNewline:
		return ByNewline{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrUnavailable, kind)
	}
}

// ByNewline treats every line as a segment.
type ByNewline struct{}

// Split returns the lines of text.
func (ByNewline) Split(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
