package tokenizer

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Punkt splits sentences with the pre-trained English punkt model.
type Punkt struct {
	tok *sentences.DefaultSentenceTokenizer
}

// NewPunkt loads the embedded English training data.
func NewPunkt() (*Punkt, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: loading punkt model: %v", ErrUnavailable, err)
	}
	return &Punkt{tok: tok}, nil
}

// Split returns the trimmed, non-empty sentences of text.
func (p *Punkt) Split(text string) []string {
	sents := p.tok.Tokenize(text)
	out := make([]string, 0, len(sents))
	for _, s := range sents {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}
