package tokenizer

import (
	"strings"
	"unicode"
)

// Simple is a dependency-free splitter that breaks after '.', '!' or '?'
// when followed by whitespace or end of text. It also breaks on blank lines.
type Simple struct{}

// Split returns the sentences of text.
func (Simple) Split(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	runes := []rune(text)

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for i, r := range runes {
		if r == '\n' && i+1 < len(runes) && runes[i+1] == '\n' {
			flush()
			continue
		}
		current.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
			flush()
		}
	}
	flush()

	return sentences
}
