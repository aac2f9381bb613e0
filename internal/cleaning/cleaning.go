// Package cleaning normalizes raw search-result text before compression.
//
// A page goes through Unicode NFC normalization, HTML stripping that keeps
// paragraph breaks, markdown-to-text conversion (links and images keep their
// text), bare URL removal and whitespace collapsing. The result is a single
// line of plain text.
package cleaning

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/text/unicode/norm"
)

// Payload is one search result as returned by the search tool.
type Payload struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Snippet string `json:"snippet,omitempty"`
}

// Normalizer turns a payload into clean text.
type Normalizer interface {
	Clean(Payload) string
}

var (
	// blockTags end a paragraph; they are replaced with a newline before
	// tags are stripped so words on either side do not run together.
	blockTags = regexp.MustCompile(`(?i)<\s*(?:br|/?p|/?div|/?li|/?ul|/?ol|/?tr|/?h[1-6]|/?section|/?article|/?blockquote|/?pre|/?table)\b[^>]*>`)

	urlPattern        = regexp.MustCompile(`https?://\S+`)
	separatorRun      = regexp.MustCompile(`[|×╳✕✖⨯※]{2,}`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Cleaner is the default Normalizer.
type Cleaner struct {
	policy   *bluemonday.Policy
	markdown goldmark.Markdown
}

// New creates a Cleaner.
func New() *Cleaner {
	return &Cleaner{
		policy:   bluemonday.StrictPolicy(),
		markdown: goldmark.New(),
	}
}

// Clean returns the cleaned content of p, falling back to its snippet when
// the content is empty. A payload with neither yields "".
func (c *Cleaner) Clean(p Payload) string {
	candidate := p.Content
	if strings.TrimSpace(candidate) == "" {
		candidate = p.Snippet
	}
	return c.CleanText(candidate)
}

// CleanText runs the normalization pipeline on raw text.
func (c *Cleaner) CleanText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := strings.ToValidUTF8(raw, "")
	text = norm.NFC.String(text)
	text = c.stripHTML(text)
	text = c.markdownToText(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = separatorRun.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// stripHTML removes tags, script and style bodies, and decodes entities.
func (c *Cleaner) stripHTML(s string) string {
	if !strings.Contains(s, "<") && !strings.Contains(s, "&") {
		return s
	}
	s = blockTags.ReplaceAllString(s, "\n")
	s = c.policy.Sanitize(s)
	// Sanitize escapes the text it keeps.
	return html.UnescapeString(s)
}

// markdownToText renders the text content of a markdown document. Link and
// image nodes contribute their label, autolinks and raw HTML are dropped and
// blocks are separated by newlines.
func (c *Cleaner) markdownToText(s string) string {
	source := []byte(s)
	doc := c.markdown.Parser().Parse(gmtext.NewReader(source))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
				buf.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink, *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

var _ Normalizer = (*Cleaner)(nil)
