// Package prompts renders the named prompt templates used by the compression
// strategies.
//
// Templates are Go text/templates with the sprig function map. The defaults
// are embedded; a directory of <name>.tmpl files can override any of them.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Template names.
const (
	ChunkFilter    = "chunk_filter"
	FactExtraction = "fact_extraction"
	PageSummary    = "page_summary"
	SummaryMerge   = "summary_merge"
)

const ext = ".tmpl"

// ErrTemplateNotFound is returned when no template is registered under a name.
var ErrTemplateNotFound = errors.New("prompt template not found")

//go:embed templates/*.tmpl
var embedded embed.FS

// Renderer renders a named template with the given fields.
type Renderer interface {
	Render(name string, fields map[string]any) (string, error)
}

// Registry holds parsed templates by name.
type Registry struct {
	templates map[string]*template.Template
}

// NewRegistry parses the embedded templates, then any <name>.tmpl files in
// dir, which replace embedded templates of the same name. An empty dir uses
// the embedded set alone.
func NewRegistry(dir string) (*Registry, error) {
	r := &Registry{templates: make(map[string]*template.Template)}

	if err := r.load(embedded, "templates"); err != nil {
		return nil, err
	}
	if dir == "" {
		return r, nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("prompts dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("prompts dir %s is not a directory", dir)
	}
	if err := r.load(os.DirFS(dir), "."); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return fmt.Errorf("reading templates: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ext {
			continue
		}
		body, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(root, e.Name())))
		if err != nil {
			return fmt.Errorf("reading template %s: %w", e.Name(), err)
		}
		name := strings.TrimSuffix(e.Name(), ext)
		tmpl, err := template.New(name).
			Funcs(sprig.TxtFuncMap()).
			Option("missingkey=error").
			Parse(string(body))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return nil
}

// Names returns the registered template names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.templates))
}

// Require returns ErrTemplateNotFound unless every name is registered.
func (r *Registry) Require(names ...string) error {
	for _, name := range names {
		if _, ok := r.templates[name]; !ok {
			return fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
	}
	return nil
}

// Render executes the named template with fields.
func (r *Registry) Render(name string, fields map[string]any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, fields); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}
