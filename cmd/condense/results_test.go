package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/condense/internal/cleaning"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadResults(t *testing.T) {
	path := writeFile(t, "results.json", `{
		"query_text": "what is X",
		"results": [
			{"url": "https://a.example", "content": "<p>Alpha.</p>"},
			{"url": "https://b.example", "snippet": "Beta."}
		]
	}`)

	rf, err := loadResults(path)
	require.NoError(t, err)
	assert.Equal(t, "what is X", rf.QueryText)
	require.Len(t, rf.Results, 2)
	assert.Equal(t, "https://b.example", rf.Results[1].URL)
	assert.Equal(t, "Beta.", rf.Results[1].Snippet)
}

func TestLoadResults_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "empty path", path: func(*testing.T) string { return "" }},
		{name: "missing", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{name: "directory", path: func(t *testing.T) string { return t.TempDir() }},
		{name: "invalid json", path: func(t *testing.T) string { return writeFile(t, "bad.json", "{") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadResults(tt.path(t))
			assert.Error(t, err)
		})
	}
}

func TestCleanResults(t *testing.T) {
	payloads := []cleaning.Payload{
		{URL: "u1", Content: "<p>Hello</p><p>World</p>"},
		{URL: "u2", Content: "   "},
		{URL: "u3", Content: "0123456789"},
	}

	kept, skipped := cleanResults(cleaning.New(), payloads, 4)
	assert.Equal(t, []string{"u2"}, skipped)
	require.Len(t, kept, 2)
	assert.Equal(t, "Hell", kept[0].Text)
	assert.Equal(t, "0123", kept[1].Text)
	assert.Equal(t, 10, kept[1].RawChars)

	results := searchResults(kept)
	assert.Equal(t, "u3", results[1].URL)
}

func TestCleanResults_NoLimit(t *testing.T) {
	kept, _ := cleanResults(cleaning.New(), []cleaning.Payload{{URL: "u", Content: "Long enough text."}}, 0)
	require.Len(t, kept, 1)
	assert.Equal(t, "Long enough text.", kept[0].Text)
}
