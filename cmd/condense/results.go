package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/condense/internal/cleaning"
	"github.com/fyrsmithlabs/condense/internal/compression"
)

// maxResultsFileSize bounds the cached results file read by the harness.
const maxResultsFileSize = 64 << 20

// ResultsFile is a cached search response.
type ResultsFile struct {
	QueryText string             `json:"query_text"`
	Results   []cleaning.Payload `json:"results"`
}

// loadResults reads and decodes a cached results file.
func loadResults(path string) (*ResultsFile, error) {
	if path == "" {
		return nil, fmt.Errorf("results file path is required")
	}
	clean := filepath.Clean(path)

	info, err := os.Stat(clean)
	if err != nil {
		return nil, fmt.Errorf("results file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("results file %s is a directory", clean)
	}
	if info.Size() > maxResultsFileSize {
		return nil, fmt.Errorf("results file %s too large: %d bytes (max %d)", clean, info.Size(), maxResultsFileSize)
	}

	data, err := os.ReadFile(clean) // #nosec G304 -- path supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("reading results file %s: %w", clean, err)
	}

	var rf ResultsFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("decoding results file %s: %w", clean, err)
	}
	return &rf, nil
}

// cleanedResult pairs a cleaned page with its size before cleaning.
type cleanedResult struct {
	compression.SearchResult
	RawChars int
}

// cleanResults normalizes each payload and truncates it to maxChars runes.
// Payloads that clean to nothing are returned in skipped.
func cleanResults(n cleaning.Normalizer, payloads []cleaning.Payload, maxChars int) (kept []cleanedResult, skipped []string) {
	for _, p := range payloads {
		text := n.Clean(p)
		if text == "" {
			skipped = append(skipped, p.URL)
			continue
		}
		if maxChars > 0 {
			text = truncate(text, maxChars)
		}
		kept = append(kept, cleanedResult{
			SearchResult: compression.SearchResult{URL: p.URL, Text: text},
			RawChars:     len([]rune(p.Content)),
		})
	}
	return kept, skipped
}

func searchResults(in []cleanedResult) []compression.SearchResult {
	out := make([]compression.SearchResult, len(in))
	for i, r := range in {
		out[i] = r.SearchResult
	}
	return out
}

func truncate(s string, n int) string {
	count := 0
	for pos := range s {
		if count == n {
			return s[:pos]
		}
		count++
	}
	return s
}
