package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/condense/internal/chunking"
	"github.com/fyrsmithlabs/condense/internal/cleaning"
	"github.com/fyrsmithlabs/condense/internal/compression"
	"github.com/fyrsmithlabs/condense/internal/logging"
	"github.com/fyrsmithlabs/condense/internal/tokenizer"
)

var (
	chunkCharLimit  int
	chunkOutputPath string
)

func init() {
	chunkCmd.Flags().IntVar(&chunkCharLimit, "char-limit", 0, "chunk size limit in characters (default: chunking.char_limit)")
	chunkCmd.Flags().StringVarP(&chunkOutputPath, "output", "o", "", "write per-document chunks and timings as JSON to this file")
}

var chunkCmd = &cobra.Command{
	Use:   "chunk <results.json>",
	Short: "Compare newline and sentence chunking on cached search results",
	Long: `Chunk cleans every result in a cached search response and chunks it twice: once
splitting on newlines and once with the configured sentence tokenizer. Both methods pack
segments up to the same character limit. It prints chunk counts and average timings.

Examples:
  condense chunk cache/results.json
  condense chunk --char-limit 800 -o cache/chunking.json cache/results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

// methodResult is one chunking method applied to one document.
type methodResult struct {
	Duration   time.Duration `json:"duration_ns"`
	ChunkCount int           `json:"chunk_count"`
	Chunks     []string      `json:"chunks"`
}

// chunkComparison is both methods applied to one document.
type chunkComparison struct {
	URL        string       `json:"url"`
	TextLength int          `json:"text_length"`
	Newline    methodResult `json:"newline"`
	Sentence   methodResult `json:"sentence"`
}

// chunkStats aggregates comparisons.
type chunkStats struct {
	Documents      int           `json:"documents"`
	Skipped        int           `json:"skipped"`
	NewlineChunks  int           `json:"newline_chunks"`
	SentenceChunks int           `json:"sentence_chunks"`
	NewlineTime    time.Duration `json:"newline_time_ns"`
	SentenceTime   time.Duration `json:"sentence_time_ns"`
}

func runChunk(cmd *cobra.Command, args []string) error {
	a := current

	rf, err := loadResults(args[0])
	if err != nil {
		return err
	}

	limit := a.cfg.Chunking.CharLimit
	if chunkCharLimit > 0 {
		limit = chunkCharLimit
	}

	splitter, err := tokenizer.New(a.cfg.Tokenizer.Kind)
	if err != nil {
		return fmt.Errorf("%w: %w", compression.ErrConfig, err)
	}
	byNewline, err := chunking.New(tokenizer.ByNewline{}, chunking.WithCharLimit(limit))
	if err != nil {
		return err
	}
	bySentence, err := chunking.New(splitter, chunking.WithCharLimit(limit))
	if err != nil {
		return err
	}

	stats, details := compareChunking(cleaning.New(), rf.Results, byNewline, bySentence)
	logging.FromContext(cmd.Context()).Info(cmd.Context(), "chunking compared",
		zap.Int("documents", stats.Documents),
		zap.Int("skipped", stats.Skipped),
		zap.Int("char_limit", bySentence.Limit()))

	writeChunkStats(cmd.OutOrStdout(), stats, bySentence.Limit())

	if chunkOutputPath != "" {
		data, err := json.MarshalIndent(struct {
			Stats     chunkStats        `json:"stats"`
			CharLimit int               `json:"char_limit"`
			Details   []chunkComparison `json:"details"`
		}{stats, bySentence.Limit(), details}, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding chunking results: %w", err)
		}
		if err := os.WriteFile(chunkOutputPath, data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", chunkOutputPath, err)
		}
	}
	return nil
}

func compareChunking(n cleaning.Normalizer, payloads []cleaning.Payload, byNewline, bySentence *chunking.Chunker) (chunkStats, []chunkComparison) {
	var stats chunkStats
	var details []chunkComparison
	for _, p := range payloads {
		text := n.Clean(p)
		if text == "" {
			stats.Skipped++
			continue
		}
		cmp := chunkComparison{
			URL:        p.URL,
			TextLength: len([]rune(text)),
			Newline:    timeChunker(byNewline, text),
			Sentence:   timeChunker(bySentence, text),
		}
		stats.Documents++
		stats.NewlineChunks += cmp.Newline.ChunkCount
		stats.SentenceChunks += cmp.Sentence.ChunkCount
		stats.NewlineTime += cmp.Newline.Duration
		stats.SentenceTime += cmp.Sentence.Duration
		details = append(details, cmp)
	}
	return stats, details
}

func timeChunker(c *chunking.Chunker, text string) methodResult {
	start := time.Now()
	chunks := c.Chunk(text)
	return methodResult{Duration: time.Since(start), ChunkCount: len(chunks), Chunks: chunks}
}

func writeChunkStats(w io.Writer, stats chunkStats, limit int) {
	fmt.Fprintf(w, "Documents: %d (skipped %d), char limit %d\n\n", stats.Documents, stats.Skipped, limit)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tCHUNKS\tAVG CHUNKS/DOC\tAVG TIME/DOC")
	fmt.Fprintf(tw, "newline\t%d\t%.2f\t%s\n", stats.NewlineChunks, perDoc(stats.NewlineChunks, stats.Documents), avgDuration(stats.NewlineTime, stats.Documents))
	fmt.Fprintf(tw, "sentence\t%d\t%.2f\t%s\n", stats.SentenceChunks, perDoc(stats.SentenceChunks, stats.Documents), avgDuration(stats.SentenceTime, stats.Documents))
	_ = tw.Flush()
}

func perDoc(total, docs int) float64 {
	if docs == 0 {
		return 0
	}
	return float64(total) / float64(docs)
}

func avgDuration(total time.Duration, docs int) time.Duration {
	if docs == 0 {
		return 0
	}
	return total / time.Duration(docs)
}
