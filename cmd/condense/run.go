package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/condense/internal/chunkstore"
	"github.com/fyrsmithlabs/condense/internal/cleaning"
	"github.com/fyrsmithlabs/condense/internal/compression"
	"github.com/fyrsmithlabs/condense/internal/logging"
	"github.com/fyrsmithlabs/condense/internal/tokenizer"
)

// defaultMaxPageChars matches the truncation applied to cleaned pages before
// they reach a strategy.
const defaultMaxPageChars = 8000

var (
	runStrategy   string
	runBatchSize  int
	runMaxChars   int
	runPreview    int
	runReportIDs  []string
	runOutputPath string
)

func init() {
	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy to run (chunk_filtering, fact_centric, summarization); overrides config")
	runCmd.Flags().IntVar(&runBatchSize, "batch-size", 0, "results per Process call (0 sends all results in one batch)")
	runCmd.Flags().IntVar(&runMaxChars, "max-chars", defaultMaxPageChars, "truncate each cleaned page to this many characters")
	runCmd.Flags().IntVar(&runPreview, "preview", 500, "characters of each context to print (0 prints everything)")
	runCmd.Flags().StringSliceVar(&runReportIDs, "report", nil, "fact ids to reconstruct the report context from (default: all)")
	runCmd.Flags().StringVarP(&runOutputPath, "output", "o", "", "write the full contexts to this file")
}

var runCmd = &cobra.Command{
	Use:   "run <results.json>",
	Short: "Run a compression strategy over cached search results",
	Long: `Run loads a cached search response, cleans every result, truncates each page and
feeds the pages to the configured strategy. It prints the knowledge base size and the
checklist and report contexts with their token counts.

The results file looks like:

  {"query_text": "...", "results": [{"url": "...", "content": "..."}]}

Examples:
  # Chunk filtering with the configured provider
  condense run cache/results.json

  # Fact-centric, five results per batch, report context from two facts
  condense run -s fact_centric --batch-size 5 --report fact_0,fact_3 cache/results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	a := current
	ctx := logging.WithQueryID(cmd.Context(), uuid.NewString())
	log := logging.FromContext(ctx)

	rf, err := loadResults(args[0])
	if err != nil {
		return err
	}

	if runStrategy != "" {
		a.cfg.Strategy = runStrategy
	}
	strategy, err := compression.NewFromConfig(a.cfg, a.logger, a.telemetry)
	if err != nil {
		return err
	}

	var count func(string) int
	counter, err := tokenizer.NewTokenCounter(a.cfg.Tokenizer.Encoding)
	if err != nil {
		log.Warn(ctx, "token counting disabled", zap.Error(err))
	} else {
		count = counter.Count
	}

	kept, skipped := cleanResults(cleaning.New(), rf.Results, runMaxChars)
	for _, r := range kept {
		log.Debug(ctx, "cleaned result",
			zap.String("url", r.URL),
			zap.Int("raw_chars", r.RawChars),
			zap.Int("clean_chars", len([]rune(r.Text))))
	}
	for _, url := range skipped {
		log.Info(ctx, "result empty after cleaning", zap.String("url", url))
	}

	reports, err := processBatches(ctx, strategy, rf.QueryText, searchResults(kept), runBatchSize)
	if err != nil {
		return err
	}

	var relevant []string
	if len(runReportIDs) > 0 {
		relevant = runReportIDs
	}
	sum := summarize(strategy, rf.QueryText, len(kept), len(skipped), reports, relevant, count)

	out := cmd.OutOrStdout()
	writeSummary(out, sum, runPreview)

	if runOutputPath != "" {
		f, err := os.Create(runOutputPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		writeSummary(f, sum, 0)
		writeChunks(f, strategy.Store())
		fmt.Fprintf(out, "\nfull result written to %s\n", runOutputPath)
	}
	return nil
}

// processBatches feeds results to s in batches of batchSize (all at once when
// batchSize <= 0) and stops at the first error.
func processBatches(ctx context.Context, s compression.Strategy, query string, results []compression.SearchResult, batchSize int) ([]*compression.BatchReport, error) {
	if batchSize <= 0 || batchSize > len(results) {
		batchSize = len(results)
	}
	if batchSize == 0 {
		report, err := s.Process(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		return []*compression.BatchReport{report}, nil
	}

	log := logging.FromContext(ctx)
	var reports []*compression.BatchReport
	for start := 0; start < len(results); start += batchSize {
		end := min(start+batchSize, len(results))
		report, err := s.Process(ctx, query, results[start:end])
		if err != nil {
			return reports, fmt.Errorf("batch %d: %w", len(reports)+1, err)
		}
		reports = append(reports, report)
		log.Debug(ctx, "batch done",
			zap.Int("batch", len(reports)),
			zap.Int("results.done", end),
			zap.Int("results.total", len(results)),
			zap.String("outcome", string(report.Outcome)))
	}
	return reports, nil
}

// runSummary is what the run command reports.
type runSummary struct {
	Query         string
	Strategy      compression.Kind
	Cleaned       int
	Skipped       int
	ChunksStored  int
	KBItems       int
	Outcomes      map[compression.Outcome]int
	Checklist     string
	Report        string
	ChecklistToks int // -1 when token counting is unavailable
	ReportToks    int
}

func summarize(s compression.Strategy, query string, cleaned, skipped int, reports []*compression.BatchReport, relevant []string, count func(string) int) runSummary {
	sum := runSummary{
		Query:         query,
		Strategy:      s.Kind(),
		Cleaned:       cleaned,
		Skipped:       skipped,
		ChunksStored:  s.Store().Len(),
		KBItems:       s.KnowledgeBase().Len(),
		Outcomes:      make(map[compression.Outcome]int),
		Checklist:     s.ChecklistContext().String(),
		Report:        s.ReconstructReportContext(relevant),
		ChecklistToks: -1,
		ReportToks:    -1,
	}
	for _, r := range reports {
		sum.Outcomes[r.Outcome]++
	}
	if count != nil {
		sum.ChecklistToks = count(sum.Checklist)
		sum.ReportToks = count(sum.Report)
	}
	return sum
}

func writeSummary(w io.Writer, sum runSummary, preview int) {
	fmt.Fprintf(w, "Query: %s\n", sum.Query)
	fmt.Fprintf(w, "Strategy: %s\n", sum.Strategy)
	fmt.Fprintf(w, "Results: %d cleaned, %d skipped\n", sum.Cleaned, sum.Skipped)
	fmt.Fprintf(w, "Chunks stored: %d\n", sum.ChunksStored)
	fmt.Fprintf(w, "Knowledge base items: %d\n", sum.KBItems)
	fmt.Fprintf(w, "Batches: contributed %d, empty %d, malformed %d\n",
		sum.Outcomes[compression.OutcomeContributed],
		sum.Outcomes[compression.OutcomeEmpty],
		sum.Outcomes[compression.OutcomeMalformed])

	writeContext(w, "checklist context", sum.Checklist, sum.ChecklistToks, preview)
	writeContext(w, "report context", sum.Report, sum.ReportToks, preview)
}

func writeContext(w io.Writer, title, text string, tokens, preview int) {
	size := fmt.Sprintf("%d chars", len([]rune(text)))
	if tokens >= 0 {
		size += fmt.Sprintf(", %d tokens", tokens)
	}
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s (%s)\n%s\n", title, size, rule)
	if preview > 0 {
		text = truncate(text, preview)
	}
	fmt.Fprintln(w, text)
	fmt.Fprintln(w, rule)
}

// writeChunks lists every stored chunk with its source, in insertion order.
func writeChunks(w io.Writer, store *chunkstore.Store) {
	fmt.Fprintf(w, "\nstored chunks (%d)\n", store.Len())
	for _, id := range store.IDs() {
		c, ok := store.Get(id)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n[%s] %s\n%s\n", c.ID, c.SourceURL, c.Text)
	}
}
