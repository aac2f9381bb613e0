// Package main implements the condense CLI: an experiment harness that runs
// the compression strategies over cached search results.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/condense/internal/compression"
	"github.com/fyrsmithlabs/condense/internal/config"
	"github.com/fyrsmithlabs/condense/internal/logging"
	"github.com/fyrsmithlabs/condense/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
)

var (
	configPath  string
	metricsAddr string
	logLevel    string
)

// app holds what PersistentPreRunE sets up for the subcommands.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	metrics   *http.Server
}

var current *app

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx)
	stop()

	if err != nil {
		if errors.Is(err, compression.ErrConfig) {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// execute runs the root command, then releases whatever setup started
// whether or not the command succeeded.
func execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	teardown(ctx)
	return err
}

var rootCmd = &cobra.Command{
	Use:   "condense",
	Short: "Compress retrieved web text into query-relevant context",
	Long: `condense runs the context compression strategies (chunk filtering, fact-centric,
summarization) over cached search results and reports what each keeps.

Configuration is read from an optional YAML file and CONDENSE_* environment variables,
for example CONDENSE_COMPLETION_API_KEY or CONDENSE_STRATEGY.`,
	Version:           fmt.Sprintf("%s (%s)", version, gitCommit),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9091)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(chunkCmd)
}

// setup loads configuration and starts logging, telemetry and the metrics
// endpoint.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("%w: %w", compression.ErrConfig, err)
	}
	if logLevel != "" {
		level, err := logging.LevelFromString(logLevel)
		if err != nil {
			return fmt.Errorf("%w: %w", compression.ErrConfig, err)
		}
		cfg.Logging.Level = level
	}

	tel, err := telemetry.New(cmd.Context(), &cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging, tel.LoggerProvider())
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return fmt.Errorf("%w: initializing logger: %w", compression.ErrConfig, err)
	}

	if err := tel.Err(); err != nil {
		logger.Warn(cmd.Context(), "telemetry export degraded", zap.Error(err))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.WithLogger(ctx, logger))

	a := &app{cfg: cfg, logger: logger, telemetry: tel}
	if metricsAddr != "" {
		a.metrics = serveMetrics(cmd.Context(), metricsAddr, logger)
	}
	current = a

	logger.Debug(cmd.Context(), "condense starting",
		zap.String("version", version),
		zap.String("strategy", cfg.Strategy),
		zap.String("provider", cfg.Completion.Provider),
		zap.Bool("telemetry", tel.Enabled()))
	return nil
}

// teardown stops the metrics endpoint, flushes telemetry and syncs the
// logger. It is a no-op when setup did not complete.
func teardown(ctx context.Context) {
	a := current
	if a == nil {
		return
	}
	current = nil

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Telemetry.Shutdown.Timeout)
	defer cancel()

	if a.metrics != nil {
		_ = a.metrics.Shutdown(shutdownCtx)
	}
	if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func serveMetrics(ctx context.Context, addr string, logger *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info(ctx, "serving metrics", zap.String("addr", addr), zap.String("path", "/metrics"))
	return srv
}
