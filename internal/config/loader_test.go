package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "condense.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "chunk_filtering", cfg.Strategy)
	assert.Equal(t, 500, cfg.Chunking.CharLimit)
	assert.Equal(t, 5000, cfg.Summarization.PageCharCap)
	assert.Equal(t, "punkt", cfg.Tokenizer.Kind)
	assert.Equal(t, "openai", cfg.Completion.Provider)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `strategy: fact_centric
chunking:
  char_limit: 300
completion:
  provider: anthropic
  model: claude-3-5-haiku-latest
  api_key: sk-ant-test
  timeout: 30s
`, 0600)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fact_centric", cfg.Strategy)
	assert.Equal(t, 300, cfg.Chunking.CharLimit)
	assert.Equal(t, "anthropic", cfg.Completion.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Completion.Model)
	assert.Equal(t, "sk-ant-test", cfg.Completion.APIKey.Value())
	assert.Equal(t, 30*time.Second, cfg.Completion.Timeout)
	// untouched sections keep their defaults
	assert.Equal(t, 5000, cfg.Summarization.PageCharCap)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "strategy: fact_centric\n", 0600)
	t.Setenv("CONDENSE_STRATEGY", "summarization")
	t.Setenv("CONDENSE_COMPLETION_API_KEY", "sk-from-env")
	t.Setenv("CONDENSE_SUMMARIZATION_PAGE_CHAR_CAP", "1200")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "summarization", cfg.Strategy)
	assert.Equal(t, "sk-from-env", cfg.Completion.APIKey.Value())
	assert.Equal(t, 1200, cfg.Summarization.PageCharCap)
}

func TestLoad_InvalidStrategy(t *testing.T) {
	path := writeConfig(t, "strategy: ranking\n", 0600)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open config")
}

func TestLoad_WorldWritableRejected(t *testing.T) {
	path := writeConfig(t, "strategy: fact_centric\n", 0666)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "world-writable")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"CONDENSE_STRATEGY":                          "strategy",
		"CONDENSE_COMPLETION_API_KEY":                "completion.api_key",
		"CONDENSE_CHUNKING_CHAR_LIMIT":               "chunking.char_limit",
		"CONDENSE_LOGGING_OUTPUT_STREAM":             "logging.output.stream",
		"CONDENSE_LOGGING_LEVEL":                     "logging.level",
		"CONDENSE_TELEMETRY_SERVICE_NAME":            "telemetry.service_name",
		"CONDENSE_TELEMETRY_METRICS_EXPORT_INTERVAL": "telemetry.metrics.export_interval",
		"CONDENSE_TELEMETRY_SAMPLING_RATE":           "telemetry.sampling.rate",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestLoad_NestedEnv(t *testing.T) {
	t.Setenv("CONDENSE_LOGGING_OUTPUT_STREAM", "stdout")
	t.Setenv("CONDENSE_LOGGING_REDACTION_MAX_VALUE_LEN", "64")
	t.Setenv("CONDENSE_TELEMETRY_SHUTDOWN_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "stdout", cfg.Logging.Output.Stream)
	assert.Equal(t, 64, cfg.Logging.Redaction.MaxValueLen)
	assert.Equal(t, 2*time.Second, cfg.Telemetry.Shutdown.Timeout)
}

func TestLoad_Directory(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("sk-live-123")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "sk-live-123", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(struct {
		Key Secret `json:"key"`
	}{Key: s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"[REDACTED]"}`, string(data))
	assert.NotContains(t, fmt.Sprintf("%v %#v", s, s), "sk-live-123")

	assert.Equal(t, "", Secret("").String())
	assert.False(t, Secret("").IsSet())
	assert.False(t, Secret(" \n").IsSet())

	var parsed Secret
	require.NoError(t, parsed.UnmarshalText([]byte("sk-live-123\n")))
	assert.Equal(t, "sk-live-123", parsed.Value())
}

func TestCompletionConfig_Validate(t *testing.T) {
	cfg := Default().Completion
	require.NoError(t, cfg.Validate())

	cfg.Provider = "gemini"
	assert.Error(t, cfg.Validate())

	cfg = Default().Completion
	cfg.RateLimit = 1
	cfg.Burst = 0
	assert.Error(t, cfg.Validate())
}
