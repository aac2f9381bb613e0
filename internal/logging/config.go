package logging

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap/zapcore"
)

// Stream names accepted by OutputConfig.Stream.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
	StreamNone   = "none"
)

// Config holds logging configuration.
type Config struct {
	Level     zapcore.Level     `koanf:"level"`
	Format    string            `koanf:"format"`
	Output    OutputConfig      `koanf:"output"`
	Sampling  SamplingConfig    `koanf:"sampling"`
	Caller    CallerConfig      `koanf:"caller"`
	Fields    map[string]string `koanf:"fields"`
	Redaction RedactionConfig   `koanf:"redaction"`
}

// OutputConfig selects the log sinks. Stream defaults to stderr so that
// command output on stdout stays machine readable.
type OutputConfig struct {
	Stream string `koanf:"stream"`
	OTEL   bool   `koanf:"otel"`
}

// SamplingConfig thins out repeated entries below Error.
type SamplingConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Tick       time.Duration `koanf:"tick"`
	Initial    int           `koanf:"initial"`
	Thereafter int           `koanf:"thereafter"`
}

// CallerConfig controls caller annotation. Skip counts frames on top of
// the Logger's own methods.
type CallerConfig struct {
	Enabled bool `koanf:"enabled"`
	Skip    int  `koanf:"skip"`
}

// RedactionConfig controls what the stream encoder masks.
//
// MaxValueLen caps string values in runes. Prompts and page text can run
// to tens of kilobytes; 0 disables the cap.
type RedactionConfig struct {
	Enabled     bool     `koanf:"enabled"`
	Fields      []string `koanf:"fields"`
	Patterns    []string `koanf:"patterns"`
	MaxValueLen int      `koanf:"max_value_len"`
}

// NewDefaultConfig returns the configuration used when nothing is set.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
		Output: OutputConfig{Stream: StreamStderr},
		Sampling: SamplingConfig{
			Enabled:    true,
			Tick:       time.Second,
			Initial:    100,
			Thereafter: 10,
		},
		Caller: CallerConfig{Enabled: true},
		Fields: map[string]string{"service": "condense"},
		Redaction: RedactionConfig{
			Enabled:     true,
			Fields:      []string{"api_key", "authorization", "x-api-key", "token", "secret", "password"},
			Patterns:    []string{`(?i)bearer\s+\S+`, `sk-[a-zA-Z0-9_-]{20,}`},
			MaxValueLen: 2000,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}

	switch c.Output.Stream {
	case StreamStdout, StreamStderr, StreamNone:
	default:
		return fmt.Errorf("output stream must be stdout, stderr or none, got %q", c.Output.Stream)
	}
	if c.Output.Stream == StreamNone && !c.Output.OTEL {
		return errors.New("at least one output must be enabled (stream or otel)")
	}

	if c.Sampling.Enabled && c.Sampling.Tick <= 0 {
		return errors.New("sampling tick must be > 0 when sampling enabled")
	}
	if c.Caller.Skip < 0 {
		return fmt.Errorf("caller skip must be >= 0, got %d", c.Caller.Skip)
	}

	if c.Redaction.MaxValueLen < 0 {
		return fmt.Errorf("redaction max_value_len must be >= 0, got %d", c.Redaction.MaxValueLen)
	}
	for _, p := range c.Redaction.Patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
	}

	for k, v := range c.Fields {
		if k == "" {
			return errors.New("field key cannot be empty")
		}
		if v == "" {
			return fmt.Errorf("field %q has empty value", k)
		}
	}
	return nil
}
