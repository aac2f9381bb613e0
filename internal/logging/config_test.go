package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad format", mutate: func(c *Config) { c.Format = "xml" }, wantErr: "format"},
		{name: "stdout stream", mutate: func(c *Config) { c.Output.Stream = StreamStdout }},
		{name: "otel only", mutate: func(c *Config) { c.Output.Stream = StreamNone; c.Output.OTEL = true }},
		{name: "bad stream", mutate: func(c *Config) { c.Output.Stream = "file" }, wantErr: "output stream"},
		{name: "no outputs", mutate: func(c *Config) { c.Output.Stream = StreamNone }, wantErr: "at least one output"},
		{name: "zero tick", mutate: func(c *Config) { c.Sampling.Tick = 0 }, wantErr: "sampling tick"},
		{name: "negative skip", mutate: func(c *Config) { c.Caller.Skip = -1 }, wantErr: "caller skip"},
		{name: "sampling off ignores tick", mutate: func(c *Config) { c.Sampling.Enabled = false; c.Sampling.Tick = 0 }},
		{name: "negative max value len", mutate: func(c *Config) { c.Redaction.MaxValueLen = -1 }, wantErr: "max_value_len"},
		{name: "bad pattern", mutate: func(c *Config) { c.Redaction.Patterns = []string{"["} }, wantErr: "invalid redaction pattern"},
		{name: "empty field value", mutate: func(c *Config) { c.Fields["env"] = "" }, wantErr: "empty value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
