package config

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks the environment variables Load reads.
const EnvPrefix = "CONDENSE_"

const maxFileSize = 1 << 20

// subsections lists the nested blocks reachable from the environment,
// keyed by top-level section.
var subsections = map[string][]string{
	"logging":   {"output", "sampling", "caller", "redaction"},
	"telemetry": {"sampling", "metrics", "shutdown"},
}

// Load layers the YAML file at path (skipped when empty) and then the
// CONDENSE_* environment over Default, and validates the result.
//
//	CONDENSE_STRATEGY                    -> strategy
//	CONDENSE_COMPLETION_API_KEY          -> completion.api_key
//	CONDENSE_LOGGING_OUTPUT_STREAM       -> logging.output.stream
//	CONDENSE_TELEMETRY_METRICS_ENABLED   -> telemetry.metrics.enabled
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		raw, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(raw), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envKey maps CONDENSE_SECTION_[SUB_]FIELD to section.[sub.]field. The
// field keeps its underscores.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	for _, sub := range subsections[section] {
		if field, ok := strings.CutPrefix(rest, sub+"_"); ok {
			return section + "." + sub + "." + field
		}
	}
	return section + "." + rest
}

// readFile stats and reads through one descriptor so the checks apply to
// the bytes actually loaded. The file may hold an API key, so
// world-writable files are refused.
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}
	switch {
	case info.IsDir():
		return nil, fmt.Errorf("config path %s is a directory", path)
	case runtime.GOOS != "windows" && info.Mode().Perm()&0o002 != 0:
		return nil, fmt.Errorf("config %s is world-writable (%v)", path, info.Mode().Perm())
	case info.Size() > maxFileSize:
		return nil, fmt.Errorf("config %s is %d bytes, limit %d", path, info.Size(), maxFileSize)
	}

	raw, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return raw, nil
}
