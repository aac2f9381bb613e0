package logging

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug. Full prompts and raw completion
// responses are logged at it.
const TraceLevel = zapcore.Level(-2)

// LevelFromString parses a level name. It accepts "trace" on top of
// zap's own names and ignores case and surrounding space.
func LevelFromString(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "trace" {
		return TraceLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

func encodeLevel(lvl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if lvl == TraceLevel {
		enc.AppendString("trace")
		return
	}
	zapcore.LowercaseLevelEncoder(lvl, enc)
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = encodeLevel
	if format == "console" {
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func streamSink(name string) zapcore.WriteSyncer {
	switch name {
	case StreamStdout:
		return zapcore.Lock(os.Stdout)
	case StreamStderr:
		return zapcore.Lock(os.Stderr)
	}
	return nil
}

// newCore builds the stream core and the otelzap bridge. Redaction and
// sampling apply to the stream only; the OTEL side exports every entry
// at or above the configured level.
func newCore(cfg *Config, provider log.LoggerProvider) (zapcore.Core, error) {
	var cores []zapcore.Core

	if sink := streamSink(cfg.Output.Stream); sink != nil {
		enc, err := NewRedactingEncoder(newEncoder(cfg.Format), cfg.Redaction)
		if err != nil {
			return nil, err
		}
		cores = append(cores, withSampling(zapcore.NewCore(enc, sink, cfg.Level), cfg.Sampling))
	}

	if cfg.Output.OTEL && provider != nil {
		bridge := otelzap.NewCore("condense", otelzap.WithLoggerProvider(provider))
		cores = append(cores, &levelCore{Core: bridge, enabler: cfg.Level})
	}

	switch len(cores) {
	case 0:
		return nil, errors.New("at least one output must be enabled and available")
	case 1:
		return cores[0], nil
	}
	return zapcore.NewTee(cores...), nil
}

// withSampling samples entries below Error. Errors always pass.
func withSampling(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}
	errs := &levelCore{Core: core, enabler: zapcore.ErrorLevel}
	rest := &levelCore{Core: core, enabler: zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l < zapcore.ErrorLevel
	})}
	return zapcore.NewTee(errs, zapcore.NewSamplerWithOptions(rest, cfg.Tick, cfg.Initial, cfg.Thereafter))
}

// levelCore narrows a core to the levels its enabler admits.
type levelCore struct {
	zapcore.Core
	enabler zapcore.LevelEnabler
}

func (c *levelCore) Enabled(lvl zapcore.Level) bool {
	return c.enabler.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *levelCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.enabler.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *levelCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelCore{Core: c.Core.With(fields), enabler: c.enabler}
}
