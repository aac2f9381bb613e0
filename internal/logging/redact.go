package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const redacted = "[REDACTED]"

// redactor holds the compiled rules shared by an encoder and its clones.
type redactor struct {
	keys     map[string]struct{}
	patterns []*regexp.Regexp
	maxLen   int
}

func newRedactor(cfg RedactionConfig) (*redactor, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	r := &redactor{keys: make(map[string]struct{}, len(cfg.Fields)), maxLen: cfg.MaxValueLen}
	for _, k := range cfg.Fields {
		r.keys[strings.ToLower(k)] = struct{}{}
	}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

func (r *redactor) sensitive(key string) bool {
	_, ok := r.keys[strings.ToLower(key)]
	return ok
}

// value masks pattern matches and then caps the length.
func (r *redactor) value(s string) string {
	for _, re := range r.patterns {
		s = re.ReplaceAllString(s, redacted)
	}
	if r.maxLen > 0 {
		if runes := []rune(s); len(runes) > r.maxLen {
			s = string(runes[:r.maxLen]) + "...[" + strconv.Itoa(len(runes)) + " runes]"
		}
	}
	return s
}

func (r *redactor) field(f zapcore.Field) zapcore.Field {
	switch {
	case r.sensitive(f.Key):
		return zap.String(f.Key, redacted)
	case f.Type == zapcore.StringType:
		return zap.String(f.Key, r.value(f.String))
	}
	return f
}

// RedactingEncoder masks sensitive keys, secret-shaped values and
// oversized strings before delegating to the wrapped encoder.
type RedactingEncoder struct {
	zapcore.Encoder
	rules *redactor
}

// NewRedactingEncoder wraps base with the rules in cfg. A disabled cfg
// yields a pass-through encoder.
func NewRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig) (*RedactingEncoder, error) {
	rules, err := newRedactor(cfg)
	if err != nil {
		return nil, err
	}
	return &RedactingEncoder{Encoder: base, rules: rules}, nil
}

func (e *RedactingEncoder) AddString(key, val string) {
	if e.rules == nil {
		e.Encoder.AddString(key, val)
		return
	}
	if e.rules.sensitive(key) {
		e.Encoder.AddString(key, redacted)
		return
	}
	e.Encoder.AddString(key, e.rules.value(val))
}

func (e *RedactingEncoder) AddByteString(key string, val []byte) {
	if e.rules != nil && e.rules.sensitive(key) {
		e.Encoder.AddString(key, redacted)
		return
	}
	e.Encoder.AddByteString(key, val)
}

func (e *RedactingEncoder) AddReflected(key string, val any) error {
	if e.rules != nil && e.rules.sensitive(key) {
		e.Encoder.AddString(key, redacted)
		return nil
	}
	return e.Encoder.AddReflected(key, val)
}

// EncodeEntry applies the rules to per-entry fields. Fields bound with
// With reach the Add methods above instead.
func (e *RedactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if e.rules == nil {
		return e.Encoder.EncodeEntry(ent, fields)
	}
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = e.rules.field(f)
	}
	return e.Encoder.EncodeEntry(ent, out)
}

func (e *RedactingEncoder) Clone() zapcore.Encoder {
	return &RedactingEncoder{Encoder: e.Encoder.Clone(), rules: e.rules}
}
