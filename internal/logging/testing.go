package logging

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger is a Logger that records every entry, Trace included.
type TestLogger struct {
	*Logger
	logs *observer.ObservedLogs
}

// NewTestLogger returns a recording logger.
func NewTestLogger() *TestLogger {
	core, logs := observer.New(TraceLevel)
	return &TestLogger{Logger: &Logger{zap: zap.New(core)}, logs: logs}
}

// All returns the recorded entries in order.
func (t *TestLogger) All() []observer.LoggedEntry {
	return t.logs.All()
}

// Reset drops the recorded entries.
func (t *TestLogger) Reset() {
	t.logs.TakeAll()
}

// Count returns how many entries at lvl mention msg.
func (t *TestLogger) Count(lvl zapcore.Level, msg string) int {
	return len(t.matching(&lvl, msg))
}

func (t *TestLogger) matching(lvl *zapcore.Level, msg string) []observer.LoggedEntry {
	var out []observer.LoggedEntry
	for _, e := range t.logs.All() {
		if lvl != nil && e.Level != *lvl {
			continue
		}
		if strings.Contains(e.Message, msg) {
			out = append(out, e)
		}
	}
	return out
}

// AssertLogged fails tb unless an entry at lvl mentions msg.
func (t *TestLogger) AssertLogged(tb testing.TB, lvl zapcore.Level, msg string) {
	tb.Helper()
	if len(t.matching(&lvl, msg)) == 0 {
		tb.Errorf("no %s entry containing %q; got %d entries", lvl, msg, t.logs.Len())
	}
}

// AssertNotLogged fails tb if an entry at lvl mentions msg.
func (t *TestLogger) AssertNotLogged(tb testing.TB, lvl zapcore.Level, msg string) {
	tb.Helper()
	if n := len(t.matching(&lvl, msg)); n > 0 {
		tb.Errorf("found %d %s entries containing %q", n, lvl, msg)
	}
}

// AssertField fails tb unless an entry mentioning msg carries key=want.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, want any) {
	tb.Helper()
	for _, e := range t.matching(nil, msg) {
		if got, ok := e.ContextMap()[key]; ok && reflect.DeepEqual(got, want) {
			return
		}
	}
	tb.Errorf("no entry containing %q with %s=%v", msg, key, want)
}
