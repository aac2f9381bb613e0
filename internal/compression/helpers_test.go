package compression

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/condense/internal/completion"
	"github.com/fyrsmithlabs/condense/internal/logging"
	"github.com/fyrsmithlabs/condense/internal/prompts"
	"github.com/fyrsmithlabs/condense/internal/telemetry"
	"github.com/fyrsmithlabs/condense/internal/tokenizer"
)

type harness struct {
	llm *completion.MockService
	log *logging.TestLogger
	tel *telemetry.TestTelemetry
}

func newHarness(t *testing.T, responses ...string) (*harness, Deps) {
	t.Helper()

	registry, err := prompts.NewRegistry("")
	require.NoError(t, err)

	h := &harness{
		llm: completion.NewMockService(responses...),
		log: logging.NewTestLogger(),
		tel: telemetry.NewTestTelemetry(),
	}
	return h, Deps{
		Completion: h.llm,
		Prompts:    registry,
		Splitter:   tokenizer.Simple{},
		Logger:     h.log.Logger,
		Telemetry:  h.tel.Telemetry,
	}
}
