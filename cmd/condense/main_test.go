package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCommand(name string) *cobra.Command {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func TestRootCmd_Subcommands(t *testing.T) {
	for _, name := range []string{"run", "chunk"} {
		cmd := findCommand(name)
		require.NotNil(t, cmd, "command %q not registered", name)
		assert.NotEmpty(t, cmd.Short)
		assert.NotEmpty(t, cmd.Long)
	}
}

func TestRootCmd_Flags(t *testing.T) {
	for _, name := range []string{"config", "metrics-addr", "log-level"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}

	run := findCommand("run")
	require.NotNil(t, run)
	for _, name := range []string{"strategy", "batch-size", "max-chars", "preview", "report", "output"} {
		assert.NotNil(t, run.Flags().Lookup(name), "run is missing --%s", name)
	}
	assert.Equal(t, "8000", run.Flags().Lookup("max-chars").DefValue)

	chunk := findCommand("chunk")
	require.NotNil(t, chunk)
	assert.NotNil(t, chunk.Flags().Lookup("char-limit"))
}

func TestSetup_InvalidConfig(t *testing.T) {
	t.Setenv("CONDENSE_STRATEGY", "hybrid")

	cmd := &cobra.Command{}
	cmd.SetContext(t.Context())
	err := setup(cmd, nil)
	require.Error(t, err)
	assert.Nil(t, current)
}

func TestExecute_TeardownAfterFailedRun(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"run", filepath.Join(t.TempDir(), "missing.json")})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := execute(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "results file")

	assert.Nil(t, current, "setup state still held after the command failed")
	assert.Empty(t, out.String(), "errors are printed once, by main")
}

func TestTeardown_NoSetup(t *testing.T) {
	current = nil
	assert.NotPanics(t, func() { teardown(t.Context()) })
	assert.Nil(t, current)
}
