package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kompre/gs-batch/pkg/gsbatch"
)

// executeCommand runs the command with args and captures its output streams.
func executeCommand(root *cobra.Command, args ...string) (stdout, stderr string, err error) {
	stdoutBuf := new(bytes.Buffer)
	stderrBuf := new(bytes.Buffer)
	root.SetOut(stdoutBuf)
	root.SetErr(stderrBuf)
	root.SetArgs(args)

	// The tests share a single command instance, so clear flag state left
	// over from a previous Execute (e.g. --help) before running again.
	for _, name := range []string{"help", "version"} {
		if f := root.Flags().Lookup(name); f != nil {
			_ = f.Value.Set("false")
			f.Changed = false
		}
	}

	err = root.Execute()
	return stdoutBuf.String(), stderrBuf.String(), err
}

func TestRootCmdHelp(t *testing.T) {
	stdout, _, err := executeCommand(rootCmd, "--help")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "gs-batch [flags] <file|dir>...")
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		assert.Contains(t, stdout, "--"+f.Name, "help output should list --%s", f.Name)
	})
}

func TestRootCmdVersion(t *testing.T) {
	stdout, _, err := executeCommand(rootCmd, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "gs-batch")
	assert.Contains(t, stdout, "version")
}

func TestRootCmdRequiresArguments(t *testing.T) {
	_, _, err := executeCommand(rootCmd)
	assert.Error(t, err, "at least one file or directory argument is required")
}

func TestRootCmdFlagShorthands(t *testing.T) {
	shorthands := map[string]string{
		"compress":    "c",
		"options":     "o",
		"prefix":      "p",
		"suffix":      "s",
		"force":       "f",
		"recursive":   "r",
		"concurrency": "j",
	}
	for name, short := range shorthands {
		f := rootCmd.Flags().Lookup(name)
		require.NotNil(t, f, "flag --%s must exist", name)
		assert.Equal(t, short, f.Shorthand, "flag --%s", name)
	}
}

func TestRootCmdBareValueFlagDefaults(t *testing.T) {
	assert.Equal(t, "ebook", rootCmd.Flags().Lookup("compress").NoOptDefVal,
		"--compress without a value selects the ebook profile")
	assert.Equal(t, "2", rootCmd.Flags().Lookup("pdfa").NoOptDefVal,
		"--pdfa without a value selects version 2")
}

func TestRootCmdRejectsInvalidPolicy(t *testing.T) {
	_, _, err := executeCommand(rootCmd, "--on-error=bogus", "some.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, gsbatch.ErrConfigValidation)
}
