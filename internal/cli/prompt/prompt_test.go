package prompt

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kompre/gs-batch/pkg/gsbatch"
)

func TestTerminalPrompterConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{"yes", "y\n", false, true},
		{"yes word", "yes\n", false, true},
		{"no", "n\n", true, false},
		{"uppercase", "Y\n", false, true},
		{"empty selects default true", "\n", true, true},
		{"empty selects default false", "\n", false, false},
		{"invalid then valid", "maybe\nn\n", true, false},
		{"eof selects default", "", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &TerminalPrompter{In: strings.NewReader(tt.input), Out: &out}
			got, err := p.Confirm("Overwrite?", tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Overwrite?")
		})
	}
}

func TestTerminalPrompterConfirm_Hints(t *testing.T) {
	var out bytes.Buffer
	p := &TerminalPrompter{In: strings.NewReader("\n"), Out: &out}
	_, err := p.Confirm("Q", false)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[y/N]")

	out.Reset()
	p = &TerminalPrompter{In: strings.NewReader("\n"), Out: &out}
	_, err = p.Confirm("Q", true)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[Y/n]")
}

func TestRetryPrompterDecide(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  gsbatch.RetryDecision
	}{
		{"retry", "r\n", gsbatch.DecisionRetry},
		{"retry word", "retry\n", gsbatch.DecisionRetry},
		{"skip", "s\n", gsbatch.DecisionSkip},
		{"abort", "a\n", gsbatch.DecisionAbort},
		{"invalid then abort", "x\nabort\n", gsbatch.DecisionAbort},
		{"eof falls back to skip", "", gsbatch.DecisionSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &RetryPrompter{
				In:     strings.NewReader(tt.input),
				Out:    &out,
				Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			}
			got := p.Decide("/out/a.pdf", errors.New("permission denied"))
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "/out/a.pdf")
			assert.Contains(t, out.String(), "permission denied")
		})
	}
}

func TestRetryPrompterDecide_SequentialConsultations(t *testing.T) {
	// One reader serves several decisions without losing buffered input.
	var out bytes.Buffer
	p := &RetryPrompter{In: strings.NewReader("r\ns\na\n"), Out: &out}
	err := errors.New("disk full")
	assert.Equal(t, gsbatch.DecisionRetry, p.Decide("a", err))
	assert.Equal(t, gsbatch.DecisionSkip, p.Decide("b", err))
	assert.Equal(t, gsbatch.DecisionAbort, p.Decide("c", err))
}
