package prompt

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kompre/gs-batch/pkg/gsbatch"
)

// Prompter asks yes/no questions on the terminal. Injected so headless runs
// and tests can supply a scripted implementation.
type Prompter interface {
	Confirm(question string, def bool) (bool, error)
}

// TerminalPrompter reads answers line-by-line from the given reader,
// typically stdin.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

// Confirm prints the question with a [y/n] suffix and reads one answer.
// An empty answer selects the default; anything else is re-asked.
func (p *TerminalPrompter) Confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	scanner := bufio.NewScanner(p.In)
	for {
		fmt.Fprintf(p.Out, "%s %s: ", question, hint)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return def, err
			}
			// EOF: treat as the default answer.
			fmt.Fprintln(p.Out)
			return def, nil
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.Out, `Please answer "y" or "n".`)
	}
}

// RetryPrompter implements gsbatch.RetryPolicy by asking the operator how to
// proceed after a recoverable filesystem error. It blocks until a valid
// answer is read; EOF falls back to skip so a closed stdin cannot loop
// forever.
type RetryPrompter struct {
	In     io.Reader
	Out    io.Writer
	Logger *slog.Logger

	scanner *bufio.Scanner
}

// Decide presents the error and reads one of retry/skip/abort.
func (p *RetryPrompter) Decide(path string, err error) gsbatch.RetryDecision {
	if p.scanner == nil {
		p.scanner = bufio.NewScanner(p.In)
	}
	fmt.Fprintf(p.Out, "Cannot write %q: %v\n", path, err)
	for {
		fmt.Fprint(p.Out, "[r]etry / [s]kip / [a]bort: ")
		if !p.scanner.Scan() {
			if scanErr := p.scanner.Err(); scanErr != nil && p.Logger != nil {
				p.Logger.Warn("Prompt read failed, skipping task", slog.String("error", scanErr.Error()))
			}
			fmt.Fprintln(p.Out)
			return gsbatch.DecisionSkip
		}
		switch strings.ToLower(strings.TrimSpace(p.scanner.Text())) {
		case "r", "retry":
			return gsbatch.DecisionRetry
		case "s", "skip":
			return gsbatch.DecisionSkip
		case "a", "abort":
			return gsbatch.DecisionAbort
		}
		fmt.Fprintln(p.Out, `Please answer "r", "s" or "a".`)
	}
}
