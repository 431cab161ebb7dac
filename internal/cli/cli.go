package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/kompre/gs-batch/internal/cli/progress"
	"github.com/kompre/gs-batch/internal/cli/prompt"
	"github.com/kompre/gs-batch/internal/cli/reveal"
	"github.com/kompre/gs-batch/pkg/gsbatch"
)

var warnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))

// deps groups the side-effecting collaborators so tests can substitute
// scripted implementations.
type deps struct {
	prompter prompt.Prompter
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	revealFn func([]string) error
}

func defaultDeps() deps {
	return deps{
		prompter: &prompt.TerminalPrompter{In: os.Stdin, Out: os.Stderr},
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		revealFn: reveal.Open,
	}
}

// Run orchestrates the batch: discovery, the parallel engine phase, serial
// reconciliation and the final report. A nil return means full or partial
// success; errors signal precondition failures, interrupts or a batch abort.
func Run(ctx context.Context, opts gsbatch.Options, logger *slog.Logger) error {
	return runWith(ctx, opts, logger, defaultDeps())
}

func runWith(ctx context.Context, opts gsbatch.Options, logger *slog.Logger, d deps) error {
	startTime := time.Now()

	disc := gsbatch.NewDiscoverer(opts.Filter, opts.Recursive, opts.Logger)
	files, err := disc.Discover(opts.Paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(d.stdout, "No files found matching the specified filter (searched %d path(s), filter %q)\n",
			len(opts.Paths), opts.Filter)
		return nil
	}

	// Overwrite warning: without a prefix the computed output path can
	// coincide with the original. Prompt unless forced; headless on-error
	// policies skip the question and leave overwriting disallowed.
	force := opts.ForceOverwrite
	if !force && opts.Prefix == "" {
		if opts.OnError == gsbatch.OnErrorPrompt {
			fmt.Fprintln(d.stderr, warnStyle.Render("WARNING: original files may be overwritten if no --prefix is specified"))
			fmt.Fprintln(d.stderr, "(use the --force flag to allow overwriting original files and skip this message)")
			yes, promptErr := d.prompter.Confirm("Do you want to overwrite original files?", false)
			if promptErr != nil {
				return fmt.Errorf("cannot read confirmation: %w", promptErr)
			}
			if !yes {
				fmt.Fprintln(d.stdout, "Aborting...")
				return nil
			}
			force = true
		} else {
			logger.Warn("No --prefix and no --force: same-path overwrites will be refused",
				slog.String("onError", string(opts.OnError)))
		}
	}

	engineArgs := gsbatch.BuildEngineArgs(opts.Compress, opts.PDFAVersion, opts.RawOptions)
	keepSmaller := opts.KeepSmaller
	if opts.PDFAVersion > 0 {
		// Conversion output does not compete on size.
		keepSmaller = false
	}

	tasks := make([]gsbatch.InputTask, len(files))
	for i, f := range files {
		tasks[i] = gsbatch.InputTask{
			ID:             i,
			SourcePath:     f,
			EngineArgs:     engineArgs,
			Prefix:         opts.Prefix,
			Suffix:         opts.Suffix,
			KeepSmaller:    keepSmaller,
			AllowOverwrite: force,
			OnError:        opts.OnError,
			Timeout:        opts.Timeout,
		}
	}

	hooks := opts.Hooks
	var bar *progress.BarHooks
	if hooks == nil {
		if !opts.Verbose && opts.OutputFormat == gsbatch.OutputFormatText && isTerminal(d.stderr) {
			bar = progress.NewBarHooks(d.stderr, len(tasks))
			hooks = bar
		} else {
			hooks = gsbatch.NoOpHooks{}
		}
	}

	invoker := opts.Invoker
	if invoker == nil {
		bin := opts.GhostscriptPath
		if bin == "" {
			bin, err = gsbatch.LocateEngine()
			if err != nil {
				return err
			}
		}
		invoker = gsbatch.NewGhostscript(bin, opts.Logger, hooks)
	}

	fmt.Fprintf(d.stderr, "Processing %d file(s)\n", len(tasks))

	pool := gsbatch.NewPool(opts.Concurrency, invoker, opts.Logger)
	engineResults, err := pool.Run(ctx, tasks)
	if bar != nil {
		bar.Close()
	}
	if err != nil {
		return fmt.Errorf("processing interrupted: %w", err)
	}

	policy := opts.RetryPolicy
	if policy == nil {
		switch opts.OnError {
		case gsbatch.OnErrorSkip:
			policy = gsbatch.SkipPolicy()
		case gsbatch.OnErrorAbort:
			policy = gsbatch.AbortPolicy()
		default:
			policy = &prompt.RetryPrompter{In: d.stdin, Out: d.stderr, Logger: logger}
		}
	}

	reconciler := gsbatch.NewReconciler(opts.FileOps, policy, opts.Logger)
	results, recErr := reconciler.ReconcileAll(tasks, engineResults)

	report := gsbatch.BuildReport(results, startTime, effectiveConcurrency(opts.Concurrency))
	if opts.OutputFormat == gsbatch.OutputFormatJSON {
		if jsonErr := report.RenderJSON(d.stdout); jsonErr != nil {
			logger.Error("Cannot render JSON report", slog.String("error", jsonErr.Error()))
		}
	} else {
		report.RenderText(d.stdout)
	}

	if recErr != nil {
		return recErr
	}

	if opts.OpenAfter {
		var finalPaths []string
		for _, r := range results {
			if r.Status == gsbatch.StatusSuccess {
				finalPaths = append(finalPaths, r.FinalPath)
			}
		}
		if revealErr := d.revealFn(finalPaths); revealErr != nil {
			logger.Warn("Cannot reveal outputs in file manager", slog.String("error", revealErr.Error()))
		}
	}
	return nil
}

func effectiveConcurrency(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// isTerminal reports whether w is attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
