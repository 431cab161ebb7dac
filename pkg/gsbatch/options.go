package gsbatch

import (
	"context"
	"log/slog"
	"time"
)

// Options is the fully resolved configuration for one batch run. The CLI
// layer populates it from defaults, config file, environment and flags; tests
// construct it directly.
type Options struct {
	// Paths are the file and directory arguments to discover inputs from.
	Paths []string `mapstructure:"-"`
	// Recursive descends into directory arguments, following symbolic links.
	Recursive bool `mapstructure:"recursive"`
	// Filter is the comma-separated, case-insensitive extension allow-list.
	Filter string `mapstructure:"filter"`

	// Compress selects a distiller profile; empty means no compression intent.
	Compress CompressionLevel `mapstructure:"compress"`
	// PDFAVersion selects PDF/A conversion (1, 2 or 3); 0 means none.
	// An active PDF/A intent forces KeepSmaller off.
	PDFAVersion int `mapstructure:"pdfa"`
	// RawOptions are arbitrary engine switches appended after intent flags.
	RawOptions []string `mapstructure:"-"`

	Prefix string `mapstructure:"prefix"`
	Suffix string `mapstructure:"suffix"`

	KeepSmaller    bool          `mapstructure:"keepSmaller"`
	ForceOverwrite bool          `mapstructure:"force"`
	OnError        OnErrorPolicy `mapstructure:"onError"`
	Timeout        time.Duration `mapstructure:"timeout"`

	Concurrency  int          `mapstructure:"concurrency"`
	OutputFormat OutputFormat `mapstructure:"outputFormat"`
	Verbose      bool         `mapstructure:"verbose"`
	// OpenAfter reveals the final outputs in the platform file manager once
	// the summary has been printed.
	OpenAfter bool `mapstructure:"open"`

	ConfigFilePath string `mapstructure:"-"`

	// GhostscriptPath is the resolved engine binary. Populated by the CLI
	// layer via LocateEngine; tests may point it at a stub.
	GhostscriptPath string `mapstructure:"-"`

	// Logger is the slog handler used by all components. Required.
	Logger slog.Handler `mapstructure:"-"`
	// Hooks receive progress events from the parallel phase. Optional;
	// NoOpHooks is substituted when nil.
	Hooks Hooks `mapstructure:"-"`
	// Invoker runs the engine for one task. Optional; a Ghostscript invoker
	// built from GhostscriptPath is substituted when nil.
	Invoker Invoker `mapstructure:"-"`
	// FileOps performs reconciliation filesystem operations. Optional;
	// an os-backed implementation is substituted when nil.
	FileOps FileOps `mapstructure:"-"`
	// RetryPolicy decides retry/skip/abort for recoverable reconciliation
	// errors. Optional; a static policy derived from OnError is substituted
	// when nil (prompt requires the CLI layer to inject an interactive one).
	RetryPolicy RetryPolicy `mapstructure:"-"`
}

// Invoker runs the external engine once for a task. Implementations must be
// safe for concurrent use; each invocation owns its own scratch file.
type Invoker interface {
	Invoke(ctx context.Context, task InputTask) EngineResult
}

// RetryPolicy decides how to proceed after a recoverable filesystem error
// during a retryable reconciliation step.
type RetryPolicy interface {
	Decide(path string, err error) RetryDecision
}

// Hooks receive progress events during the parallel engine phase.
// Implementations must be safe for concurrent use.
type Hooks interface {
	// OnTaskStart reports the unit-of-work total for a task before its main
	// invocation begins.
	OnTaskStart(taskID int, path string, totalPages int)
	// OnPageDone reports one completed page.
	OnPageDone(taskID int)
	// OnTaskDone reports the task's terminal engine status.
	OnTaskDone(taskID int, status Status)
}

// NoOpHooks is the default, do-nothing Hooks implementation.
type NoOpHooks struct{}

func (NoOpHooks) OnTaskStart(int, string, int) {}
func (NoOpHooks) OnPageDone(int)               {}
func (NoOpHooks) OnTaskDone(int, Status)       {}

// staticPolicy always returns the same decision; used for the skip and abort
// on-error policies and for scripted test runs.
type staticPolicy struct{ d RetryDecision }

func (p staticPolicy) Decide(string, error) RetryDecision { return p.d }

// SkipPolicy returns a RetryPolicy that always skips the failing task.
func SkipPolicy() RetryPolicy { return staticPolicy{DecisionSkip} }

// AbortPolicy returns a RetryPolicy that always aborts the batch.
func AbortPolicy() RetryPolicy { return staticPolicy{DecisionAbort} }
