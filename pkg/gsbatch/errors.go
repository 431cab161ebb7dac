package gsbatch

import "errors"

// Exported error variables. These represent the error categories surfaced by
// the batch driver; callers can check against them using errors.Is.

var (
	// ErrConfigValidation indicates the provided Options failed validation
	// before any task was dispatched.
	ErrConfigValidation = errors.New("invalid configuration options provided")

	// ErrEngineNotFound indicates the Ghostscript binary could not be located
	// on the system. This is a precondition failure; no task runs.
	ErrEngineNotFound = errors.New("ghostscript binary not found")

	// ErrPathNotFound indicates an input path argument does not exist.
	// Discovery rejects the whole run before any processing begins.
	ErrPathNotFound = errors.New("input path does not exist")

	// ErrPageCountParse indicates the metadata-query output did not end with a
	// parseable page count. The main invocation is not attempted.
	ErrPageCountParse = errors.New("cannot parse page count from engine output")

	// ErrEngineFailed indicates the main engine invocation exited non-zero or
	// could not be started.
	ErrEngineFailed = errors.New("engine processing failed")

	// ErrEngineTimeout indicates an engine invocation exceeded the per-task
	// wall-clock budget and was terminated.
	ErrEngineTimeout = errors.New("engine invocation timed out")

	// ErrMkdirFailed indicates the computed output directory could not be
	// created. Terminal for the task, never retried.
	ErrMkdirFailed = errors.New("failed to create output directory")

	// ErrOverwriteRefused indicates the computed output path coincides with the
	// source and overwriting was not permitted.
	ErrOverwriteRefused = errors.New("refusing to overwrite original file")

	// ErrBatchAborted is the control signal raised when an abort decision
	// unwinds the reconciliation loop. Remaining tasks are not reconciled.
	ErrBatchAborted = errors.New("batch aborted")
)
