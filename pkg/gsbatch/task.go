package gsbatch

import "time"

// InputTask is one unit of work: a single input file plus the engine arguments
// and reconciliation policy that apply to it.
type InputTask struct {
	// ID is the ordinal index of the task; display order and result ordering
	// follow it.
	ID int
	// SourcePath is the input file. It must exist and match the active
	// extension filter at task-creation time.
	SourcePath string
	// EngineArgs are the opaque engine arguments for this invocation. Order is
	// insertion order; later conflicting flags override earlier ones per
	// engine convention, so it must be preserved.
	EngineArgs []string
	// Prefix and Suffix compute the candidate output filename. Prefix may
	// contain a directory component, resolved against SourcePath's directory.
	Prefix string
	Suffix string
	// KeepSmaller retains the smaller of (original, new). Forced off when a
	// format-conversion intent is active.
	KeepSmaller bool
	// AllowOverwrite permits replacing the original file when the computed
	// output path coincides with it.
	AllowOverwrite bool
	// OnError governs recoverable-error handling during reconciliation.
	OnError OnErrorPolicy
	// Timeout bounds the combined metadata-query and main-invocation
	// wall-clock time. 0 means unbounded.
	Timeout time.Duration
}

// EngineResult is the output of the parallel phase for one task. It is
// consumed exactly once by reconciliation.
type EngineResult struct {
	TaskID       int
	SourcePath   string
	OriginalSize int64
	Status       Status
	// TempPath points to the scratch file holding engine output. Present only
	// on success; owned exclusively by this task until reconciliation consumes
	// or deletes it.
	TempPath string
	NewSize  int64
	// Err carries the failure cause when Status is StatusFailed.
	Err error
}

// ReconciliationResult is the final, user-facing outcome for one task.
// It is terminal and immutable once produced.
type ReconciliationResult struct {
	TaskID       int    `json:"taskId"`
	FinalPath    string `json:"finalPath"`
	OriginalSize int64  `json:"originalSizeBytes"`
	NewSize      int64  `json:"newSizeBytes,omitempty"`
	// Ratio is NewSize/OriginalSize when the new file is kept, 1.0 when the
	// original is kept.
	Ratio  float64 `json:"ratio,omitempty"`
	Kept   Kept    `json:"kept,omitempty"`
	Status Status  `json:"status"`
	ErrMsg string  `json:"error,omitempty"`
}
