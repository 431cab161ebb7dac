package gsbatch

// Status defines the terminal processing state of a task.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Kept identifies which file survived reconciliation for a task.
type Kept string

const (
	KeptOriginal Kept = "original"
	KeptNew      Kept = "new"
)

// OnErrorPolicy governs recoverable-error handling during reconciliation.
type OnErrorPolicy string

const (
	OnErrorPrompt OnErrorPolicy = "prompt"
	OnErrorSkip   OnErrorPolicy = "skip"
	OnErrorAbort  OnErrorPolicy = "abort"
)

// RetryDecision is the outcome of a RetryPolicy consultation for a failed
// retryable filesystem step.
type RetryDecision string

const (
	DecisionRetry RetryDecision = "retry"
	DecisionSkip  RetryDecision = "skip"
	DecisionAbort RetryDecision = "abort"
)

// CompressionLevel names a Ghostscript -dPDFSETTINGS distiller profile.
type CompressionLevel string

const (
	CompressionScreen   CompressionLevel = "screen"
	CompressionEbook    CompressionLevel = "ebook"
	CompressionPrinter  CompressionLevel = "printer"
	CompressionPrepress CompressionLevel = "prepress"
	CompressionDefault  CompressionLevel = "default"
)

// OutputFormat defines the format of the final summary report.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)
