package gsbatch

import "time"

const (
	// DefaultConcurrency determines the default number of workers. 0 means runtime.NumCPU().
	DefaultConcurrency = 0
	// DefaultFilter is the default extension allow-list for discovery.
	DefaultFilter = "pdf"
	// DefaultKeepSmaller keeps the smaller of (original, new) unless disabled.
	DefaultKeepSmaller = true
	// DefaultOnErrorPolicy is the default recoverable-error policy during reconciliation.
	DefaultOnErrorPolicy = OnErrorPrompt
	// DefaultOutputFormat is the default format for the final summary report.
	DefaultOutputFormat = OutputFormatText
	// DefaultCompressLevel is the distiller profile used when --compress is given
	// without a value.
	DefaultCompressLevel = CompressionEbook
	// DefaultPDFAVersion is the PDF/A version used when --pdfa is given without a value.
	DefaultPDFAVersion = 2

	// DefaultTaskTimeout bounds one engine invocation. 0 means unbounded.
	DefaultTaskTimeout = 0 * time.Second
	// engineWaitDelay is the grace period granted to the engine process between
	// output-stream close and forced kill.
	engineWaitDelay = 3 * time.Second

	// tempFilePattern is the os.CreateTemp pattern for engine scratch output.
	tempFilePattern = "gs-batch-*.pdf"

	// pageMarker prefixes engine stdout lines that signal one completed page.
	pageMarker = "Page "
)
