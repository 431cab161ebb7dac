package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kompre/gs-batch/internal/cli"
	"github.com/kompre/gs-batch/internal/cli/config"
	"github.com/kompre/gs-batch/pkg/gsbatch"
)

var (
	// These are set during build time using -ldflags.
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gs-batch [flags] <file|dir>...",
	Short: "Batch-process PDF files through Ghostscript.",
	Long: `gs-batch drives Ghostscript over many PDF files at once: compress them
with a distiller profile, convert them to PDF/A, or pass arbitrary
Ghostscript switches through unchanged.

Files are processed in parallel into temporary scratch files; the
originals are only replaced afterwards, serially, and by default only
when the processed file is actually smaller.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		opts, logger, err := config.LoadAndValidate(cfgFile, verbose, cmd.Flags(), args)
		if err != nil {
			return err
		}
		return cli.Run(ctx, opts, logger)
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	rootCmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.Flags()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./gs-batch.yaml, ~/.config/gs-batch/gs-batch.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (DEBUG level) logging; disables the progress bar")

	f.StringP("compress", "c", "", "Compress with a distiller profile: screen, ebook, printer, prepress, default")
	f.Lookup("compress").NoOptDefVal = string(gsbatch.DefaultCompressLevel)
	f.Int("pdfa", 0, "Convert to PDF/A (version 1, 2 or 3); forces keeping the converted file")
	f.Lookup("pdfa").NoOptDefVal = strconv.Itoa(gsbatch.DefaultPDFAVersion)
	f.StringP("options", "o", "", "Extra Ghostscript switches, whitespace-separated, passed through unchanged")

	f.StringP("prefix", "p", "", "Prepend to output file names (may include a directory, e.g. 'out/')")
	f.StringP("suffix", "s", "", "Append to output file names before the extension")
	f.BoolP("force", "f", false, "Allow overwriting original files without asking")

	f.Bool("keep-smaller", true, "Keep the processed file only if it is smaller than the original")
	f.Bool("keep-new", false, "Always keep the processed file regardless of size")
	rootCmd.MarkFlagsMutuallyExclusive("keep-smaller", "keep-new")

	f.BoolP("recursive", "r", false, "Descend into directory arguments")
	f.String("filter", "pdf", "Comma-separated list of file extensions to accept")

	f.IntP("concurrency", "j", 0, "Number of parallel Ghostscript processes (0 = number of CPUs)")
	f.Duration("timeout", 0, "Per-file processing timeout (0 = none), e.g. 90s, 5m")
	f.String("on-error", "prompt", "What to do when a file cannot be written: prompt, skip, abort")

	f.Bool("open", false, "Open the output directories in the file manager when done")
	f.String("output-format", "text", "Report format: text, json")
}
