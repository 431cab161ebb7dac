package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kompre/gs-batch/pkg/gsbatch"
)

// newFlagSet mirrors the flag definitions of the root command.
func newFlagSet() *pflag.FlagSet {
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.StringP("compress", "c", "", "")
	f.Lookup("compress").NoOptDefVal = "ebook"
	f.Int("pdfa", 0, "")
	f.Lookup("pdfa").NoOptDefVal = "2"
	f.StringP("options", "o", "", "")
	f.StringP("prefix", "p", "", "")
	f.StringP("suffix", "s", "", "")
	f.BoolP("force", "f", false, "")
	f.Bool("keep-smaller", true, "")
	f.Bool("keep-new", false, "")
	f.BoolP("recursive", "r", false, "")
	f.String("filter", "pdf", "")
	f.IntP("concurrency", "j", 0, "")
	f.Duration("timeout", 0, "")
	f.String("on-error", "prompt", "")
	f.Bool("open", false, "")
	f.String("output-format", "text", "")
	f.BoolP("verbose", "v", false, "")
	return f
}

func load(t *testing.T, args []string, flagArgs ...string) (gsbatch.Options, error) {
	t.Helper()
	flags := newFlagSet()
	require.NoError(t, flags.Parse(flagArgs))
	opts, _, err := LoadAndValidate("", false, flags, args)
	return opts, err
}

func TestLoadAndValidate_Defaults(t *testing.T) {
	opts, err := load(t, []string{"a.pdf"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.pdf"}, opts.Paths)
	assert.Equal(t, gsbatch.CompressionLevel(""), opts.Compress)
	assert.Zero(t, opts.PDFAVersion)
	assert.Empty(t, opts.RawOptions)
	assert.True(t, opts.KeepSmaller)
	assert.False(t, opts.ForceOverwrite)
	assert.False(t, opts.Recursive)
	assert.Equal(t, "pdf", opts.Filter)
	assert.Zero(t, opts.Concurrency)
	assert.Zero(t, opts.Timeout)
	assert.Equal(t, gsbatch.OnErrorPrompt, opts.OnError)
	assert.Equal(t, gsbatch.OutputFormatText, opts.OutputFormat)
	assert.NotNil(t, opts.Logger)
}

func TestLoadAndValidate_FlagOverrides(t *testing.T) {
	opts, err := load(t, []string{"a.pdf", "dir"},
		"--compress=screen", "--pdfa=3", "--prefix=small_", "--suffix=_v2",
		"--force", "--recursive", "--filter=pdf,ps", "--concurrency=4",
		"--timeout=90s", "--on-error=skip", "--output-format=json", "--open")
	require.NoError(t, err)

	assert.Equal(t, gsbatch.CompressionScreen, opts.Compress)
	assert.Equal(t, 3, opts.PDFAVersion)
	assert.Equal(t, "small_", opts.Prefix)
	assert.Equal(t, "_v2", opts.Suffix)
	assert.True(t, opts.ForceOverwrite)
	assert.True(t, opts.Recursive)
	assert.Equal(t, "pdf,ps", opts.Filter)
	assert.Equal(t, 4, opts.Concurrency)
	assert.Equal(t, 90*time.Second, opts.Timeout)
	assert.Equal(t, gsbatch.OnErrorSkip, opts.OnError)
	assert.Equal(t, gsbatch.OutputFormatJSON, opts.OutputFormat)
	assert.True(t, opts.OpenAfter)
}

func TestLoadAndValidate_BareCompressFlagSelectsEbook(t *testing.T) {
	opts, err := load(t, []string{"a.pdf"}, "--compress")
	require.NoError(t, err)
	assert.Equal(t, gsbatch.CompressionEbook, opts.Compress)
}

func TestLoadAndValidate_BarePDFAFlagSelectsVersion2(t *testing.T) {
	opts, err := load(t, []string{"a.pdf"}, "--pdfa")
	require.NoError(t, err)
	assert.Equal(t, 2, opts.PDFAVersion)
}

func TestLoadAndValidate_CompressAcceptsLeadingSlash(t *testing.T) {
	opts, err := load(t, []string{"a.pdf"}, "--compress=/printer")
	require.NoError(t, err)
	assert.Equal(t, gsbatch.CompressionPrinter, opts.Compress)
}

func TestLoadAndValidate_KeepNewInvertsKeepSmaller(t *testing.T) {
	opts, err := load(t, []string{"a.pdf"}, "--keep-new")
	require.NoError(t, err)
	assert.False(t, opts.KeepSmaller)
}

func TestLoadAndValidate_RawOptionsSplitOnWhitespace(t *testing.T) {
	opts, err := load(t, []string{"a.pdf"}, "--options", "-dFirstPage=2  -dLastPage=5 -r150")
	require.NoError(t, err)
	assert.Equal(t, []string{"-dFirstPage=2", "-dLastPage=5", "-r150"}, opts.RawOptions)
}

func TestLoadAndValidate_EnvironmentOverride(t *testing.T) {
	t.Setenv("GSBATCH_FILTER", "ps,eps")
	opts, err := load(t, []string{"a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "ps,eps", opts.Filter)
}

func TestLoadAndValidate_FlagBeatsEnvironment(t *testing.T) {
	t.Setenv("GSBATCH_FILTER", "ps")
	opts, err := load(t, []string{"a.pdf"}, "--filter=pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf", opts.Filter)
}

func TestLoadAndValidate_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "gs-batch.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("filter: ps\nconcurrency: 2\n"), 0o644))

	flags := newFlagSet()
	require.NoError(t, flags.Parse(nil))
	opts, _, err := LoadAndValidate(cfg, false, flags, []string{"a.pdf"})
	require.NoError(t, err)

	assert.Equal(t, "ps", opts.Filter)
	assert.Equal(t, 2, opts.Concurrency)
	assert.Equal(t, cfg, opts.ConfigFilePath)
}

func TestLoadAndValidate_MissingExplicitConfigFile(t *testing.T) {
	flags := newFlagSet()
	require.NoError(t, flags.Parse(nil))
	_, _, err := LoadAndValidate(filepath.Join(t.TempDir(), "nope.yaml"), false, flags, []string{"a.pdf"})
	assert.Error(t, err)
}

func TestLoadAndValidate_ValidationFailures(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		flagArgs []string
	}{
		{"invalid compress level", []string{"a.pdf"}, []string{"--compress=tiny"}},
		{"pdfa version out of range", []string{"a.pdf"}, []string{"--pdfa=4"}},
		{"invalid on-error policy", []string{"a.pdf"}, []string{"--on-error=retry"}},
		{"invalid output format", []string{"a.pdf"}, []string{"--output-format=xml"}},
		{"negative concurrency", []string{"a.pdf"}, []string{"--concurrency=-1"}},
		{"empty filter", []string{"a.pdf"}, []string{"--filter= "}},
		{"no paths", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.args, tt.flagArgs...)
			assert.ErrorIs(t, err, gsbatch.ErrConfigValidation)
		})
	}
}

func TestLoadAndValidate_VerboseEnablesDebugLogging(t *testing.T) {
	opts, err := load(t, []string{"a.pdf"}, "--verbose")
	require.NoError(t, err)
	assert.True(t, opts.Verbose)
}
