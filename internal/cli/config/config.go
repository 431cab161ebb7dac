package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kompre/gs-batch/pkg/gsbatch"
)

const (
	// EnvPrefix is the environment variable prefix for configuration keys.
	EnvPrefix = "GSBATCH"
	// DefaultConfigName is the base name of the optional config file.
	DefaultConfigName = "gs-batch"
)

// LoadAndValidate merges configuration from defaults, an optional config
// file, environment variables and flags (highest priority), validates the
// result and returns the populated Options together with the final logger.
func LoadAndValidate(cfgFile string, verbose bool, flags *pflag.FlagSet, args []string) (gsbatch.Options, *slog.Logger, error) {
	var opts gsbatch.Options
	v := viper.New()

	// Basic logger for errors raised before the final verbosity is known.
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			tempLogger.Debug("No configuration file found, using defaults/env/flags")
		} else {
			return opts, tempLogger, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		opts.ConfigFilePath = v.ConfigFileUsed()
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Flags take priority over everything else.
	flagKeys := map[string]string{
		"compress":      "compress",
		"pdfa":          "pdfa",
		"options":       "options",
		"prefix":        "prefix",
		"suffix":        "suffix",
		"force":         "force",
		"recursive":     "recursive",
		"filter":        "filter",
		"concurrency":   "concurrency",
		"timeout":       "timeout",
		"on-error":      "onError",
		"open":          "open",
		"output-format": "outputFormat",
		"verbose":       "verbose",
	}
	for flagName, key := range flagKeys {
		flag := flags.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return opts, tempLogger, fmt.Errorf("error binding flag '--%s': %w", flagName, err)
		}
	}

	if err := v.Unmarshal(&opts); err != nil {
		return opts, tempLogger, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Boolean flags explicitly set on the command line always win.
	if flags.Changed("verbose") {
		opts.Verbose, _ = flags.GetBool("verbose")
	}
	if !opts.Verbose && verbose {
		opts.Verbose = true
	}
	if flags.Changed("force") {
		opts.ForceOverwrite, _ = flags.GetBool("force")
	}
	if flags.Changed("recursive") {
		opts.Recursive, _ = flags.GetBool("recursive")
	}
	if flags.Changed("open") {
		opts.OpenAfter, _ = flags.GetBool("open")
	}
	if flags.Changed("keep-smaller") {
		opts.KeepSmaller, _ = flags.GetBool("keep-smaller")
	}
	// --keep-new inverts the default keep-smaller policy.
	if flags.Changed("keep-new") {
		keepNew, _ := flags.GetBool("keep-new")
		opts.KeepSmaller = !keepNew
	}

	// Raw engine options are whitespace-delimited pass-through tokens.
	if raw := strings.TrimSpace(v.GetString("options")); raw != "" {
		opts.RawOptions = strings.Fields(raw)
	}

	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logHandler)
	opts.Logger = logHandler

	opts.Paths = args

	if err := validateOptions(&opts, logger); err != nil {
		return opts, logger, err
	}

	logger.Debug("Configuration loading and validation complete",
		slog.String("configFile", opts.ConfigFilePath),
		slog.Bool("verbose", opts.Verbose),
		slog.String("filter", opts.Filter),
		slog.Int("concurrency", opts.Concurrency),
	)
	return opts, logger, nil
}

// setDefaults establishes default values for configuration options in Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("compress", "")
	v.SetDefault("pdfa", 0)
	v.SetDefault("options", "")
	v.SetDefault("prefix", "")
	v.SetDefault("suffix", "")
	v.SetDefault("keepSmaller", gsbatch.DefaultKeepSmaller)
	v.SetDefault("force", false)
	v.SetDefault("recursive", false)
	v.SetDefault("filter", gsbatch.DefaultFilter)
	v.SetDefault("concurrency", gsbatch.DefaultConcurrency)
	v.SetDefault("timeout", gsbatch.DefaultTaskTimeout)
	v.SetDefault("onError", string(gsbatch.DefaultOnErrorPolicy))
	v.SetDefault("open", false)
	v.SetDefault("outputFormat", string(gsbatch.DefaultOutputFormat))
	v.SetDefault("verbose", false)
}

// isValidEnumValue checks whether value is in the allowed set.
func isValidEnumValue[T ~string](value T, allowed []T) bool {
	return slices.Contains(allowed, value)
}

// validateOptions performs semantic validation on the merged Options,
// wrapping failures with gsbatch.ErrConfigValidation.
func validateOptions(opts *gsbatch.Options, logger *slog.Logger) error {
	// The engine accepts distiller profiles with or without the leading slash.
	opts.Compress = gsbatch.CompressionLevel(strings.TrimPrefix(string(opts.Compress), "/"))
	allowedLevels := []gsbatch.CompressionLevel{
		"", gsbatch.CompressionScreen, gsbatch.CompressionEbook,
		gsbatch.CompressionPrinter, gsbatch.CompressionPrepress, gsbatch.CompressionDefault,
	}
	if !isValidEnumValue(opts.Compress, allowedLevels) {
		err := fmt.Errorf("%w: invalid value %q for 'compress'. Allowed: screen, ebook, printer, prepress, default",
			gsbatch.ErrConfigValidation, opts.Compress)
		logger.Error(err.Error())
		return err
	}

	if opts.PDFAVersion < 0 || opts.PDFAVersion > 3 {
		err := fmt.Errorf("%w: invalid value %d for 'pdfa'. Allowed: 1, 2, 3",
			gsbatch.ErrConfigValidation, opts.PDFAVersion)
		logger.Error(err.Error())
		return err
	}

	allowedOnError := []gsbatch.OnErrorPolicy{gsbatch.OnErrorPrompt, gsbatch.OnErrorSkip, gsbatch.OnErrorAbort}
	if !isValidEnumValue(opts.OnError, allowedOnError) {
		err := fmt.Errorf("%w: invalid value %q for 'on-error'. Allowed: %v",
			gsbatch.ErrConfigValidation, opts.OnError, allowedOnError)
		logger.Error(err.Error())
		return err
	}

	allowedFormats := []gsbatch.OutputFormat{gsbatch.OutputFormatText, gsbatch.OutputFormatJSON}
	if !isValidEnumValue(opts.OutputFormat, allowedFormats) {
		err := fmt.Errorf("%w: invalid value %q for 'output-format'. Allowed: %v",
			gsbatch.ErrConfigValidation, opts.OutputFormat, allowedFormats)
		logger.Error(err.Error())
		return err
	}

	if opts.Concurrency < 0 {
		err := fmt.Errorf("%w: invalid value %d for 'concurrency'. Must be >= 0",
			gsbatch.ErrConfigValidation, opts.Concurrency)
		logger.Error(err.Error())
		return err
	}
	if opts.Timeout < 0 {
		err := fmt.Errorf("%w: invalid negative value for 'timeout'", gsbatch.ErrConfigValidation)
		logger.Error(err.Error())
		return err
	}
	if strings.TrimSpace(opts.Filter) == "" {
		err := fmt.Errorf("%w: 'filter' must list at least one extension", gsbatch.ErrConfigValidation)
		logger.Error(err.Error())
		return err
	}
	if len(opts.Paths) == 0 {
		err := fmt.Errorf("%w: at least one file or directory argument is required", gsbatch.ErrConfigValidation)
		logger.Error(err.Error())
		return err
	}
	return nil
}
