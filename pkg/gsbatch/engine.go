package gsbatch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// LocateEngine determines the Ghostscript binary for the current platform and
// verifies it is present on PATH. Returns the resolved path.
func LocateEngine() (string, error) {
	var name string
	switch runtime.GOOS {
	case "windows":
		name = "gswin64c"
		if strings.Contains(runtime.GOARCH, "386") || runtime.GOARCH == "arm" {
			name = "gswin32c"
		}
	default:
		name = "gs"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not on PATH", ErrEngineNotFound, name)
	}
	return path, nil
}

// BuildEngineArgs translates the high-level intents into the ordered engine
// argument list shared by every task. Order matters: later conflicting flags
// override earlier ones per engine convention.
func BuildEngineArgs(compress CompressionLevel, pdfaVersion int, rawOptions []string) []string {
	var args []string
	if compress != "" {
		args = append(args, fmt.Sprintf("-dPDFSETTINGS=/%s", compress))
	}
	if pdfaVersion > 0 {
		args = append(args,
			"-dPDFACompatibilityPolicy=1",
			"-sColorConversionStrategy=RGB",
			fmt.Sprintf("-dPDFA=%d", pdfaVersion),
		)
	}
	args = append(args, rawOptions...)
	return args
}

// Ghostscript is the engine invocation adapter. It runs the external binary
// once per task, scanning stdout for page-completion markers, and returns an
// EngineResult pointing at a fresh scratch file. Safe for concurrent use.
type Ghostscript struct {
	bin    string
	logger *slog.Logger
	hooks  Hooks
}

// NewGhostscript creates an invoker for the given resolved engine binary.
func NewGhostscript(bin string, loggerHandler slog.Handler, hooks Hooks) *Ghostscript {
	if hooks == nil {
		hooks = NoOpHooks{}
	}
	logger := slog.New(loggerHandler).With(slog.String("component", "engine"))
	return &Ghostscript{bin: bin, logger: logger, hooks: hooks}
}

// PageCount issues the metadata-query invocation and parses the unit-of-work
// total from the trailing token of its output.
func (g *Ghostscript) PageCount(ctx context.Context, path string) (int, error) {
	cmd := exec.CommandContext(ctx, g.bin, "-dPDFINFO", "-dBATCH", "-dNODISPLAY", path)
	isolateProcess(cmd)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("metadata query failed for %q: %w", path, err)
	}
	n, err := parsePageCount(string(out))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrPageCountParse, path, err)
	}
	return n, nil
}

// parsePageCount extracts the trailing whitespace-delimited integer token,
// tolerating a trailing period.
func parsePageCount(out string) (int, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0, errors.New("empty engine output")
	}
	last := strings.TrimSuffix(fields[len(fields)-1], ".")
	n, err := strconv.Atoi(last)
	if err != nil {
		return 0, fmt.Errorf("trailing token %q is not an integer", last)
	}
	return n, nil
}

// Invoke runs the engine once for the task. The scratch output file is removed
// on every failure path; on success its path is handed to reconciliation via
// the result.
func (g *Ghostscript) Invoke(ctx context.Context, task InputTask) EngineResult {
	res := EngineResult{TaskID: task.ID, SourcePath: task.SourcePath, Status: StatusFailed}

	info, err := os.Stat(task.SourcePath)
	if err != nil {
		res.Err = fmt.Errorf("cannot stat input %q: %w", task.SourcePath, err)
		return res
	}
	res.OriginalSize = info.Size()

	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	pages, err := g.PageCount(ctx, task.SourcePath)
	if err != nil {
		res.Err = g.classify(ctx, err)
		g.hooks.OnTaskDone(task.ID, StatusFailed)
		return res
	}
	g.hooks.OnTaskStart(task.ID, task.SourcePath, pages)

	tmp, err := os.CreateTemp("", tempFilePattern)
	if err != nil {
		res.Err = fmt.Errorf("cannot create scratch file: %w", err)
		g.hooks.OnTaskDone(task.ID, StatusFailed)
		return res
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	args := make([]string, 0, len(task.EngineArgs)+4)
	args = append(args, "-sDEVICE=pdfwrite", "-o", tmpPath)
	args = append(args, task.EngineArgs...)
	// The input path must be the final argument.
	args = append(args, task.SourcePath)

	if err := g.run(ctx, task.ID, args); err != nil {
		_ = os.Remove(tmpPath)
		res.Err = g.classify(ctx, err)
		g.hooks.OnTaskDone(task.ID, StatusFailed)
		return res
	}

	out, err := os.Stat(tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		res.Err = fmt.Errorf("%w: no output produced: %v", ErrEngineFailed, err)
		g.hooks.OnTaskDone(task.ID, StatusFailed)
		return res
	}

	res.Status = StatusSuccess
	res.TempPath = tmpPath
	res.NewSize = out.Size()
	g.hooks.OnTaskDone(task.ID, StatusSuccess)
	return res
}

// run executes the main invocation, scanning merged stdout/stderr line by
// line for page-completion markers.
func (g *Ghostscript) run(ctx context.Context, taskID int, args []string) error {
	cmd := exec.CommandContext(ctx, g.bin, args...)
	isolateProcess(cmd)
	// Grace period between output-stream close and forced kill.
	cmd.WaitDelay = engineWaitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: cannot open stdout pipe: %v", ErrEngineFailed, err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: cannot start %q: %v", ErrEngineFailed, g.bin, err)
	}
	g.logger.Debug("Engine invocation started",
		slog.Int("taskID", taskID), slog.Int("pid", cmd.Process.Pid))

	g.scanProgress(stdout, taskID)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: exit code %d", ErrEngineFailed, exitErr.ExitCode())
		}
		return fmt.Errorf("%w: %v", ErrEngineFailed, err)
	}
	return nil
}

// scanProgress consumes the merged output stream until EOF, advancing the
// progress hooks on each page marker.
func (g *Ghostscript) scanProgress(r io.Reader, taskID int) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), pageMarker) {
			g.hooks.OnPageDone(taskID)
		}
	}
	if err := scanner.Err(); err != nil {
		g.logger.Debug("Engine output scan ended early",
			slog.Int("taskID", taskID), slog.String("error", err.Error()))
	}
}

// classify maps a raw invocation error to the timeout sentinel when the
// context deadline expired, preserving the original failure otherwise.
func (g *Ghostscript) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrEngineTimeout, err)
	}
	return err
}
