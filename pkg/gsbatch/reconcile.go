package gsbatch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// opKind is one of the four reconciliation actions from the decision table.
type opKind int

const (
	// opDiscard keeps the original at its own path; the scratch file is removed.
	opDiscard opKind = iota
	// opCopyOriginal copies the original to the output path; scratch removed.
	opCopyOriginal
	// opMove promotes the scratch file to the output path.
	opMove
	// opRefuse declines a same-path overwrite; original kept, scratch removed.
	opRefuse
)

// action pairs an operation with whether its filesystem step participates in
// the retry protocol.
type action struct {
	op        opKind
	retryable bool
}

// decide is the pure decision table mapping (keep, pathsEqual, allowOverwrite)
// to the reconciliation action. Only moves are retryable.
func decide(keep Kept, samePath, allowOverwrite bool) action {
	switch {
	case keep == KeptOriginal && samePath:
		return action{op: opDiscard}
	case keep == KeptOriginal:
		return action{op: opCopyOriginal}
	case samePath && !allowOverwrite:
		return action{op: opRefuse}
	default:
		return action{op: opMove, retryable: true}
	}
}

// OutputPath computes the candidate output path for a source file. The prefix
// is applied to the basename and may itself carry a directory component,
// resolved against the source file's directory rather than the working
// directory.
func OutputPath(source, prefix, suffix string) string {
	dir := filepath.Dir(source)
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, prefix+stem+suffix+ext)
}

// Reconciler serially decides, per task, whether to keep the original or the
// newly produced output, performs the corresponding filesystem operation, and
// applies the retry/skip/abort protocol to recoverable failures. It must run
// single-threaded: the retry policy may block on interactive input.
type Reconciler struct {
	ops    FileOps
	policy RetryPolicy
	logger *slog.Logger
}

// NewReconciler creates a Reconciler. A nil ops uses the os-backed
// implementation; a nil policy skips failing tasks.
func NewReconciler(ops FileOps, policy RetryPolicy, loggerHandler slog.Handler) *Reconciler {
	if ops == nil {
		ops = OSFileOps{}
	}
	if policy == nil {
		policy = SkipPolicy()
	}
	logger := slog.New(loggerHandler).With(slog.String("component", "reconciler"))
	return &Reconciler{ops: ops, policy: policy, logger: logger}
}

// ReconcileAll consumes every engine result in task-id order and produces
// exactly one ReconciliationResult per task. An abort decision stops the loop:
// the remaining tasks are recorded as failed, their scratch files removed
// best-effort, and ErrBatchAborted is returned alongside the results.
func (r *Reconciler) ReconcileAll(tasks []InputTask, engineResults []EngineResult) ([]ReconciliationResult, error) {
	byID := make(map[int]EngineResult, len(engineResults))
	for _, er := range engineResults {
		byID[er.TaskID] = er
	}

	results := make([]ReconciliationResult, 0, len(tasks))
	for i, task := range tasks {
		er, ok := byID[task.ID]
		if !ok {
			results = append(results, ReconciliationResult{
				TaskID:       task.ID,
				FinalPath:    task.SourcePath,
				Status:       StatusFailed,
				ErrMsg:       "ERROR: no engine result produced",
				OriginalSize: 0,
			})
			continue
		}
		res, err := r.reconcileOne(task, er)
		results = append(results, res)
		if errors.Is(err, ErrBatchAborted) {
			// Unwind: remaining tasks are not reconciled, but their scratch
			// files must not leak and every task still gets a result.
			for _, rest := range tasks[i+1:] {
				restER := byID[rest.ID]
				if restER.TempPath != "" {
					_ = r.ops.Remove(restER.TempPath)
				}
				results = append(results, ReconciliationResult{
					TaskID:       rest.ID,
					FinalPath:    rest.SourcePath,
					OriginalSize: restER.OriginalSize,
					Status:       StatusFailed,
					ErrMsg:       "ERROR: batch aborted before reconciliation",
				})
			}
			return results, err
		}
	}
	return results, nil
}

// reconcileOne produces the terminal result for a single task. The only error
// it returns is ErrBatchAborted; all other failures are folded into the result.
func (r *Reconciler) reconcileOne(task InputTask, er EngineResult) (ReconciliationResult, error) {
	res := ReconciliationResult{
		TaskID:       task.ID,
		OriginalSize: er.OriginalSize,
		FinalPath:    er.SourcePath,
	}

	if er.Status != StatusSuccess {
		res.Status = StatusFailed
		res.ErrMsg = failureMessage(er.Err)
		return res, nil
	}

	finalPath, err := filepath.Abs(OutputPath(task.SourcePath, task.Prefix, task.Suffix))
	if err != nil {
		_ = r.ops.Remove(er.TempPath)
		res.Status = StatusFailed
		res.ErrMsg = fmt.Sprintf("ERROR: cannot resolve output path: %v", err)
		return res, nil
	}
	res.FinalPath = finalPath

	// The output directory is created on demand. Failure is terminal for the
	// task, not retryable.
	if dir := filepath.Dir(finalPath); dir != "" {
		if err := r.ops.MkdirAll(dir); err != nil {
			_ = r.ops.Remove(er.TempPath)
			res.Status = StatusFailed
			res.ErrMsg = fmt.Sprintf("ERROR: %v: %v", ErrMkdirFailed, err)
			return res, nil
		}
	}

	keep := KeptNew
	if task.KeepSmaller && er.NewSize >= er.OriginalSize {
		keep = KeptOriginal
	}
	absSource, err := filepath.Abs(task.SourcePath)
	if err != nil {
		absSource = task.SourcePath
	}
	samePath := absSource == finalPath

	act := decide(keep, samePath, task.AllowOverwrite)
	switch act.op {
	case opDiscard:
		_ = r.ops.Remove(er.TempPath)

	case opCopyOriginal:
		if err := r.ops.Copy(task.SourcePath, finalPath); err != nil {
			_ = r.ops.Remove(er.TempPath)
			res.Status = StatusFailed
			res.ErrMsg = fmt.Sprintf("ERROR: cannot copy original to %q: %v", finalPath, err)
			return res, nil
		}
		_ = r.ops.Remove(er.TempPath)

	case opRefuse:
		r.logger.Warn("Keeping original instead",
			slog.String("path", finalPath),
			slog.String("reason", ErrOverwriteRefused.Error()))
		keep = KeptOriginal
		_ = r.ops.Remove(er.TempPath)

	case opMove:
		if err := r.moveWithRecovery(er.TempPath, finalPath); err != nil {
			if errors.Is(err, ErrBatchAborted) {
				res.Status = StatusFailed
				res.ErrMsg = fmt.Sprintf("ERROR: %v", err)
				return res, err
			}
			res.Status = StatusFailed
			res.ErrMsg = fmt.Sprintf("ERROR: cannot move output to %q: %v", finalPath, err)
			return res, nil
		}
	}

	res.Status = StatusSuccess
	res.Kept = keep
	if keep == KeptNew {
		res.NewSize = er.NewSize
		res.Ratio = float64(er.NewSize) / float64(er.OriginalSize)
	} else {
		// Reported sizes reflect what is on disk at the final path.
		res.NewSize = er.OriginalSize
		res.Ratio = 1.0
	}
	return res, nil
}

// moveWithRecovery performs the retryable move step. Recoverable errors
// (permission, disk-full/quota) consult the retry policy: retry loops the same
// step until it succeeds or the policy chooses otherwise; skip surfaces the
// error to the caller; abort removes the scratch file and raises the batch
// abort signal. Non-recoverable errors are returned immediately.
func (r *Reconciler) moveWithRecovery(tempPath, finalPath string) error {
	for {
		err := r.ops.Move(tempPath, finalPath)
		if err == nil {
			return nil
		}
		if !recoverable(err) {
			_ = r.ops.Remove(tempPath)
			return err
		}
		switch r.policy.Decide(finalPath, err) {
		case DecisionRetry:
			r.logger.Debug("Retrying move", slog.String("path", finalPath))
			continue
		case DecisionAbort:
			_ = r.ops.Remove(tempPath)
			return fmt.Errorf("%w: %v", ErrBatchAborted, err)
		default: // DecisionSkip
			_ = r.ops.Remove(tempPath)
			return err
		}
	}
}

// recoverable classifies filesystem errors worth offering a retry for:
// permission or lock problems and disk-full/quota conditions. Everything else
// is immediately fatal to the task.
func recoverable(err error) bool {
	return os.IsPermission(err) || isDiskFull(err)
}

// failureMessage renders a human-readable reason for a failed engine result.
func failureMessage(err error) string {
	if err == nil {
		return fmt.Sprintf("ERROR: %v", ErrEngineFailed)
	}
	return fmt.Sprintf("ERROR: %v", err)
}
