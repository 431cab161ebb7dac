package gsbatch

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
)

// Pool runs engine invocations for a batch of tasks with bounded parallelism.
// It performs no reconciliation; that phase is strictly sequential and happens
// afterwards.
type Pool struct {
	concurrency int
	invoker     Invoker
	logger      *slog.Logger
}

// NewPool creates a worker pool. A non-positive concurrency selects one worker
// per available CPU.
func NewPool(concurrency int, invoker Invoker, loggerHandler slog.Handler) *Pool {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	logger := slog.New(loggerHandler).With(slog.String("component", "pool"))
	return &Pool{concurrency: concurrency, invoker: invoker, logger: logger}
}

// Run executes all tasks and returns their engine results re-keyed to task-id
// order. Completion order may differ internally. On context cancellation the
// pool is drained, scratch files of already-completed results are removed
// best-effort, and the context error is returned with no results.
func (p *Pool) Run(ctx context.Context, tasks []InputTask) ([]EngineResult, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	workers := p.concurrency
	if workers > len(tasks) {
		workers = len(tasks)
	}
	p.logger.Debug("Starting worker pool",
		slog.Int("workers", workers), slog.Int("tasks", len(tasks)))

	taskChan := make(chan InputTask, len(tasks))
	resultChan := make(chan EngineResult, len(tasks))
	for _, t := range tasks {
		taskChan <- t
	}
	close(taskChan)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go p.worker(ctx, i, &wg, taskChan, resultChan)
	}
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]EngineResult, 0, len(tasks))
	for r := range resultChan {
		results = append(results, r)
	}

	if err := ctx.Err(); err != nil {
		p.logger.Info("Run cancelled, abandoning outstanding work",
			slog.Int("completed", len(results)))
		cleanupTemps(results)
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].TaskID < results[j].TaskID })
	return results, nil
}

// worker drains the task channel until it is closed or the context is
// cancelled. Each invocation owns its own scratch file and subprocess handle;
// workers share no mutable state.
func (p *Pool) worker(ctx context.Context, id int, wg *sync.WaitGroup, taskChan <-chan InputTask, resultChan chan<- EngineResult) {
	defer wg.Done()
	wLogger := p.logger.With(slog.Int("workerID", id))
	for {
		select {
		case task, ok := <-taskChan:
			if !ok {
				wLogger.Debug("Worker shutting down (channel closed)")
				return
			}
			wLogger.Debug("Processing task",
				slog.Int("taskID", task.ID), slog.String("path", task.SourcePath))
			resultChan <- p.invoker.Invoke(ctx, task)
		case <-ctx.Done():
			wLogger.Debug("Worker shutting down (context cancelled)")
			return
		}
	}
}

// cleanupTemps removes the scratch files of completed results. Best effort;
// used when a cancelled run will never reach reconciliation.
func cleanupTemps(results []EngineResult) {
	for _, r := range results {
		if r.TempPath != "" {
			_ = os.Remove(r.TempPath)
		}
	}
}
