package gsbatch

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// invokerFunc adapts a function to the Invoker interface.
type invokerFunc func(ctx context.Context, task InputTask) EngineResult

func (f invokerFunc) Invoke(ctx context.Context, task InputTask) EngineResult {
	return f(ctx, task)
}

func nTasks(n int) []InputTask {
	tasks := make([]InputTask, n)
	for i := range tasks {
		tasks[i] = InputTask{ID: i, SourcePath: "file.pdf"}
	}
	return tasks
}

func TestPoolRun_ResultsOrderedByTaskID(t *testing.T) {
	invoker := invokerFunc(func(_ context.Context, task InputTask) EngineResult {
		// Jitter so completion order differs from submission order.
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		return EngineResult{TaskID: task.ID, Status: StatusSuccess}
	})
	pool := NewPool(4, invoker, testLogHandler())

	results, err := pool.Run(context.Background(), nTasks(20))
	require.NoError(t, err)
	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, i, r.TaskID)
	}
}

func TestPoolRun_RespectsConcurrencyBound(t *testing.T) {
	var inflight, peak atomic.Int32
	invoker := invokerFunc(func(_ context.Context, task InputTask) EngineResult {
		cur := inflight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inflight.Add(-1)
		return EngineResult{TaskID: task.ID, Status: StatusSuccess}
	})
	pool := NewPool(2, invoker, testLogHandler())

	_, err := pool.Run(context.Background(), nTasks(10))
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPoolRun_EmptyBatch(t *testing.T) {
	pool := NewPool(2, invokerFunc(func(context.Context, InputTask) EngineResult {
		t.Fatal("invoker must not be called for an empty batch")
		return EngineResult{}
	}), testLogHandler())

	results, err := pool.Run(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestPoolRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	invoker := invokerFunc(func(_ context.Context, task InputTask) EngineResult {
		if calls.Add(1) == 1 {
			cancel()
		}
		return EngineResult{TaskID: task.ID, Status: StatusSuccess}
	})
	pool := NewPool(1, invoker, testLogHandler())

	results, err := pool.Run(ctx, nTasks(50))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results, "cancelled runs surface no partial results")
	assert.Less(t, calls.Load(), int32(50), "outstanding tasks are abandoned")
}

func TestPoolRun_OneResultPerTask(t *testing.T) {
	invoker := invokerFunc(func(_ context.Context, task InputTask) EngineResult {
		status := StatusSuccess
		if task.ID%3 == 0 {
			status = StatusFailed
		}
		return EngineResult{TaskID: task.ID, Status: status}
	})
	pool := NewPool(3, invoker, testLogHandler())

	results, err := pool.Run(context.Background(), nTasks(9))
	require.NoError(t, err)
	seen := make(map[int]int)
	for _, r := range results {
		seen[r.TaskID]++
	}
	for i := 0; i < 9; i++ {
		assert.Equal(t, 1, seen[i], "task %d must have exactly one result", i)
	}
}
