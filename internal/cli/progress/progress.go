package progress

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/kompre/gs-batch/pkg/gsbatch"
)

// BarHooks implements gsbatch.Hooks on top of a single aggregate progress
// bar. The bar's maximum grows as tasks report their page totals, and each
// page-completed marker advances it by one. Thread-safe: hooks arrive from
// multiple workers.
type BarHooks struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	done int
}

// NewBarHooks creates hooks rendering to w. The bar starts with an unknown
// total and is finalized by Close.
func NewBarHooks(w io.Writer, totalTasks int) *BarHooks {
	bar := progressbar.NewOptions(0,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("processing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(0),
	)
	return &BarHooks{bar: bar}
}

// OnTaskStart extends the bar's total by the task's page count.
func (h *BarHooks) OnTaskStart(_ int, _ string, totalPages int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bar.ChangeMax(h.bar.GetMax() + totalPages)
}

// OnPageDone advances the bar by one page.
func (h *BarHooks) OnPageDone(int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.bar.Add(1)
}

// OnTaskDone tracks task completion.
func (h *BarHooks) OnTaskDone(int, gsbatch.Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done++
}

// Close clears the bar so the summary table does not overlap it.
func (h *BarHooks) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.bar.Finish()
	_ = h.bar.Close()
}
