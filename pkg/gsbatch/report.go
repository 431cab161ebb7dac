package gsbatch

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kompre/gs-batch/pkg/util"
)

// Report summarizes the outcome of one batch run.
type Report struct {
	Summary ReportSummary          `json:"summary"`
	Results []ReconciliationResult `json:"results"`
}

// ReportSummary contains aggregated statistics for a run.
type ReportSummary struct {
	TotalTasks         int       `json:"totalTasks"`
	Succeeded          int       `json:"succeeded"`
	Failed             int       `json:"failed"`
	TotalOriginalBytes int64     `json:"totalOriginalBytes"`
	TotalNewBytes      int64     `json:"totalNewBytes"`
	OverallRatio       float64   `json:"overallRatio"`
	DurationSeconds    float64   `json:"durationSeconds"`
	Concurrency        int       `json:"concurrency"`
	Timestamp          time.Time `json:"timestamp"`
}

// BuildReport assembles the final report from the ordered reconciliation
// results. Byte totals cover successful tasks only.
func BuildReport(results []ReconciliationResult, startTime time.Time, concurrency int) Report {
	summary := ReportSummary{
		TotalTasks:      len(results),
		DurationSeconds: time.Since(startTime).Seconds(),
		Concurrency:     concurrency,
		Timestamp:       time.Now().UTC(),
	}
	for _, r := range results {
		if r.Status == StatusSuccess {
			summary.Succeeded++
			summary.TotalOriginalBytes += r.OriginalSize
			summary.TotalNewBytes += r.NewSize
		} else {
			summary.Failed++
		}
	}
	if summary.TotalOriginalBytes > 0 {
		summary.OverallRatio = float64(summary.TotalNewBytes) / float64(summary.TotalOriginalBytes)
	}
	return Report{Summary: summary, Results: results}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

const reportColumnWidth = 10

// RenderText writes the per-task table and aggregate totals.
func (r Report) RenderText(w io.Writer) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%*s | %*s | %*s | %*s | %s",
		reportColumnWidth, "Original",
		reportColumnWidth, "New",
		reportColumnWidth, "Ratio",
		reportColumnWidth, "Keeping",
		"Filename")))
	for _, res := range r.Results {
		if res.Status != StatusSuccess {
			fmt.Fprintf(w, "%*s | %*s | %*s | %*s | %s\n",
				reportColumnWidth, util.HumanSize(res.OriginalSize),
				reportColumnWidth, "-",
				reportColumnWidth, "-",
				reportColumnWidth, failedStyle.Render("failed"),
				fmt.Sprintf("%s (%s)", res.FinalPath, res.ErrMsg))
			continue
		}
		fmt.Fprintf(w, "%*s | %*s | %*s | %*s | %s\n",
			reportColumnWidth, util.HumanSize(res.OriginalSize),
			reportColumnWidth, util.HumanSize(res.NewSize),
			reportColumnWidth, util.Percent(res.Ratio),
			reportColumnWidth, res.Kept,
			res.FinalPath)
	}
	fmt.Fprintf(w, "\n%d file(s) processed: %d succeeded, %d failed\n",
		r.Summary.TotalTasks, r.Summary.Succeeded, r.Summary.Failed)
	if r.Summary.TotalOriginalBytes > 0 {
		fmt.Fprintf(w, "Total size: %s -> %s (%s)\n",
			util.HumanSize(r.Summary.TotalOriginalBytes),
			util.HumanSize(r.Summary.TotalNewBytes),
			util.Percent(r.Summary.OverallRatio))
	}
	fmt.Fprintf(w, "Total time: %.2f seconds\n", r.Summary.DurationSeconds)
}

// RenderJSON writes the full report as indented JSON.
func (r Report) RenderJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
