// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/siemens/multilookup/lookup"
)

// barWidth is the width of the queue occupancy bar in characters.
const barWidth = 30

// renderer renders the terminal display, based on the pipeline statistics
// passed to its Render method.
type renderer struct {
	w       io.Writer
	spinner *spinner
}

// newRenderer returns a renderer object rendering to the specified io.Writer.
func newRenderer(w io.Writer) *renderer {
	return &renderer{
		w:       w,
		spinner: newSpinner(),
	}
}

// Stop the renderer's background ticker.
func (r *renderer) Stop() {
	r.spinner.Stop()
}

// Render the progress of a running pipeline.
func (r *renderer) Render(stats lookup.Stats) {
	state := r.spinner.Spinner()
	if stats.Producers == 0 && stats.Consumers == 0 && stats.Elapsed > 0 && stats.QueueLen == 0 {
		state = "  "
	}
	fmt.Fprintf(r.w, "%sinput files:  %d pending, %d read, %s\n",
		state, stats.FilesPending, stats.FilesServiced, failedCount(stats.FilesFailed, "unreadable"))
	fmt.Fprintf(r.w, "  queue:        %s %d/%d (max %d)\n",
		occupancy(stats.QueueLen, stats.QueueCap), stats.QueueLen, stats.QueueCap, stats.QueueHighWater)
	fmt.Fprintf(r.w, "  workers:      %d producers, %d consumers\n",
		stats.Producers, stats.Consumers)
	fmt.Fprintf(r.w, "  hostnames:    %d queued, %s, %s\n",
		stats.Queued,
		resolvedStyle.Styled(fmt.Sprintf("%d resolved", stats.Resolved)),
		failedCount(stats.Failed, "failed"))
	if stats.Reachable+stats.Unreachable > 0 {
		fmt.Fprintf(r.w, "  reachability: %s, %s\n",
			resolvedStyle.Styled(fmt.Sprintf("%d reachable", stats.Reachable)),
			failedCount(stats.Unreachable, "unreachable"))
	}
}

// Summary renders the final statistics of a pipeline run, including the
// elapsed time.
func (r *renderer) Summary(stats lookup.Stats) {
	fmt.Fprintf(r.w, "%s %d hostnames from %d input files in %s: %d resolved, %s",
		summaryStyle.Styled("looked up"),
		stats.Done(), stats.FilesServiced, stats.Elapsed.Round(time.Millisecond), stats.Resolved,
		failedCount(stats.Failed, "failed"))
	if stats.Truncated > 0 {
		fmt.Fprintf(r.w, ", %d truncated", stats.Truncated)
	}
	if stats.AppendErrors > 0 {
		fmt.Fprintf(r.w, ", %s", failedCount(stats.AppendErrors, "log errors"))
	}
	fmt.Fprintln(r.w)
}

// Problems renders the problems with the input files, one per line.
func (r *renderer) Problems(errs []error) {
	for _, err := range errs {
		fmt.Fprintln(r.w, failedStyle.Styled(err.Error()))
	}
}

// failedCount renders a count of failures, highlighting non-zero counts.
func failedCount(count int64, what string) string {
	s := fmt.Sprintf("%d %s", count, what)
	if count == 0 {
		return s
	}
	return failedStyle.Styled(s)
}

// occupancy renders a bar showing how full the queue currently is.
func occupancy(size, capacity int) string {
	if capacity < 1 {
		return "[" + strings.Repeat(" ", barWidth) + "]"
	}
	filled := size * barWidth / capacity
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + queueStyle.Styled(strings.Repeat("█", filled)) + strings.Repeat("·", barWidth-filled) + "]"
}
