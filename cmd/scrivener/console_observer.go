package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"scrivener/internal/export"
	"scrivener/internal/pipeline"
)

// consoleObserver prints human-readable progress for interactive runs.
type consoleObserver struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
}

func newConsoleObserver(out io.Writer) *consoleObserver {
	return &consoleObserver{out: out, colorize: shouldColorize(out)}
}

func (c *consoleObserver) Started(_ context.Context, res pipeline.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "Processing %s\n", res.SourcePath)
	if res.Skipped() {
		return
	}
	duration := export.ClockLabel(res.TotalDuration)
	if res.DurationEstimated {
		duration += " (estimated)"
	}
	fmt.Fprintf(c.out, "  Duration: %s\n", duration)
	if res.Resumed && res.Cursor > 0 {
		fmt.Fprintf(c.out, "  Resuming at %s with %d segments and %d frames\n",
			export.ClockLabel(res.Cursor), res.Segments, res.Frames)
	}
}

func (c *consoleObserver) WindowCompleted(_ context.Context, report pipeline.WindowReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "  Window %s-%s: %d segments, %d frames (%.1f%%)\n",
		export.ClockLabel(report.WindowStart),
		export.ClockLabel(report.Cursor),
		report.NewSegments,
		report.NewFrames,
		report.Percent(),
	)
}

func (c *consoleObserver) Finished(_ context.Context, res pipeline.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch res.Outcome {
	case pipeline.OutcomeSkipped:
		fmt.Fprintln(c.out, renderStatusLine("Already completed", statusOK, res.CheckpointPath, c.colorize))
		fmt.Fprintln(c.out, "  Use --force to process it again.")
	case pipeline.OutcomeInterrupted:
		fmt.Fprintln(c.out, renderStatusLine("Interrupted", statusWarn,
			fmt.Sprintf("progress saved at %s", export.ClockLabel(res.Cursor)), c.colorize))
		fmt.Fprintf(c.out, "  Run again to resume from %s\n", res.CheckpointPath)
	default:
		fmt.Fprintln(c.out, renderStatusLine("Completed", statusOK,
			fmt.Sprintf("%d segments, %d frames", res.Segments, res.Frames), c.colorize))
		fmt.Fprintf(c.out, "  Checkpoint: %s\n", res.CheckpointPath)
	}
	if res.FramesFailed > 0 {
		fmt.Fprintln(c.out, renderStatusLine("Frames", statusWarn,
			fmt.Sprintf("%d captures failed", res.FramesFailed), c.colorize))
	}
}

func (c *consoleObserver) Failed(_ context.Context, res pipeline.Result, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, renderStatusLine("Failed", statusError,
		fmt.Sprintf("stopped at %s: %v", export.ClockLabel(res.Cursor), err), c.colorize))
	fmt.Fprintf(c.out, "  Progress kept in %s; run again to resume.\n", res.CheckpointPath)
}
