package frames

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"scrivener/internal/interrupt"
	"scrivener/internal/logging"
)

// DefaultQuality is the ffmpeg -q:v value used when none is configured.
const DefaultQuality = 2

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Options configures the extractor.
type Options struct {
	Binary  string
	Quality int
	// Timeout bounds a single extraction; zero disables it.
	Timeout time.Duration
}

// Extractor captures frames at a timestamp.
type Extractor struct {
	binary  string
	quality int
	timeout time.Duration
	logger  *slog.Logger
	run     Runner
}

// New constructs an Extractor.
func New(opts Options, logger *slog.Logger) *Extractor {
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}
	return &Extractor{
		binary:  binary,
		quality: quality,
		timeout: opts.Timeout,
		logger:  logging.NewComponentLogger(logger, "frames"),
		run:     combinedRunner,
	}
}

// WithRunner swaps the command runner (for testing).
func (e *Extractor) WithRunner(run Runner) *Extractor {
	if run != nil {
		e.run = run
	}
	return e
}

// Binary returns the configured ffmpeg executable.
func (e *Extractor) Binary() string {
	return e.binary
}

// Extract writes the frame at timestamp seconds of mediaPath to dest and
// reports whether an image file was produced.
func (e *Extractor) Extract(ctx context.Context, mediaPath string, timestamp float64, dest string) bool {
	logger := logging.WithContext(ctx, e.logger).With(
		logging.Float64("timestamp", timestamp),
		logging.String("dest", dest),
	)
	if strings.TrimSpace(mediaPath) == "" || strings.TrimSpace(dest) == "" {
		logging.WarnWithContext(logger, "frame extraction skipped", "frame_extract_invalid",
			logging.String(logging.FieldErrorHint, "media path and destination are required"),
		)
		return false
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := e.buildArgs(mediaPath, timestamp, dest)
	output, err := e.run(runCtx, e.binary, args...)
	if err != nil {
		hint := "confirm ffmpeg is installed and can decode the media"
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			hint = fmt.Sprintf("extraction exceeded %s; raise frames.timeout_seconds", e.timeout)
		}
		logging.WarnWithContext(logger, "frame extraction failed", "frame_extract_failed",
			logging.Error(err),
			logging.String("output", tail(string(output), 3)),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "segment recorded without a frame"),
		)
		return false
	}

	info, statErr := os.Stat(dest)
	if statErr != nil || info.IsDir() || info.Size() == 0 {
		logging.WarnWithContext(logger, "frame extraction produced no image", "frame_extract_missing",
			logging.String(logging.FieldErrorHint, "timestamp may be past the end of the stream"),
			logging.String(logging.FieldImpact, "segment recorded without a frame"),
		)
		return false
	}
	logger.Debug("frame extracted", logging.Int64("bytes", info.Size()))
	return true
}

func (e *Extractor) buildArgs(mediaPath string, timestamp float64, dest string) []string {
	return []string{
		"-ss", strconv.FormatFloat(timestamp, 'f', -1, 64),
		"-i", mediaPath,
		"-vframes", "1",
		"-q:v", strconv.Itoa(e.quality),
		"-y", dest,
	}
}

func combinedRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := interrupt.Shield(exec.CommandContext(ctx, name, args...)) //nolint:gosec
	return cmd.CombinedOutput()
}

func tail(value string, n int) string {
	lines := strings.Split(strings.TrimSpace(value), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
