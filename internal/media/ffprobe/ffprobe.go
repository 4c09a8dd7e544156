package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"scrivener/internal/interrupt"
	"scrivener/internal/services"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Channels  int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Prober runs ffprobe.
type Prober struct {
	binary  string
	timeout time.Duration
	run     Runner
}

// NewProber constructs a Prober. A zero timeout disables the deadline.
func NewProber(binary string, timeout time.Duration) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary, timeout: timeout, run: execRunner}
}

// WithRunner swaps the command runner (for testing).
func (p *Prober) WithRunner(run Runner) *Prober {
	if run != nil {
		p.run = run
	}
	return p
}

// Binary returns the configured executable.
func (p *Prober) Binary() string {
	return p.binary
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := interrupt.Shield(exec.CommandContext(ctx, name, args...)) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

func (p *Prober) exec(ctx context.Context, args ...string) ([]byte, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	output, err := p.run(ctx, p.binary, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "ffprobe", "run", p.timeout.String(), err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "ffprobe", "run", "", err)
	}
	return output, nil
}

// Inspect executes ffprobe against path and decodes the JSON response.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	output, err := p.exec(ctx, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, err
	}
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "ffprobe", "inspect", "parse output", err)
	}
	return result, nil
}

// Duration returns the container duration in seconds. Missing, unparseable,
// or non-positive values are reported as errors.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, errors.New("ffprobe duration: empty path")
	}
	output, err := p.exec(ctx, "-v", "error", "-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	if err != nil {
		return 0, err
	}
	duration := parseFloat(firstLine(string(output)))
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return 0, services.Wrap(services.ErrExternalTool, "ffprobe", "duration",
			fmt.Sprintf("unusable duration %q", strings.TrimSpace(string(output))), nil)
	}
	return duration, nil
}

func firstLine(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.IndexByte(value, '\n'); idx >= 0 {
		return strings.TrimSpace(value[:idx])
	}
	return value
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countStreams("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countStreams("audio")
}

func (r Result) countStreams(kind string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, 0 when absent,
// or NaN when the value cannot be parsed.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
