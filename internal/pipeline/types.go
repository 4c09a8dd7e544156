package pipeline

import (
	"context"
	"time"

	"scrivener/internal/config"
)

// Job identifies one media file and where its artifacts live.
type Job struct {
	SourcePath string
	OutputDir  string
	// Force discards stored progress before processing.
	Force bool
}

// Outcome is the terminal state of one Run.
type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeInterrupted Outcome = "interrupted"
	OutcomeFailed      Outcome = "failed"
	OutcomeSkipped     Outcome = "skipped"
)

// Result summarizes a Run. Counts are totals for the checkpoint, not just
// the windows processed by this invocation.
type Result struct {
	RunID          string
	SourcePath     string
	OutputDir      string
	CheckpointPath string
	Outcome        Outcome

	Cursor            float64
	TotalDuration     float64
	DurationEstimated bool
	Resumed           bool

	WindowsProcessed int
	Segments         int
	Frames           int
	FramesFailed     int

	Err       error
	StartedAt time.Time
	Elapsed   time.Duration
}

// Skipped reports whether the job was already complete and nothing ran.
func (r Result) Skipped() bool {
	return r.Outcome == OutcomeSkipped
}

// Percent returns progress through the media as 0-100.
func (r Result) Percent() float64 {
	return percent(r.Cursor, r.TotalDuration)
}

// WindowReport describes one folded window.
type WindowReport struct {
	RunID       string
	SourcePath  string
	WindowStart float64
	Cursor      float64
	Total       float64
	NewSegments int
	NewFrames   int
	Interrupted bool
}

// Percent returns progress through the media as 0-100.
func (w WindowReport) Percent() float64 {
	return percent(w.Cursor, w.Total)
}

func percent(cursor, total float64) float64 {
	if total <= 0 {
		return 0
	}
	p := cursor / total * 100
	if p > 100 {
		return 100
	}
	return p
}

// FrameExtractor writes one still image. Satisfied by *frames.Extractor.
type FrameExtractor interface {
	Extract(ctx context.Context, mediaPath string, timestamp float64, dest string) bool
}

// DurationProber reports media length in seconds. Satisfied by *ffprobe.Prober.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Interrupter reports whether the operator asked to stop.
// Satisfied by *interrupt.Controller.
type Interrupter interface {
	Interrupted() bool
}

// Settings holds the windowing and capture parameters.
type Settings struct {
	WindowSeconds    float64
	CaptionChars     int
	CaptureMinChars  int
	FallbackDuration float64
	StrictDuration   bool
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		WindowSeconds:    300,
		CaptionChars:     50,
		CaptureMinChars:  20,
		FallbackDuration: 3600,
	}
}

// SettingsFromConfig extracts driver settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		return DefaultSettings()
	}
	return Settings{
		WindowSeconds:    cfg.WindowDuration(),
		CaptionChars:     cfg.Pipeline.CaptionChars,
		CaptureMinChars:  cfg.Pipeline.CaptureMinChars,
		FallbackDuration: float64(cfg.Pipeline.FallbackDurationSeconds),
		StrictDuration:   cfg.Pipeline.StrictDuration,
	}
}

func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.WindowSeconds <= 0 {
		s.WindowSeconds = def.WindowSeconds
	}
	if s.CaptionChars <= 0 {
		s.CaptionChars = def.CaptionChars
	}
	if s.CaptureMinChars < 0 {
		s.CaptureMinChars = def.CaptureMinChars
	}
	if s.FallbackDuration <= 0 {
		s.FallbackDuration = def.FallbackDuration
	}
	return s
}
