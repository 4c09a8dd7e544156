package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"scrivener/internal/checkpoint"
	"scrivener/internal/interrupt"
	"scrivener/internal/logging"
	"scrivener/internal/services"
	"scrivener/internal/textutil"
	"scrivener/internal/transcriber"
)

// FrameNamePattern names captured frames by capture index.
const FrameNamePattern = "screenshot_%04d.jpg"

// Dependencies are the collaborators a Driver calls out to.
type Dependencies struct {
	Store       *checkpoint.Store
	Transcriber transcriber.Transcriber
	Frames      FrameExtractor
	Prober      DurationProber
}

// Option customizes a Driver.
type Option func(*Driver)

// WithObserver attaches a lifecycle observer.
func WithObserver(obs Observer) Option {
	return func(d *Driver) { d.observer = obs }
}

// WithInterrupter supplies a shared interrupt source. Without one, each Run
// installs its own signal controller for the duration of the job.
func WithInterrupter(i Interrupter) Option {
	return func(d *Driver) { d.interrupter = i }
}

// Driver runs jobs sequentially. It is not safe for concurrent Run calls on
// the same output directory; the directory lock enforces that across
// processes.
type Driver struct {
	settings    Settings
	deps        Dependencies
	base        *slog.Logger
	logger      *slog.Logger
	observer    Observer
	interrupter Interrupter
}

// NewDriver constructs a Driver.
func NewDriver(settings Settings, deps Dependencies, logger *slog.Logger, opts ...Option) (*Driver, error) {
	if deps.Store == nil || deps.Transcriber == nil || deps.Frames == nil || deps.Prober == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "missing dependency", nil)
	}
	d := &Driver{
		settings: settings.withDefaults(),
		deps:     deps,
		base:     logger,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.observer == nil {
		d.observer = Observers{}
	}
	return d, nil
}

// Settings returns the effective settings.
func (d *Driver) Settings() Settings {
	return d.settings
}

// Run processes job until every window is folded, an interrupt is observed,
// or the transcriber fails. Only input problems (missing media, locked or
// unusable output directory) are returned as errors; every other outcome is
// described by the Result.
func (d *Driver) Run(ctx context.Context, job Job) (Result, error) {
	started := time.Now()
	source, outputDir, err := resolveJob(job)
	if err != nil {
		return Result{}, err
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithSource(ctx, source)
	logger := logging.WithContext(ctx, d.logger)

	lock, err := checkpoint.LockDir(outputDir)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Debug("release output lock failed", logging.Error(err))
		}
	}()

	cp, resumed, err := d.prepareCheckpoint(ctx, source, outputDir, job.Force)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		RunID:          runID,
		SourcePath:     source,
		OutputDir:      outputDir,
		CheckpointPath: cp.Path(),
		Resumed:        resumed,
		StartedAt:      started,
	}

	if cp.Completed() {
		res.Outcome = OutcomeSkipped
		d.fill(&res, cp, started)
		logger.Info("job already completed; nothing to do",
			logging.String(logging.FieldEventType, "job_skipped"),
			logging.String("checkpoint", cp.Path()),
		)
		d.observer.Started(ctx, res)
		d.observer.Finished(ctx, res)
		return res, nil
	}

	total, estimated, err := d.probeDuration(ctx, source)
	if err != nil {
		return Result{}, err
	}
	res.TotalDuration = total
	res.DurationEstimated = estimated
	d.fill(&res, cp, started)
	d.observer.Started(ctx, res)

	interrupter := d.interrupter
	if interrupter == nil {
		ctrl := interrupt.New(d.base)
		ctrl.Install()
		defer ctrl.Stop()
		interrupter = ctrl
	}
	stop := func() bool {
		return interrupter.Interrupted() || ctx.Err() != nil
	}

	// Persistence must survive a cancelled parent context.
	saveCtx := context.WithoutCancel(ctx)

	interrupted := false
	for cp.Cursor < total {
		if stop() {
			interrupted = true
			break
		}
		windowStart := cp.Cursor
		wctx := services.WithWindow(ctx, windowStart)

		segments, err := d.deps.Transcriber.TranscribeWindow(wctx, source, windowStart)
		if err != nil {
			if errors.Is(err, context.Canceled) || stop() {
				interrupted = true
				break
			}
			cp.State = checkpoint.StateProcessing
			d.save(saveCtx, cp)
			res.Outcome = OutcomeFailed
			res.Err = err
			d.fill(&res, cp, started)
			d.observer.Failed(ctx, res, err)
			return res, nil
		}

		report := d.fold(wctx, cp, source, windowStart, segments, stop, &res)
		cp.Cursor = windowStart + d.settings.WindowSeconds
		cp.State = checkpoint.StateProcessing
		d.save(saveCtx, cp)
		res.WindowsProcessed++

		report.RunID = runID
		report.SourcePath = source
		report.Cursor = cp.Cursor
		report.Total = total
		d.observer.WindowCompleted(ctx, report)
		if report.Interrupted {
			interrupted = true
			break
		}
	}

	if interrupted {
		res.Outcome = OutcomeInterrupted
		d.fill(&res, cp, started)
		logger.Info("job interrupted; progress saved",
			logging.String(logging.FieldEventType, "job_interrupted"),
			logging.Float64("cursor", cp.Cursor),
			logging.String("checkpoint", cp.Path()),
		)
		d.observer.Finished(ctx, res)
		return res, nil
	}

	if err := d.deps.Store.MarkComplete(saveCtx, cp); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		d.fill(&res, cp, started)
		d.observer.Failed(ctx, res, err)
		return res, nil
	}
	res.Outcome = OutcomeCompleted
	d.fill(&res, cp, started)
	d.observer.Finished(ctx, res)
	return res, nil
}

// fold appends the window's segments to cp and captures frames for the ones
// that qualify. It stops between segments when stop reports true.
func (d *Driver) fold(ctx context.Context, cp *checkpoint.Checkpoint, source string, windowStart float64, segments []transcriber.LocalSegment, stop func() bool, res *Result) WindowReport {
	report := WindowReport{WindowStart: windowStart}
	for i, seg := range segments {
		if i > 0 && stop() {
			report.Interrupted = true
			break
		}
		text := textutil.NormalizeSegment(seg.Text)
		if text == "" {
			continue
		}
		start := seg.Start + windowStart
		cp.Transcript = append(cp.Transcript, checkpoint.Segment{
			Start: start,
			End:   seg.End + windowStart,
			Text:  text,
		})
		report.NewSegments++

		if !d.shouldCapture(text, start, windowStart) {
			continue
		}
		dest := filepath.Join(cp.OutputDir, fmt.Sprintf(FrameNamePattern, len(cp.Frames)))
		if !d.deps.Frames.Extract(ctx, source, start, dest) {
			res.FramesFailed++
			continue
		}
		cp.Frames = append(cp.Frames, checkpoint.FrameCapture{
			Timestamp: start,
			File:      dest,
			Caption:   textutil.Preview(text, d.settings.CaptionChars),
		})
		report.NewFrames++
	}
	return report
}

// shouldCapture applies the frame capture policy: the segment text must be
// longer than CaptureMinChars and begin strictly after the window start.
func (d *Driver) shouldCapture(text string, start, windowStart float64) bool {
	return textutil.CharCount(text) > d.settings.CaptureMinChars && start > windowStart
}

func (d *Driver) prepareCheckpoint(ctx context.Context, source, outputDir string, force bool) (*checkpoint.Checkpoint, bool, error) {
	cp := checkpoint.New(source, outputDir)
	if force {
		if err := d.deps.Store.Reset(ctx, cp); err != nil {
			return nil, false, err
		}
		return cp, false, nil
	}
	loaded, err := d.deps.Store.Load(ctx, source, outputDir)
	if err != nil {
		var corrupt *checkpoint.CorruptError
		if !errors.As(err, &corrupt) {
			return nil, false, err
		}
		return cp, false, nil
	}
	if loaded == nil {
		return cp, false, nil
	}
	if !sameSource(loaded.SourcePath, source) {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "checkpoint belongs to another media file", "checkpoint_source_mismatch",
			logging.String("checkpoint", loaded.Path()),
			logging.String("recorded", loaded.SourcePath),
			logging.String(logging.FieldErrorHint, "pick a different output directory or rerun with --force"),
			logging.String(logging.FieldImpact, "job not started"),
		)
		return nil, false, services.Wrap(services.ErrValidation, "pipeline", "load checkpoint",
			fmt.Sprintf("%s records %s, not %s", loaded.Path(), loaded.SourcePath, source), nil)
	}
	loaded.SourcePath = source
	return loaded, loaded.Cursor > 0, nil
}

// sameSource reports whether a recorded video_path names source. Recorded
// paths are canonicalized first so a symlinked spelling still matches. An
// empty recorded path is adopted.
func sameSource(recorded, source string) bool {
	recorded = strings.TrimSpace(recorded)
	if recorded == "" || recorded == source {
		return true
	}
	canonical, err := CanonicalPath(recorded)
	return err == nil && canonical == source
}

func (d *Driver) probeDuration(ctx context.Context, source string) (float64, bool, error) {
	total, err := d.deps.Prober.Duration(ctx, source)
	if err == nil {
		return total, false, nil
	}
	if d.settings.StrictDuration {
		return 0, false, services.Wrap(services.ErrValidation, "pipeline", "probe duration",
			"duration unavailable and pipeline.strict_duration is set", err)
	}
	logging.WarnWithContext(logging.WithContext(ctx, d.logger), "duration probe failed; using fallback", "duration_probe_failed",
		logging.Error(err),
		logging.Float64("fallback_seconds", d.settings.FallbackDuration),
		logging.String(logging.FieldErrorHint, "confirm ffprobe is installed and the media is readable"),
		logging.String(logging.FieldImpact, "job length estimated; trailing windows may be empty or missing"),
	)
	return d.settings.FallbackDuration, true, nil
}

func (d *Driver) save(ctx context.Context, cp *checkpoint.Checkpoint) {
	if err := d.deps.Store.Save(ctx, cp); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "checkpoint save failed", "checkpoint_save_failed",
			logging.Error(err),
			logging.String("path", cp.Path()),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the output directory"),
			logging.String(logging.FieldImpact, "a restart may repeat windows since the last successful save"),
		)
	}
}

func (d *Driver) fill(res *Result, cp *checkpoint.Checkpoint, started time.Time) {
	res.Cursor = cp.Cursor
	res.Segments = len(cp.Transcript)
	res.Frames = len(cp.Frames)
	res.CheckpointPath = cp.Path()
	res.Elapsed = time.Since(started)
}

func resolveJob(job Job) (string, string, error) {
	raw := strings.TrimSpace(job.SourcePath)
	if raw == "" {
		return "", "", services.Wrap(services.ErrValidation, "pipeline", "resolve", "media path required", nil)
	}
	source, err := CanonicalPath(raw)
	if err != nil {
		return "", "", services.Wrap(services.ErrValidation, "pipeline", "resolve", raw, err)
	}
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", services.Wrap(services.ErrNotFound, "pipeline", "resolve", "media not found: "+source, err)
		}
		return "", "", services.Wrap(services.ErrValidation, "pipeline", "resolve", source, err)
	}
	if info.IsDir() {
		return "", "", services.Wrap(services.ErrValidation, "pipeline", "resolve", source+" is a directory", nil)
	}

	out := strings.TrimSpace(job.OutputDir)
	if out == "" {
		return "", "", services.Wrap(services.ErrValidation, "pipeline", "resolve", "output directory required", nil)
	}
	outputDir, err := filepath.Abs(out)
	if err != nil {
		return "", "", services.Wrap(services.ErrValidation, "pipeline", "resolve", out, err)
	}
	return source, filepath.Clean(outputDir), nil
}

// CanonicalPath returns the absolute path with symlinks resolved when
// possible. A path that cannot be resolved is returned absolute and cleaned.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return filepath.Clean(abs), nil
}
