package pipeline

import (
	"context"
	"log/slog"

	"scrivener/internal/logging"
)

// Observer receives job lifecycle events. Implementations must not block for
// long; they run on the driver goroutine.
type Observer interface {
	Started(ctx context.Context, res Result)
	WindowCompleted(ctx context.Context, report WindowReport)
	Finished(ctx context.Context, res Result)
	Failed(ctx context.Context, res Result, err error)
}

// Observers fans events out to each non-nil member in order.
type Observers []Observer

func (o Observers) Started(ctx context.Context, res Result) {
	for _, obs := range o {
		if obs != nil {
			obs.Started(ctx, res)
		}
	}
}

func (o Observers) WindowCompleted(ctx context.Context, report WindowReport) {
	for _, obs := range o {
		if obs != nil {
			obs.WindowCompleted(ctx, report)
		}
	}
}

func (o Observers) Finished(ctx context.Context, res Result) {
	for _, obs := range o {
		if obs != nil {
			obs.Finished(ctx, res)
		}
	}
}

func (o Observers) Failed(ctx context.Context, res Result, err error) {
	for _, obs := range o {
		if obs != nil {
			obs.Failed(ctx, res, err)
		}
	}
}

// LogObserver writes lifecycle events to a structured logger. Window
// progress is sampled so long jobs log roughly every 10%.
type LogObserver struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

// NewLogObserver constructs a LogObserver.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		sampler: logging.NewProgressSampler(10),
	}
}

func (l *LogObserver) Started(ctx context.Context, res Result) {
	l.sampler.Reset()
	logging.WithContext(ctx, l.logger).Info("job started",
		logging.String(logging.FieldEventType, "job_started"),
		logging.String("output_dir", res.OutputDir),
		logging.Float64("cursor", res.Cursor),
		logging.Float64("duration", res.TotalDuration),
		logging.Bool("duration_estimated", res.DurationEstimated),
		logging.Bool("resumed", res.Resumed),
	)
}

func (l *LogObserver) WindowCompleted(ctx context.Context, report WindowReport) {
	if !l.sampler.ShouldLog(report.Percent(), "windows") && !report.Interrupted {
		logging.WithContext(ctx, l.logger).Debug("window folded",
			logging.Float64("window_start", report.WindowStart),
			logging.Int("segments", report.NewSegments),
		)
		return
	}
	logging.WithContext(ctx, l.logger).Info("window folded",
		logging.String(logging.FieldEventType, "window_completed"),
		logging.Float64("window_start", report.WindowStart),
		logging.Float64("cursor", report.Cursor),
		logging.Float64("percent", report.Percent()),
		logging.Int("segments", report.NewSegments),
		logging.Int("frames", report.NewFrames),
	)
}

func (l *LogObserver) Finished(ctx context.Context, res Result) {
	logging.WithContext(ctx, l.logger).Info("job finished",
		logging.String(logging.FieldEventType, "job_"+string(res.Outcome)),
		logging.String("outcome", string(res.Outcome)),
		logging.Float64("cursor", res.Cursor),
		logging.Int("segments", res.Segments),
		logging.Int("frames", res.Frames),
		logging.Int("windows", res.WindowsProcessed),
		logging.Duration("elapsed", res.Elapsed),
	)
}

func (l *LogObserver) Failed(ctx context.Context, res Result, err error) {
	logging.ErrorWithContext(logging.WithContext(ctx, l.logger), "job stopped after a failure", "job_failed",
		logging.Error(err),
		logging.Float64("cursor", res.Cursor),
		logging.String(logging.FieldErrorHint, "fix the transcriber and rerun the same command to resume"),
		logging.String(logging.FieldImpact, "progress saved up to the last completed window"),
	)
}
