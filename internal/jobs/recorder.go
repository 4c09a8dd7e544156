package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"scrivener/internal/logging"
	"scrivener/internal/pipeline"
)

// Recorder mirrors pipeline lifecycle events into the registry.
type Recorder struct {
	store  *Store
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]*Job
}

// NewRecorder constructs a Recorder. A nil store yields a recorder that does nothing.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logging.NewComponentLogger(logger, "jobs"),
		active: make(map[string]*Job),
	}
}

func (r *Recorder) Started(ctx context.Context, res pipeline.Result) {
	if r.store == nil || res.RunID == "" {
		return
	}
	job := &Job{
		ID:             res.RunID,
		SourcePath:     res.SourcePath,
		OutputDir:      res.OutputDir,
		CheckpointPath: res.CheckpointPath,
		Status:         StatusRunning,
		Cursor:         res.Cursor,
		Duration:       res.TotalDuration,
		Segments:       res.Segments,
		Frames:         res.Frames,
		StartedAt:      res.StartedAt,
	}
	if err := r.store.Create(ctx, job); err != nil {
		r.warn(ctx, "create", err)
		return
	}
	r.mu.Lock()
	r.active[job.ID] = job
	r.mu.Unlock()
}

func (r *Recorder) WindowCompleted(ctx context.Context, report pipeline.WindowReport) {
	job := r.lookup(report.RunID)
	if job == nil {
		return
	}
	job.Cursor = report.Cursor
	job.Windows++
	job.Segments += report.NewSegments
	job.Frames += report.NewFrames
	if err := r.store.Update(ctx, job); err != nil {
		r.warn(ctx, "update", err)
	}
}

func (r *Recorder) Finished(ctx context.Context, res pipeline.Result) {
	r.finish(ctx, res, statusForOutcome(res.Outcome), "")
}

func (r *Recorder) Failed(ctx context.Context, res pipeline.Result, err error) {
	message := ""
	if err != nil {
		message = err.Error()
	}
	r.finish(ctx, res, StatusFailed, message)
}

func (r *Recorder) finish(ctx context.Context, res pipeline.Result, status Status, message string) {
	job := r.lookup(res.RunID)
	if job == nil {
		return
	}
	r.mu.Lock()
	delete(r.active, res.RunID)
	r.mu.Unlock()

	now := time.Now().UTC()
	job.Status = status
	job.Cursor = res.Cursor
	job.Duration = res.TotalDuration
	job.Windows = res.WindowsProcessed
	job.Segments = res.Segments
	job.Frames = res.Frames
	job.CheckpointPath = res.CheckpointPath
	job.ErrorMessage = message
	job.FinishedAt = &now
	if err := r.store.Update(ctx, job); err != nil {
		r.warn(ctx, "finish", err)
	}
}

func (r *Recorder) lookup(runID string) *Job {
	if r.store == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[runID]
}

func (r *Recorder) warn(ctx context.Context, op string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, r.logger), "job registry write failed", "job_registry_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the state directory or delete jobs.db"),
		logging.String(logging.FieldImpact, "run not reflected in `scrivener jobs`; processing unaffected"),
	)
}

func statusForOutcome(outcome pipeline.Outcome) Status {
	switch outcome {
	case pipeline.OutcomeCompleted:
		return StatusCompleted
	case pipeline.OutcomeInterrupted:
		return StatusInterrupted
	case pipeline.OutcomeSkipped:
		return StatusSkipped
	default:
		return StatusFailed
	}
}
