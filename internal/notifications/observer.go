package notifications

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"

	"scrivener/internal/export"
	"scrivener/internal/logging"
	"scrivener/internal/pipeline"
)

// Observer publishes terminal job outcomes. Skipped jobs are silent.
type Observer struct {
	svc    Service
	logger *slog.Logger
}

// NewObserver wraps svc as a pipeline observer.
func NewObserver(svc Service, logger *slog.Logger) *Observer {
	if svc == nil {
		svc = noopService{}
	}
	return &Observer{svc: svc, logger: logging.NewComponentLogger(logger, "notifications")}
}

func (o *Observer) Started(context.Context, pipeline.Result) {}

func (o *Observer) WindowCompleted(context.Context, pipeline.WindowReport) {}

func (o *Observer) Finished(ctx context.Context, res pipeline.Result) {
	switch res.Outcome {
	case pipeline.OutcomeCompleted:
		o.publish(ctx, EventJobCompleted, payloadFor(res))
	case pipeline.OutcomeInterrupted:
		o.publish(ctx, EventJobInterrupted, payloadFor(res))
	}
}

func (o *Observer) Failed(ctx context.Context, res pipeline.Result, err error) {
	payload := payloadFor(res)
	if err != nil {
		payload["error"] = err.Error()
	}
	o.publish(ctx, EventJobFailed, payload)
}

func (o *Observer) publish(ctx context.Context, event Event, payload Payload) {
	// Delivery outlives a cancelled run; the HTTP client timeout bounds it.
	if err := o.svc.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
			logging.String(logging.FieldImpact, "no push notification for this job"),
		)
	}
}

func payloadFor(res pipeline.Result) Payload {
	return Payload{
		"media":      filepath.Base(res.SourcePath),
		"segments":   strconv.Itoa(res.Segments),
		"frames":     strconv.Itoa(res.Frames),
		"position":   export.ClockLabel(res.Cursor),
		"checkpoint": res.CheckpointPath,
	}
}
