package logging

import (
	"context"
	"log/slog"

	"scrivener/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized key for job run identifiers.
	FieldRunID = "run_id"
	// FieldSource is the standardized key for the media path being processed.
	FieldSource = "source"
	// FieldWindowStart is the standardized key for the window offset in seconds.
	FieldWindowStart = "window_start"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if src, ok := services.SourceFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSource, src))
	}
	if start, ok := services.WindowFromContext(ctx); ok {
		fields = append(fields, slog.Float64(FieldWindowStart, start))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
