package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	sourceKey contextKey = "source"
	windowKey contextKey = "window_start"
)

// WithRunID annotates context with the job run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSource annotates context with the media path being processed.
func WithSource(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceKey, path)
}

// SourceFromContext returns the media path if present.
func SourceFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(sourceKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithWindow annotates context with the start offset of the window in flight.
func WithWindow(ctx context.Context, start float64) context.Context {
	return context.WithValue(ctx, windowKey, start)
}

// WindowFromContext returns the window start offset if present.
func WindowFromContext(ctx context.Context) (float64, bool) {
	switch v := ctx.Value(windowKey).(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
