package services_test

import (
	"context"
	"testing"

	"scrivener/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithSource(ctx, "/media/talk.mp4")
	ctx = services.WithWindow(ctx, 300)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if src, ok := services.SourceFromContext(ctx); !ok || src != "/media/talk.mp4" {
		t.Fatalf("unexpected source: %v %v", src, ok)
	}
	if start, ok := services.WindowFromContext(ctx); !ok || start != 300 {
		t.Fatalf("unexpected window: %v %v", start, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithSource(ctx, "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.SourceFromContext(ctx); ok {
		t.Fatal("expected no source value")
	}
	if _, ok := services.WindowFromContext(ctx); ok {
		t.Fatal("expected no window value")
	}
}
