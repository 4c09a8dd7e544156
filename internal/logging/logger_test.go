package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scrivener/internal/config"
	"scrivener/internal/logging"
	"scrivener/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, "")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "scrivener.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerRendersComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	base, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger := logging.NewComponentLogger(base, "pipeline")

	logger.Info("window completed", logging.Float64("cursor", 300), logging.String("note", "two words"))

	line := buf.String()
	if !strings.Contains(line, " INFO pipeline: window completed") {
		t.Fatalf("unexpected header: %q", line)
	}
	if !strings.Contains(line, "cursor=300") {
		t.Fatalf("expected cursor field, got %q", line)
	}
	if !strings.Contains(line, `note="two words"`) {
		t.Fatalf("expected quoted field, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be rendered as prefix, got %q", line)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("probe failed", logging.Error(errors.New("exit status 1")))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if payload["level"] != "warn" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
	if payload["error"] != "exit status 1" {
		t.Fatalf("unexpected error field: %v", payload["error"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "checkpoint unreadable", "checkpoint_load_failed",
		logging.String(logging.FieldImpact, "starting from the beginning"),
	)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldEventType] != "checkpoint_load_failed" {
		t.Fatalf("unexpected event type: %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
	if payload[logging.FieldImpact] != "starting from the beginning" {
		t.Fatalf("caller impact should win, got %v", payload[logging.FieldImpact])
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	var buf bytes.Buffer
	base, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRunID(context.Background(), "abc")
	ctx = services.WithSource(ctx, "/tmp/a.mp4")

	logging.WithContext(ctx, base).Info("started")

	line := buf.String()
	for _, want := range []string{"run_id=abc", "source=/tmp/a.mp4"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should never be enabled")
	}
	logging.NewComponentLogger(nil, "x").Info("ignored")
}
