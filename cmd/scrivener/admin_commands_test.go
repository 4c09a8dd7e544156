package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scrivener/internal/checkpoint"
	"scrivener/internal/services"
	"scrivener/internal/testsupport"
)

func TestCheckCommandPassesWithTools(t *testing.T) {
	env := setupCLIEnv(t)
	stdout, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, stdout)
	}
	requireContains(t, stdout, "Transcriber:")
	requireContains(t, stdout, "Output directory:")
	requireContains(t, stdout, "All checks passed")
}

func TestCheckCommandReportsMissingTools(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcriber.Binary = "scrivener-test-no-such-engine"
	cfg.Probe.FFprobeBinary = "scrivener-test-no-such-probe"
	path := filepath.Join(testsupport.BaseDir(cfg), "scrivener.toml")
	writeTestConfig(t, path, cfg)

	stdout, _, err := runCLI(t, []string{"check"}, path)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, stdout, "[ERROR] binary \"scrivener-test-no-such-engine\" not found")
	// ffprobe is optional unless strict_duration is set.
	requireContains(t, stdout, "[WARN] binary \"scrivener-test-no-such-probe\" not found")
}

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout, "Wrote sample configuration to "+target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	env := setupCLIEnv(t)
	stdout, _, err = runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, stdout, "Config path: "+env.configPath)
	requireContains(t, stdout, "Configuration valid")
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[pipeline]\nwindow_seconds = -5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, path); err == nil {
		t.Fatal("expected validation failure")
	}
}

func TestJobsCommands(t *testing.T) {
	env := setupCLIEnv(t)
	media := env.media(t, "talk.mp4")
	outDir := filepath.Join(env.cfg.Paths.OutputDir, "talk")
	for range 2 {
		if _, _, err := runCLI(t, []string{"run", media, "-o", outDir}, env.configPath); err != nil {
			t.Fatalf("run: %v", err)
		}
	}

	stdout, _, err := runCLI(t, []string{"jobs", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs --json: %v", err)
	}
	requireContains(t, stdout, `"status": "completed"`)
	requireContains(t, stdout, `"status": "skipped"`)

	stdout, _, err = runCLI(t, []string{"jobs", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs stats: %v", err)
	}
	requireContains(t, stdout, "total")

	if _, _, err := runCLI(t, []string{"jobs", "--status", "bogus"}, env.configPath); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for bogus status, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"jobs", "show", "ffffffff"}, env.configPath); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}

	stdout, _, err = runCLI(t, []string{"jobs", "prune", "--status", "skipped"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs prune: %v", err)
	}
	requireContains(t, stdout, "Removed 1 jobs")

	store := testsupport.MustOpenJobs(t, env.cfg)
	remaining, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected one job left, got %d", len(remaining))
	}
	stdout, _, err = runCLI(t, []string{"jobs", "show", remaining[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, stdout, "[OK] completed")
	requireContains(t, stdout, "620.0s of 620.0s (100%)")
}

func TestWatchCommandProcessesExistingMedia(t *testing.T) {
	env := setupCLIEnv(t)
	inbox := t.TempDir()
	media := filepath.Join(inbox, "clip.mp4")
	testsupport.WriteFile(t, media, 512)
	testsupport.WriteFile(t, filepath.Join(inbox, "notes.txt"), 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	type outcome struct {
		stdout string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		stdout, _, err := runCLIContext(t, ctx, []string{"watch", inbox, "--existing"}, env.configPath)
		done <- outcome{stdout, err}
	}()

	cpPath := filepath.Join(env.cfg.Paths.OutputDir, "clip", "clip"+checkpoint.FileSuffix)
	deadline := time.Now().Add(10 * time.Second)
	for {
		if cp, err := checkpoint.ReadFile(cpPath); err == nil && cp.Completed() {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("watch did not complete %s", cpPath)
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()

	select {
	case res := <-done:
		if !errors.Is(res.err, context.Canceled) {
			t.Fatalf("expected cancellation, got %v", res.err)
		}
		requireContains(t, res.stdout, "Watching "+inbox)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}

	if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, "notes")); !os.IsNotExist(err) {
		t.Fatalf("non-media file should be ignored, stat err=%v", err)
	}
}
