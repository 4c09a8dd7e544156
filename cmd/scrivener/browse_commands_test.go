package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scrivener/internal/checkpoint"
	"scrivener/internal/pipeline"
	"scrivener/internal/services"
)

// processed runs the fake pipeline once and returns the checkpoint path.
func processed(t *testing.T, env *cliEnv, name string) string {
	t.Helper()
	media := env.media(t, name+".mp4")
	outDir := filepath.Join(env.cfg.Paths.OutputDir, name)
	if _, _, err := runCLI(t, []string{"run", media, "-o", outDir}, env.configPath); err != nil {
		t.Fatalf("run %s: %v", name, err)
	}
	return filepath.Join(outDir, name+checkpoint.FileSuffix)
}

func TestShowCommand(t *testing.T) {
	env := setupCLIEnv(t)
	cpPath := processed(t, env, "talk")

	stdout, _, err := runCLI(t, []string{"show", filepath.Dir(cpPath)}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, stdout, "talk"+checkpoint.FileSuffix)
	requireContains(t, stdout, "[OK] completed")
	requireContains(t, stdout, "This sentence is long enough to capture")
	requireContains(t, stdout, "screenshot_0002.jpg")

	stdout, _, err = runCLI(t, []string{"show", "--json", cpPath}, env.configPath)
	if err != nil {
		t.Fatalf("show --json: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(stdout), &raw); err != nil {
		t.Fatalf("decode show json: %v\n%s", err, stdout)
	}
	for _, key := range []string{"video_path", "transcription", "screenshots", "current_time", "status"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("show json missing %q", key)
		}
	}
}

func TestShowCommandRejectsAmbiguousDir(t *testing.T) {
	env := setupCLIEnv(t)
	dir := filepath.Join(env.cfg.Paths.OutputDir, "mixed")
	for _, name := range []string{"a", "b"} {
		cp := checkpoint.New("/media/"+name+".mp4", dir)
		data, _ := json.Marshal(cp)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(cp.Path(), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	_, _, err := runCLI(t, []string{"show", dir}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListCommand(t *testing.T) {
	env := setupCLIEnv(t)
	processed(t, env, "alpha")
	processed(t, env, "beta")
	broken := filepath.Join(env.cfg.Paths.OutputDir, "gamma", "gamma"+checkpoint.FileSuffix)
	if err := os.MkdirAll(filepath.Dir(broken), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(broken, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, stdout, filepath.Join("alpha", "alpha"+checkpoint.FileSuffix))
	requireContains(t, stdout, filepath.Join("beta", "beta"+checkpoint.FileSuffix))
	requireContains(t, stdout, "unreadable")

	stdout, _, err = runCLI(t, []string{"list", "--json", env.cfg.Paths.OutputDir}, env.configPath)
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var summaries []checkpointSummary
	if err := json.Unmarshal([]byte(stdout), &summaries); err != nil {
		t.Fatalf("decode list json: %v", err)
	}
	if len(summaries) != 3 || summaries[0].Segments != 6 || summaries[2].Error == "" {
		t.Fatalf("unexpected summaries %+v", summaries)
	}
}

func TestListCommandEmptyAndMissing(t *testing.T) {
	env := setupCLIEnv(t)
	empty := t.TempDir()
	stdout, _, err := runCLI(t, []string{"list", empty}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, stdout, "No checkpoints found")

	_, _, err = runCLI(t, []string{"list", filepath.Join(empty, "missing")}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestExportCommand(t *testing.T) {
	env := setupCLIEnv(t)
	cpPath := processed(t, env, "talk")

	stdout, _, err := runCLI(t, []string{"export", cpPath}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	target := filepath.Join(filepath.Dir(cpPath), "talk_transcript.csv")
	requireContains(t, stdout, "Wrote 6 segments to "+target)
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "start,end,start_time,end_time,text" || len(lines) != 7 {
		t.Fatalf("unexpected csv:\n%s", data)
	}

	stdout, _, err = runCLI(t, []string{"export", cpPath, "--format", "srt", "--out", "-"}, env.configPath)
	if err != nil {
		t.Fatalf("export srt: %v", err)
	}
	requireContains(t, stdout, "00:00:10,000 --> 00:00:20,000")

	if err := os.Remove(filepath.Join(filepath.Dir(cpPath), fmt.Sprintf(pipeline.FrameNamePattern, 2))); err != nil {
		t.Fatalf("remove frame: %v", err)
	}
	customDir := t.TempDir()
	custom := filepath.Join(customDir, "notes.md")
	stdout, stderr, err := runCLI(t, []string{"export", cpPath, "-F", "markdown", "--out", custom}, env.configPath)
	if err != nil {
		t.Fatalf("export md: %v", err)
	}
	if _, err := os.Stat(custom); err != nil {
		t.Fatalf("markdown export missing: %v", err)
	}
	requireContains(t, stdout, "Copied 2 frame images")
	requireContains(t, stderr, "is missing")
	if _, err := os.Stat(filepath.Join(customDir, fmt.Sprintf(pipeline.FrameNamePattern, 0))); err != nil {
		t.Fatalf("frame image not copied: %v", err)
	}

	_, _, err = runCLI(t, []string{"export", cpPath, "--format", "docx"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
