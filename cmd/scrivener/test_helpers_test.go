package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"scrivener/internal/config"
	"scrivener/internal/testsupport"
)

const (
	fakeProbe  = "echo 620.0\n"
	fakeFFmpeg = "for last; do :; done\nprintf 'jpeg' > \"$last\"\n"
	fakeEngine = `echo "Detected language: English"
cat <<'JSON'
{"segments": [
  {"start": 10.0, "end": 20.0, "text": " This sentence is long enough to capture"},
  {"start": 25.0, "end": 28.0, "text": " ok"}
]}
JSON
`
)

type cliEnv struct {
	cfg        *config.Config
	configPath string
	mediaDir   string
}

// setupCLIEnv writes a config and fake external tools that transcribe a
// 620 second file into two segments per window.
func setupCLIEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliEnv {
	t.Helper()
	base := []testsupport.ConfigOption{
		testsupport.WithScript("ffprobe", fakeProbe),
		testsupport.WithScript("ffmpeg", fakeFFmpeg),
		testsupport.WithScript("mlx_whisper", fakeEngine),
	}
	cfg := testsupport.NewConfig(t, append(base, opts...)...)
	cfg.Logging.Level = "error"

	dir := testsupport.BaseDir(cfg)
	configPath := filepath.Join(dir, "scrivener.toml")
	writeTestConfig(t, configPath, cfg)

	mediaDir := filepath.Join(dir, "media")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		t.Fatalf("mkdir media: %v", err)
	}
	return &cliEnv{cfg: cfg, configPath: configPath, mediaDir: mediaDir}
}

func (e *cliEnv) media(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.mediaDir, name)
	testsupport.WriteFile(t, path, 1024)
	return path
}

// replaceTool swaps the body of a fake tool written by setupCLIEnv.
func (e *cliEnv) replaceTool(t *testing.T, name, body string) {
	t.Helper()
	testsupport.WriteScript(t, filepath.Join(testsupport.BaseDir(e.cfg), "bin"), name, body)
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIContext(t, context.Background(), args, configPath)
}

func runCLIContext(t *testing.T, ctx context.Context, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
