package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"scrivener/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Watch.SettleMillis = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithWindowSeconds overrides the pipeline window size.
func WithWindowSeconds(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.WindowSeconds = seconds
	}
}

// WithStubbedBinaries writes stub executables that exit 0 for the provided
// names and prepends them to PATH. If names is empty, the default external
// tools are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "mlx_whisper"}
		}
		for _, name := range names {
			writeScript(b, name, "exit 0\n")
		}
	}
}

// WithScript writes an executable shell script named name with body and
// prepends its directory to PATH.
func WithScript(name, body string) ConfigOption {
	return func(b *configBuilder) {
		writeScript(b, name, body)
	}
}

func writeScript(b *configBuilder, name, body string) {
	b.t.Helper()
	binDir := filepath.Join(b.baseDir, "bin")
	WriteScript(b.t, binDir, name, body)
	path := os.Getenv("PATH")
	if parts := filepath.SplitList(path); len(parts) == 0 || parts[0] != binDir {
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+path)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
