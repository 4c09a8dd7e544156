package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Pipeline controls how a media file is split into windows and which
// segments trigger a frame capture.
type Pipeline struct {
	WindowSeconds           int  `toml:"window_seconds"`
	CaptionChars            int  `toml:"caption_chars"`
	CaptureMinChars         int  `toml:"capture_min_chars"`
	FallbackDurationSeconds int  `toml:"fallback_duration_seconds"`
	StrictDuration          bool `toml:"strict_duration"`
}

// Transcriber configures the external speech-recognition engine.
type Transcriber struct {
	Binary         string   `toml:"binary"`
	Model          string   `toml:"model"`
	OutputFormat   string   `toml:"output_format"`
	ExtraArgs      []string `toml:"extra_args"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Frames configures still-frame extraction.
type Frames struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	Quality        int    `toml:"quality"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Probe configures duration probing.
type Probe struct {
	FFprobeBinary  string `toml:"ffprobe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Watch configures the directory watcher.
type Watch struct {
	Extensions   []string `toml:"extensions"`
	SettleMillis int      `toml:"settle_millis"`
}

// Notifications configures ntfy push notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Scrivener.
//
// Configuration sections by subsystem:
//   - Paths: output, state (job registry) and log directories
//   - Pipeline: window size, capture policy and duration fallback
//   - Transcriber: external speech-recognition command
//   - Frames: ffmpeg still extraction
//   - Probe: ffprobe duration lookup
//   - Watch: directory watcher extensions and settle delay
//   - Notifications: optional ntfy topic for job outcomes
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Transcriber   Transcriber   `toml:"transcriber"`
	Frames        Frames        `toml:"frames"`
	Probe         Probe         `toml:"probe"`
	Watch         Watch         `toml:"watch"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scrivener.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The output
// directory is created lazily by the checkpoint store since each job may
// override it.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogFilePath returns the file the CLI appends log lines to.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "scrivener.log")
}

// JobsDatabasePath returns the location of the SQLite job registry.
func (c *Config) JobsDatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "jobs.db")
}

// WindowDuration returns the pipeline window size as a float of seconds.
func (c *Config) WindowDuration() float64 {
	return float64(c.Pipeline.WindowSeconds)
}

// TranscriberTimeout returns the per-call transcription timeout; zero disables it.
func (c *Config) TranscriberTimeout() time.Duration {
	return secondsToDuration(c.Transcriber.TimeoutSeconds)
}

// FramesTimeout returns the per-frame extraction timeout; zero disables it.
func (c *Config) FramesTimeout() time.Duration {
	return secondsToDuration(c.Frames.TimeoutSeconds)
}

// ProbeTimeout returns the duration probe timeout; zero disables it.
func (c *Config) ProbeTimeout() time.Duration {
	return secondsToDuration(c.Probe.TimeoutSeconds)
}

// WatchSettle returns the delay between a create event and processing.
func (c *Config) WatchSettle() time.Duration {
	return time.Duration(c.Watch.SettleMillis) * time.Millisecond
}

// IsMediaFile reports whether path carries one of the configured watch extensions.
func (c *Config) IsMediaFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range c.Watch.Extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func secondsToDuration(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "scrivener")
	}
	return "~/.local/state/scrivener"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
