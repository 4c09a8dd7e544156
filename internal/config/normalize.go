package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeTranscriber()
	c.normalizeTools()
	c.normalizeWatch()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.CaptionChars == 0 {
		c.Pipeline.CaptionChars = defaultCaptionChars
	}
	if c.Pipeline.FallbackDurationSeconds == 0 {
		c.Pipeline.FallbackDurationSeconds = defaultFallbackDurationSeconds
	}
}

func (c *Config) normalizeTranscriber() {
	if value, ok := os.LookupEnv("SCRIVENER_TRANSCRIBER"); ok && strings.TrimSpace(value) != "" {
		c.Transcriber.Binary = strings.TrimSpace(value)
	}
	c.Transcriber.Binary = strings.TrimSpace(c.Transcriber.Binary)
	if c.Transcriber.Binary == "" {
		c.Transcriber.Binary = defaultTranscriberBinary
	}
	if value, ok := os.LookupEnv("SCRIVENER_MODEL"); ok && strings.TrimSpace(value) != "" {
		c.Transcriber.Model = strings.TrimSpace(value)
	}
	c.Transcriber.Model = strings.TrimSpace(c.Transcriber.Model)
	c.Transcriber.OutputFormat = strings.ToLower(strings.TrimSpace(c.Transcriber.OutputFormat))
	if c.Transcriber.OutputFormat == "" {
		c.Transcriber.OutputFormat = defaultTranscriberFormat
	}
	args := make([]string, 0, len(c.Transcriber.ExtraArgs))
	for _, arg := range c.Transcriber.ExtraArgs {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Transcriber.ExtraArgs = args
}

func (c *Config) normalizeTools() {
	c.Frames.FFmpegBinary = strings.TrimSpace(c.Frames.FFmpegBinary)
	if c.Frames.FFmpegBinary == "" {
		c.Frames.FFmpegBinary = defaultFFmpegBinary
	}
	c.Probe.FFprobeBinary = strings.TrimSpace(c.Probe.FFprobeBinary)
	if c.Probe.FFprobeBinary == "" {
		c.Probe.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeWatch() {
	if len(c.Watch.Extensions) == 0 {
		c.Watch.Extensions = append([]string(nil), defaultWatchExtensions...)
		return
	}
	exts := make([]string, 0, len(c.Watch.Extensions))
	seen := make(map[string]struct{}, len(c.Watch.Extensions))
	for _, ext := range c.Watch.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultWatchExtensions...)
	}
	c.Watch.Extensions = exts
}

func (c *Config) normalizeNotifications() {
	if value, ok := os.LookupEnv("SCRIVENER_NTFY_TOPIC"); ok && strings.TrimSpace(value) != "" {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
