package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if err := ensurePositiveMap(map[string]int{
		"pipeline.window_seconds":            c.Pipeline.WindowSeconds,
		"pipeline.caption_chars":             c.Pipeline.CaptionChars,
		"pipeline.fallback_duration_seconds": c.Pipeline.FallbackDurationSeconds,
	}); err != nil {
		return err
	}
	if c.Pipeline.CaptureMinChars < 0 {
		return errors.New("pipeline.capture_min_chars must be >= 0")
	}
	return nil
}

func (c *Config) validateTools() error {
	if strings.TrimSpace(c.Transcriber.Binary) == "" {
		return errors.New("transcriber.binary must be set")
	}
	if c.Transcriber.OutputFormat != "json" {
		return fmt.Errorf("transcriber.output_format must be json, got %q", c.Transcriber.OutputFormat)
	}
	if strings.TrimSpace(c.Frames.FFmpegBinary) == "" {
		return errors.New("frames.ffmpeg_binary must be set")
	}
	if c.Frames.Quality < 1 || c.Frames.Quality > 31 {
		return errors.New("frames.quality must be between 1 and 31")
	}
	if strings.TrimSpace(c.Probe.FFprobeBinary) == "" {
		return errors.New("probe.ffprobe_binary must be set")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensureNonNegativeMap(map[string]int{
		"transcriber.timeout_seconds":           c.Transcriber.TimeoutSeconds,
		"frames.timeout_seconds":                c.Frames.TimeoutSeconds,
		"probe.timeout_seconds":                 c.Probe.TimeoutSeconds,
		"watch.settle_millis":                   c.Watch.SettleMillis,
		"notifications.request_timeout_seconds": c.Notifications.RequestTimeoutSeconds,
	})
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for _, key := range sortedKeys(values) {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func ensureNonNegativeMap(values map[string]int) error {
	for _, key := range sortedKeys(values) {
		if values[key] < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	return nil
}

func sortedKeys(values map[string]int) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
