package config

const (
	defaultConfigPath              = "~/.config/scrivener/config.toml"
	defaultOutputDir               = "./output"
	defaultLogDir                  = "~/.local/share/scrivener/logs"
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultWindowSeconds           = 300
	defaultCaptionChars            = 50
	defaultCaptureMinChars         = 20
	defaultFallbackDurationSeconds = 3600
	defaultTranscriberBinary       = "mlx_whisper"
	defaultTranscriberFormat       = "json"
	defaultFFmpegBinary            = "ffmpeg"
	defaultFrameQuality            = 2
	defaultFrameTimeoutSeconds     = 60
	defaultFFprobeBinary           = "ffprobe"
	defaultProbeTimeoutSeconds     = 30
	defaultWatchSettleMillis       = 500
	defaultNtfyTimeoutSeconds      = 10
)

var defaultWatchExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".m4v"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir(),
			LogDir:    defaultLogDir,
		},
		Pipeline: Pipeline{
			WindowSeconds:           defaultWindowSeconds,
			CaptionChars:            defaultCaptionChars,
			CaptureMinChars:         defaultCaptureMinChars,
			FallbackDurationSeconds: defaultFallbackDurationSeconds,
		},
		Transcriber: Transcriber{
			Binary:       defaultTranscriberBinary,
			OutputFormat: defaultTranscriberFormat,
		},
		Frames: Frames{
			FFmpegBinary:   defaultFFmpegBinary,
			Quality:        defaultFrameQuality,
			TimeoutSeconds: defaultFrameTimeoutSeconds,
		},
		Probe: Probe{
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultProbeTimeoutSeconds,
		},
		Watch: Watch{
			Extensions:   append([]string(nil), defaultWatchExtensions...),
			SettleMillis: defaultWatchSettleMillis,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
