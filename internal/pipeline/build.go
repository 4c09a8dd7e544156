package pipeline

import (
	"log/slog"

	"scrivener/internal/checkpoint"
	"scrivener/internal/config"
	"scrivener/internal/frames"
	"scrivener/internal/media/ffprobe"
	"scrivener/internal/transcriber"
)

// NewFromConfig wires a Driver backed by the real external tools.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Driver, error) {
	deps := Dependencies{
		Store: checkpoint.NewStore(logger),
		Transcriber: transcriber.New(transcriber.Options{
			Binary:       cfg.Transcriber.Binary,
			Model:        cfg.Transcriber.Model,
			OutputFormat: cfg.Transcriber.OutputFormat,
			ExtraArgs:    cfg.Transcriber.ExtraArgs,
			Timeout:      cfg.TranscriberTimeout(),
		}, logger),
		Frames: frames.New(frames.Options{
			Binary:  cfg.Frames.FFmpegBinary,
			Quality: cfg.Frames.Quality,
			Timeout: cfg.FramesTimeout(),
		}, logger),
		Prober: ffprobe.NewProber(cfg.Probe.FFprobeBinary, cfg.ProbeTimeout()),
	}
	return NewDriver(SettingsFromConfig(cfg), deps, logger, opts...)
}
