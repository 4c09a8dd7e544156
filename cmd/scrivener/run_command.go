package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scrivener/internal/checkpoint"
	"scrivener/internal/config"
	"scrivener/internal/deps"
	"scrivener/internal/jobs"
	"scrivener/internal/logging"
	"scrivener/internal/notifications"
	"scrivener/internal/pipeline"
	"scrivener/internal/preflight"
	"scrivener/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var resumePath string
	var force bool

	cmd := &cobra.Command{
		Use:   "run [media]",
		Short: "Transcribe a media file, resuming from its checkpoint when present",
		Long: `Transcribe a media file window by window, capturing frames for substantive
segments. Progress is saved after every window; an interrupted or failed run
continues where it stopped the next time it is started.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var media string
			if len(args) > 0 {
				media = args[0]
			}
			job, err := resolveRunJob(cfg, media, outputDir, resumePath, force)
			if err != nil {
				return err
			}

			warnMissingDeps(logger, preflight.CheckSystemDeps(cfg))

			store := ctx.openJobs(logger)
			if store != nil {
				defer store.Close()
			}
			observers := pipeline.Observers{
				newConsoleObserver(cmd.OutOrStdout()),
				pipeline.NewLogObserver(logger),
				jobs.NewRecorder(store, logger),
				notifications.NewObserver(notifications.NewService(cfg), logger),
			}

			driver, err := pipeline.NewFromConfig(cfg, logger, pipeline.WithObserver(observers))
			if err != nil {
				return err
			}
			_, err = driver.Run(cmd.Context(), job)
			return settleRunError(logger, err)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default paths.output_dir)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Discard saved progress and process from the beginning")
	cmd.Flags().StringVar(&resumePath, "resume", "", "Resume from an explicit checkpoint file")
	return cmd
}

// resolveRunJob turns command arguments into a pipeline job. With a resume
// checkpoint the media path and output directory come from the file.
func resolveRunJob(cfg *config.Config, media, outputDir, resumePath string, force bool) (pipeline.Job, error) {
	media = strings.TrimSpace(media)
	resumePath = strings.TrimSpace(resumePath)

	if resumePath != "" {
		cp, err := checkpoint.ReadFile(resumePath)
		if err != nil {
			return pipeline.Job{}, err
		}
		if media != "" {
			given, _ := pipeline.CanonicalPath(media)
			stored, _ := pipeline.CanonicalPath(cp.SourcePath)
			if given != stored {
				return pipeline.Job{}, services.Wrap(services.ErrValidation, "cli", "resume",
					fmt.Sprintf("checkpoint belongs to %s, not %s", cp.SourcePath, media), nil)
			}
		}
		return pipeline.Job{SourcePath: cp.SourcePath, OutputDir: cp.OutputDir, Force: force}, nil
	}

	if media == "" {
		return pipeline.Job{}, services.Wrap(services.ErrValidation, "cli", "run", "media path or --resume required", nil)
	}
	out := strings.TrimSpace(outputDir)
	if out == "" {
		out = cfg.Paths.OutputDir
	}
	expanded, err := config.ExpandPath(out)
	if err != nil {
		return pipeline.Job{}, services.Wrap(services.ErrValidation, "cli", "run", out, err)
	}
	return pipeline.Job{SourcePath: media, OutputDir: filepath.Clean(expanded), Force: force}, nil
}

func warnMissingDeps(logger *slog.Logger, statuses []deps.Status) {
	for _, status := range deps.MissingRequired(statuses) {
		logging.WarnWithContext(logger, "required tool not found", "dependency_missing",
			logging.String("dependency", status.Name),
			logging.String("command", status.Command),
			logging.String("detail", status.Detail),
			logging.String(logging.FieldErrorHint, "install it or set its path in the config; run `scrivener check`"),
			logging.String(logging.FieldImpact, status.Description),
		)
	}
}

// settleRunError keeps the exit status zero for everything except input
// failures.
func settleRunError(logger *slog.Logger, err error) error {
	if err == nil {
		return nil
	}
	if services.IsInputFailure(err) {
		return err
	}
	logging.ErrorWithContext(logger, "run aborted", "run_aborted",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run again to resume from the last saved window"),
	)
	return nil
}
