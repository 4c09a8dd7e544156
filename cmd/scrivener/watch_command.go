package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scrivener/internal/config"
	"scrivener/internal/interrupt"
	"scrivener/internal/jobs"
	"scrivener/internal/notifications"
	"scrivener/internal/pipeline"
	"scrivener/internal/preflight"
	"scrivener/internal/services"
	"scrivener/internal/textutil"
	"scrivener/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var existing bool

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Process media files as they appear in a directory",
		Long: `Watch a directory and transcribe each new media file, one at a time. Every
file gets its own <output>/<stem>/ directory, so checkpoints and frames from
different files never collide. Ctrl-C finishes the current window, saves it
and stops.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			root := strings.TrimSpace(outputDir)
			if root == "" {
				root = cfg.Paths.OutputDir
			}
			root, err = config.ExpandPath(root)
			if err != nil {
				return services.Wrap(services.ErrValidation, "cli", "watch", outputDir, err)
			}

			warnMissingDeps(logger, preflight.CheckSystemDeps(cfg))

			store := ctx.openJobs(logger)
			if store != nil {
				defer store.Close()
			}

			ctrl := interrupt.New(logger)
			ctrl.Install()
			defer ctrl.Stop()

			out := cmd.OutOrStdout()
			driver, err := pipeline.NewFromConfig(cfg, logger,
				pipeline.WithInterrupter(ctrl),
				pipeline.WithObserver(pipeline.Observers{
					newConsoleObserver(out),
					pipeline.NewLogObserver(logger),
					jobs.NewRecorder(store, logger),
					notifications.NewObserver(notifications.NewService(cfg), logger),
				}),
			)
			if err != nil {
				return err
			}

			handler := func(runCtx context.Context, path string) error {
				name := textutil.SanitizeFileName(textutil.Stem(path))
				if name == "" {
					name = "media"
				}
				job := pipeline.Job{SourcePath: path, OutputDir: filepath.Join(root, name)}
				_, err := driver.Run(runCtx, job)
				return err
			}

			w, err := watch.New(args[0], handler, watch.Options{
				Filter:      cfg.IsMediaFile,
				Settle:      cfg.WatchSettle(),
				Existing:    existing,
				Interrupter: ctrl,
			}, logger)
			if err != nil {
				return services.Wrap(services.ErrValidation, "cli", "watch", args[0], err)
			}
			fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", w.Dir())
			if err := w.Run(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Watch stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output root (default paths.output_dir)")
	cmd.Flags().BoolVar(&existing, "existing", false, "Also process media already in the directory")
	return cmd
}
