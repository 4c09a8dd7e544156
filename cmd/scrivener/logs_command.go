package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scrivener/internal/logs"
	"scrivener/internal/services"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the scrivener log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogFilePath()
			if path == "" {
				return services.Wrap(services.ErrConfiguration, "cli", "logs", "paths.log_dir is not set", nil)
			}
			out := cmd.OutOrStdout()
			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			if len(tail) == 0 && !follow {
				fmt.Fprintf(out, "No log entries in %s\n", path)
				return nil
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 0, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}
