package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scrivener/internal/deps"
	"scrivener/internal/preflight"
	"scrivener/internal/services"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify external tools and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Tools", colorize) {
				fmt.Fprintln(out, line)
			}
			statuses := preflight.CheckSystemDeps(cfg)
			for _, status := range statuses {
				fmt.Fprintln(out, renderStatusLine(status.Name, dependencyKind(status), dependencyDetail(status), colorize))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Directories", colorize) {
				fmt.Fprintln(out, line)
			}
			failed := 0
			for _, result := range preflight.RunAll(cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed++
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			missing := deps.MissingRequired(statuses)
			if len(missing) == 0 && failed == 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "All checks passed")
				return nil
			}
			return services.Wrap(services.ErrConfiguration, "cli", "check",
				fmt.Sprintf("%d required tools missing, %d directory checks failed", len(missing), failed), nil)
		},
	}
}

func dependencyKind(status deps.Status) statusKind {
	switch {
	case status.Available:
		return statusOK
	case status.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func dependencyDetail(status deps.Status) string {
	if status.Available {
		return status.Path
	}
	if status.Description != "" {
		return fmt.Sprintf("%s (%s)", status.Detail, status.Description)
	}
	return status.Detail
}
