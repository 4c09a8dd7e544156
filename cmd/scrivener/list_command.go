package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scrivener/internal/checkpoint"
	"scrivener/internal/config"
	"scrivener/internal/export"
	"scrivener/internal/services"
)

type checkpointSummary struct {
	Path     string  `json:"path"`
	Media    string  `json:"video_path,omitempty"`
	Status   string  `json:"status"`
	Cursor   float64 `json:"current_time"`
	Segments int     `json:"segments"`
	Frames   int     `json:"screenshots"`
	Error    string  `json:"error,omitempty"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "List checkpoints under a directory (default paths.output_dir)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root := cfg.Paths.OutputDir
			if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
				root = args[0]
			}
			root, err = config.ExpandPath(root)
			if err != nil {
				return services.Wrap(services.ErrValidation, "cli", "list", root, err)
			}

			paths, err := findCheckpoints(root)
			if err != nil {
				return services.Wrap(services.ErrNotFound, "cli", "list", root, err)
			}
			summaries := make([]checkpointSummary, 0, len(paths))
			for _, path := range paths {
				summaries = append(summaries, summarizeCheckpoint(path))
			}
			if jsonOut {
				return writeJSON(cmd, summaries)
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintf(out, "No checkpoints found under %s\n", root)
				return nil
			}
			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				rel, relErr := filepath.Rel(root, s.Path)
				if relErr != nil {
					rel = s.Path
				}
				status := s.Status
				if s.Error != "" {
					status = "unreadable"
				}
				rows = append(rows, []string{
					rel,
					status,
					export.ClockLabel(s.Cursor),
					strconv.Itoa(s.Segments),
					strconv.Itoa(s.Frames),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Checkpoint", "Status", "Cursor", "Segments", "Frames"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	return cmd
}

func summarizeCheckpoint(path string) checkpointSummary {
	summary := checkpointSummary{Path: path}
	cp, err := checkpoint.ReadFile(path)
	if err != nil {
		summary.Status = "unreadable"
		summary.Error = err.Error()
		return summary
	}
	summary.Media = cp.SourcePath
	summary.Status = string(cp.State)
	summary.Cursor = cp.Cursor
	summary.Segments = len(cp.Transcript)
	summary.Frames = len(cp.Frames)
	return summary
}
