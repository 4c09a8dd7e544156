package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"scrivener/internal/checkpoint"
	"scrivener/internal/export"
	"scrivener/internal/textutil"
)

func newShowCommand(_ *commandContext) *cobra.Command {
	var jsonOut bool
	var framesOnly bool

	cmd := &cobra.Command{
		Use:   "show <checkpoint|dir>",
		Short: "Show a checkpoint's progress, transcript and frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveCheckpointArg(args[0])
			if err != nil {
				return err
			}
			cp, err := checkpoint.ReadFile(path)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, cp)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader(filepath.Base(cp.Path()), colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Status", outcomeKind(string(cp.State)), string(cp.State), colorize))
			fmt.Fprintln(out, renderStatusLine("Media", statusInfo, cp.SourcePath, colorize))
			fmt.Fprintln(out, renderStatusLine("Cursor", statusInfo, export.ClockLabel(cp.Cursor), colorize))
			fmt.Fprintln(out, renderStatusLine("Segments", statusInfo, strconv.Itoa(len(cp.Transcript)), colorize))
			fmt.Fprintln(out, renderStatusLine("Frames", statusInfo, strconv.Itoa(len(cp.Frames)), colorize))
			fmt.Fprintln(out)

			if !framesOnly {
				if len(cp.Transcript) == 0 {
					fmt.Fprintln(out, "No transcript segments yet")
				} else {
					rows := make([][]string, 0, len(cp.Transcript))
					for _, seg := range cp.Transcript {
						rows = append(rows, []string{
							export.ClockLabel(seg.Start),
							export.ClockLabel(seg.End),
							seg.Text,
						})
					}
					fmt.Fprintln(out, renderTable([]string{"Start", "End", "Text"}, rows,
						[]columnAlignment{alignRight, alignRight, alignWrap}))
				}
				fmt.Fprintln(out)
			}

			if len(cp.Frames) == 0 {
				fmt.Fprintln(out, "No frames captured")
				return nil
			}
			rows := make([][]string, 0, len(cp.Frames))
			for _, frame := range cp.Frames {
				rows = append(rows, []string{
					export.ClockLabel(frame.Timestamp),
					filepath.Base(frame.File),
					textutil.Preview(frame.Caption, 60),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"At", "File", "Caption"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignWrap}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw checkpoint as JSON")
	cmd.Flags().BoolVar(&framesOnly, "frames", false, "Only list captured frames")
	return cmd
}
