package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scrivener/internal/checkpoint"
	"scrivener/internal/config"
	"scrivener/internal/export"
	"scrivener/internal/fileutil"
)

func newExportCommand(_ *commandContext) *cobra.Command {
	var formatFlag string
	var outPath string

	formats := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		formats = append(formats, string(f))
	}

	cmd := &cobra.Command{
		Use:   "export <checkpoint|dir>",
		Short: "Export a transcript as " + strings.Join(formats, ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			path, err := resolveCheckpointArg(args[0])
			if err != nil {
				return err
			}
			cp, err := checkpoint.ReadFile(path)
			if err != nil {
				return err
			}

			if strings.TrimSpace(outPath) == "-" {
				return export.Write(cmd.OutOrStdout(), cp, format)
			}

			target := strings.TrimSpace(outPath)
			if target == "" {
				target = filepath.Join(cp.OutputDir, export.FileName(cp, format))
			} else if target, err = config.ExpandPath(target); err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}

			var buf bytes.Buffer
			if err := export.Write(&buf, cp, format); err != nil {
				return err
			}
			if err := fileutil.WriteFileAtomic(target, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			if format == export.FormatMarkdown {
				copied, err := copyFrameImages(cmd, cp, filepath.Dir(target))
				if err != nil {
					return err
				}
				if copied > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Copied %d frame images to %s\n", copied, filepath.Dir(target))
				}
			}
			if cp.State != checkpoint.StateCompleted {
				fmt.Fprintf(cmd.ErrOrStderr(), "Note: job is %s; the export covers the first %s only\n",
					cp.State, export.ClockLabel(cp.Cursor))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d segments to %s\n", len(cp.Transcript), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "F", string(export.FormatCSV), "Export format: "+strings.Join(formats, ", "))
	cmd.Flags().StringVar(&outPath, "out", "", "Destination file, or - for stdout (default next to the checkpoint)")
	return cmd
}

// copyFrameImages places frame files beside a markdown export written outside
// the job's output directory, so its relative image links resolve. Frames
// whose files are gone are reported and skipped.
func copyFrameImages(cmd *cobra.Command, cp *checkpoint.Checkpoint, dir string) (int, error) {
	copied := 0
	for _, frame := range cp.Frames {
		src := frame.File
		dst := filepath.Join(dir, filepath.Base(src))
		if filepath.Clean(filepath.Dir(src)) == filepath.Clean(dir) {
			continue
		}
		if err := fileutil.CopyFile(src, dst, 0o644); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Note: frame image %s is missing\n", src)
				continue
			}
			return copied, fmt.Errorf("copy frame image: %w", err)
		}
		copied++
	}
	return copied, nil
}
