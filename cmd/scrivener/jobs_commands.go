package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scrivener/internal/jobs"
	"scrivener/internal/services"
)

type jobView struct {
	ID         string     `json:"id"`
	Source     string     `json:"source_path"`
	OutputDir  string     `json:"output_dir"`
	Checkpoint string     `json:"checkpoint_path,omitempty"`
	Status     string     `json:"status"`
	Cursor     float64    `json:"cursor_seconds"`
	Duration   float64    `json:"duration_seconds"`
	Windows    int        `json:"windows"`
	Segments   int        `json:"segments"`
	Frames     int        `json:"frames"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func newJobView(job *jobs.Job) jobView {
	return jobView{
		ID:         job.ID,
		Source:     job.SourcePath,
		OutputDir:  job.OutputDir,
		Checkpoint: job.CheckpointPath,
		Status:     string(job.Status),
		Cursor:     job.Cursor,
		Duration:   job.Duration,
		Windows:    job.Windows,
		Segments:   job.Segments,
		Frames:     job.Frames,
		Error:      job.ErrorMessage,
		StartedAt:  job.StartedAt,
		UpdatedAt:  job.UpdatedAt,
		FinishedAt: job.FinishedAt,
	}
}

func (c *commandContext) withJobs(fn func(*jobs.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job registry: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recorded transcription runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatusFlags(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withJobs(func(store *jobs.Store) error {
				items, err := store.List(cmd.Context(), limit, statuses...)
				if err != nil {
					return err
				}
				if jsonOut {
					views := make([]jobView, 0, len(items))
					for _, item := range items {
						views = append(views, newJobView(item))
					}
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No jobs recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Media", "Status", "Progress", "Segments", "Frames", "Started"},
					buildJobRows(items),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by job status (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON")

	cmd.AddCommand(newJobsShowCommand(ctx))
	cmd.AddCommand(newJobsStatsCommand(ctx))
	cmd.AddCommand(newJobsPruneCommand(ctx))
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(func(store *jobs.Store) error {
				job, err := findJob(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderStatusLine("Status", outcomeKind(string(job.Status)), string(job.Status), colorize))
				fmt.Fprintln(out, renderStatusLine("Media", statusInfo, job.SourcePath, colorize))
				fmt.Fprintln(out, renderStatusLine("Output", statusInfo, job.OutputDir, colorize))
				fmt.Fprintln(out, renderStatusLine("Checkpoint", statusInfo, job.CheckpointPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Progress", statusInfo, formatProgress(job), colorize))
				fmt.Fprintln(out, renderStatusLine("Windows", statusInfo, strconv.Itoa(job.Windows), colorize))
				fmt.Fprintln(out, renderStatusLine("Segments", statusInfo, strconv.Itoa(job.Segments), colorize))
				fmt.Fprintln(out, renderStatusLine("Frames", statusInfo, strconv.Itoa(job.Frames), colorize))
				fmt.Fprintln(out, renderStatusLine("Started", statusInfo, job.StartedAt.Local().Format(time.RFC3339), colorize))
				if job.FinishedAt != nil {
					fmt.Fprintln(out, renderStatusLine("Finished", statusInfo, job.FinishedAt.Local().Format(time.RFC3339), colorize))
				}
				if job.ErrorMessage != "" {
					fmt.Fprintln(out, renderStatusLine("Error", statusError, job.ErrorMessage, colorize))
				}
				return nil
			})
		},
	}
}

func newJobsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count recorded runs by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(func(store *jobs.Store) error {
				counts, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(counts))
				total := 0
				for _, status := range jobs.AllStatuses() {
					n := counts[status]
					total += n
					rows = append(rows, []string{string(status), strconv.Itoa(n)})
				}
				rows = append(rows, []string{"total", strconv.Itoa(total)})
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Status", "Count"}, rows,
					[]columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newJobsPruneCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove finished runs from the registry",
		Long:  "Remove finished runs from the registry. Running jobs are never removed; checkpoints and frames on disk are untouched.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatusFlags(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withJobs(func(store *jobs.Store) error {
				removed, err := store.Prune(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d jobs\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Only remove jobs with this status (repeatable)")
	return cmd
}

// findJob resolves a full run ID or the short prefix shown by `jobs`.
func findJob(ctx context.Context, store *jobs.Store, id string) (*jobs.Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "cli", "jobs", "job id required", nil)
	}
	job, err := store.Get(ctx, id)
	if err != nil || job != nil {
		return job, err
	}
	items, err := store.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	var match *jobs.Job
	for _, item := range items {
		if !strings.HasPrefix(item.ID, id) {
			continue
		}
		if match != nil {
			return nil, services.Wrap(services.ErrValidation, "cli", "jobs", "ambiguous job id "+id, nil)
		}
		match = item
	}
	if match == nil {
		return nil, services.Wrap(services.ErrNotFound, "cli", "jobs", "no job "+id, nil)
	}
	return match, nil
}

func parseStatusFlags(values []string) ([]jobs.Status, error) {
	var statuses []jobs.Status
	for _, value := range values {
		status, ok := jobs.ParseStatus(value)
		if !ok {
			names := make([]string, 0, len(jobs.AllStatuses()))
			for _, s := range jobs.AllStatuses() {
				names = append(names, string(s))
			}
			return nil, services.Wrap(services.ErrValidation, "cli", "jobs",
				fmt.Sprintf("unknown status %q (valid: %s)", value, strings.Join(names, ", ")), nil)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func buildJobRows(items []*jobs.Job) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		id := item.ID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, []string{
			id,
			filepath.Base(item.SourcePath),
			string(item.Status),
			fmt.Sprintf("%.0f%%", item.Percent()),
			strconv.Itoa(item.Segments),
			strconv.Itoa(item.Frames),
			item.StartedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func formatProgress(job *jobs.Job) string {
	cursor := job.Cursor
	if job.Duration > 0 && cursor > job.Duration {
		cursor = job.Duration
	}
	return fmt.Sprintf("%.1fs of %.1fs (%.0f%%)", cursor, job.Duration, job.Percent())
}
