package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const jobColumns = `id, source_path, output_dir, checkpoint_path, status, cursor_seconds,
    duration_seconds, windows, segments, frames, error_message, started_at, updated_at, finished_at`

// Create inserts a new run. StartedAt defaults to now.
func (s *Store) Create(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if strings.TrimSpace(job.ID) == "" {
		return errors.New("job id is required")
	}
	if job.Status == "" {
		job.Status = StatusRunning
	}
	now := time.Now().UTC()
	if job.StartedAt.IsZero() {
		job.StartedAt = now
	}
	job.UpdatedAt = now

	_, err := s.exec(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.SourcePath,
		job.OutputDir,
		nullableString(job.CheckpointPath),
		job.Status,
		job.Cursor,
		job.Duration,
		job.Windows,
		job.Segments,
		job.Frames,
		nullableString(job.ErrorMessage),
		job.StartedAt.UTC().Format(timeLayout),
		job.UpdatedAt.Format(timeLayout),
		nullableTime(job.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Update persists changes to an existing run.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	res, err := s.exec(ctx,
		`UPDATE jobs
         SET checkpoint_path = ?, status = ?, cursor_seconds = ?, duration_seconds = ?,
             windows = ?, segments = ?, frames = ?, error_message = ?, updated_at = ?, finished_at = ?
         WHERE id = ?`,
		nullableString(job.CheckpointPath),
		job.Status,
		job.Cursor,
		job.Duration,
		job.Windows,
		job.Segments,
		job.Frames,
		nullableString(job.ErrorMessage),
		job.UpdatedAt.Format(timeLayout),
		nullableTime(job.FinishedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("update job %s: %w", job.ID, sql.ErrNoRows)
	}
	return nil
}

// Get fetches a run by ID. A missing run yields (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns runs newest first, optionally filtered by status. limit <= 0
// returns every row.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY started_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Prune removes finished runs. With no statuses every non-running run is
// removed. It returns the number of rows deleted.
func (s *Store) Prune(ctx context.Context, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		for _, status := range allStatuses {
			if status.Finished() {
				statuses = append(statuses, status)
			}
		}
	}
	placeholders := make([]string, 0, len(statuses))
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		if !status.Finished() {
			continue
		}
		placeholders = append(placeholders, "?")
		args = append(args, status)
	}
	if len(placeholders) == 0 {
		return 0, nil
	}
	res, err := s.exec(ctx,
		`DELETE FROM jobs WHERE status IN (`+strings.Join(placeholders, ",")+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of runs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}
