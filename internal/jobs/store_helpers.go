package jobs

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job            Job
		statusStr      string
		checkpointPath sql.NullString
		errorMessage   sql.NullString
		startedRaw     string
		updatedRaw     string
		finishedRaw    sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&job.SourcePath,
		&job.OutputDir,
		&checkpointPath,
		&statusStr,
		&job.Cursor,
		&job.Duration,
		&job.Windows,
		&job.Segments,
		&job.Frames,
		&errorMessage,
		&startedRaw,
		&updatedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	job.Status = Status(statusStr)
	job.CheckpointPath = checkpointPath.String
	job.ErrorMessage = errorMessage.String

	var err error
	if job.StartedAt, err = parseTimeString(startedRaw); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if job.UpdatedAt, err = parseTimeString(updatedRaw); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if finishedRaw.Valid && finishedRaw.String != "" {
		finished, err := parseTimeString(finishedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		job.FinishedAt = &finished
	}
	return &job, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
