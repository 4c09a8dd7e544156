package jobs

import (
	"strings"
	"time"
)

// Status is the registry view of a run.
type Status string

const (
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusInterrupted Status = "interrupted"
	StatusFailed      Status = "failed"
	StatusSkipped     Status = "skipped"
)

var allStatuses = []Status{
	StatusRunning,
	StatusCompleted,
	StatusInterrupted,
	StatusFailed,
	StatusSkipped,
}

// AllStatuses returns every known status in display order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus maps user input onto a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Finished reports whether the status is terminal for a run.
func (s Status) Finished() bool {
	return s != StatusRunning
}

// Job is one recorded run.
type Job struct {
	ID             string
	SourcePath     string
	OutputDir      string
	CheckpointPath string
	Status         Status
	Cursor         float64
	Duration       float64
	Windows        int
	Segments       int
	Frames         int
	ErrorMessage   string
	StartedAt      time.Time
	UpdatedAt      time.Time
	FinishedAt     *time.Time
}

// Percent returns progress through the media as 0-100.
func (j Job) Percent() float64 {
	if j.Duration <= 0 {
		return 0
	}
	p := j.Cursor / j.Duration * 100
	if p > 100 {
		return 100
	}
	return p
}
