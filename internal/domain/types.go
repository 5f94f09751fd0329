package domain

import "time"

// JobStatus tracks the lifecycle of a single conversion job.
type JobStatus string

const (
	JobStatusIdle      JobStatus = "idle"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Settings contains user-selectable runtime configuration.
type Settings struct {
	// OutputDir is where converted files go. Empty means a converted_fonts
	// folder next to the first input file.
	OutputDir string   `json:"outputDir"`
	Formats   []string `json:"formats"`
}

// Job stores the current job identity, parameters and lifecycle status.
// EventSeq is the event sequence just before the job's first event.
type Job struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	OutputDir  string    `json:"outputDir,omitempty"`
	Formats    []string  `json:"formats,omitempty"`
	TotalFiles int       `json:"totalFiles,omitempty"`
	StartedAt  time.Time `json:"startedAt,omitempty"`
	EventSeq   int64     `json:"eventSeq"`
}
