package jobs

import (
	"errors"
	"fmt"
	"sync"

	"font-converter/internal/domain"
)

// ErrJobAlreadyRunning is returned when starting a second active job.
var ErrJobAlreadyRunning = errors.New("job already running")

// ErrNoRunningJob is returned when cancel is requested for idle state.
var ErrNoRunningJob = errors.New("no running job")

// Manager tracks the single allowed active job and its transitions.
type Manager struct {
	mu      sync.RWMutex
	current domain.Job
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Job{
			Status: domain.JobStatusIdle,
		},
	}
}

// Start replaces any finished job with job and moves it to running.
func (m *Manager) Start(job domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status == domain.JobStatusRunning {
		return ErrJobAlreadyRunning
	}
	if job.ID == "" {
		return fmt.Errorf("job id is required")
	}

	job.Status = domain.JobStatusRunning
	m.current = job
	return nil
}

// Transition validates and applies state transitions for current job.
func (m *Manager) Transition(status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && status != domain.JobStatusIdle {
		return fmt.Errorf("cannot transition without an active job")
	}
	if status == m.current.Status {
		return nil
	}
	if !isValidTransition(m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.current.Status = status
	return nil
}

// Current returns a snapshot of the current job.
func (m *Manager) Current() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job := m.current
	job.Formats = append([]string(nil), m.current.Formats...)
	return job
}

// Reset clears job metadata and returns manager to idle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Job{Status: domain.JobStatusIdle}
}

// IsRunning reports whether a job is currently being processed.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Status == domain.JobStatusRunning
}

// Cancel moves an active job to cancelled state.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status != domain.JobStatusRunning {
		return ErrNoRunningJob
	}
	m.current.Status = domain.JobStatusCancelled
	return nil
}

// isValidTransition enforces Idle -> Running -> {Completed, Cancelled}.
// Finished jobs may only be cleared; a new run goes through Start.
func isValidTransition(from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusRunning:
		return to == domain.JobStatusCompleted || to == domain.JobStatusCancelled
	case domain.JobStatusCompleted, domain.JobStatusCancelled:
		return to == domain.JobStatusIdle
	default:
		return false
	}
}
