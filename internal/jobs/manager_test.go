package jobs

import (
	"errors"
	"testing"

	"font-converter/internal/domain"
)

// TestManagerLifecycle verifies normal progression to completed state.
func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	if m.IsRunning() {
		t.Fatal("new manager should be idle")
	}

	if err := m.Start(domain.Job{ID: "job-1", TotalFiles: 2}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !m.IsRunning() {
		t.Fatal("expected running after start")
	}
	if err := m.Transition(domain.JobStatusCompleted); err != nil {
		t.Fatalf("transition to completed: %v", err)
	}

	current := m.Current()
	if current.Status != domain.JobStatusCompleted {
		t.Fatalf("current status = %s, want completed", current.Status)
	}
	if current.TotalFiles != 2 {
		t.Fatalf("total files = %d, want 2", current.TotalFiles)
	}
}

// TestManagerRejectsInvalidTransition checks state machine constraints.
func TestManagerRejectsInvalidTransition(t *testing.T) {
	m := NewManager()
	if err := m.Transition(domain.JobStatusRunning); err == nil {
		t.Fatal("expected error without an active job")
	}

	if err := m.Start(domain.Job{ID: "job-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Transition(domain.JobStatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := m.Transition(domain.JobStatusCancelled); err == nil {
		t.Fatal("expected invalid transition error")
	}
	if err := m.Transition(domain.JobStatusRunning); err == nil {
		t.Fatal("finished jobs must not be resumed")
	}
}

// TestManagerSingleActiveJob checks a second start is rejected until the
// first job finishes, and that a finished job is replaced, not reused.
func TestManagerSingleActiveJob(t *testing.T) {
	m := NewManager()
	if err := m.Start(domain.Job{ID: "job-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start(domain.Job{ID: "job-2"}); !errors.Is(err, ErrJobAlreadyRunning) {
		t.Fatalf("second start error = %v, want %v", err, ErrJobAlreadyRunning)
	}

	if err := m.Transition(domain.JobStatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := m.Start(domain.Job{ID: "job-2"}); err != nil {
		t.Fatalf("start after completion: %v", err)
	}
	if got := m.Current(); got.ID != "job-2" || got.Status != domain.JobStatusRunning {
		t.Fatalf("current = %+v", got)
	}
}

// TestManagerCancel verifies cancel behavior and repeated cancel handling.
func TestManagerCancel(t *testing.T) {
	m := NewManager()
	if err := m.Start(domain.Job{ID: "job-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := m.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if m.Current().Status != domain.JobStatusCancelled {
		t.Fatalf("status = %s, want cancelled", m.Current().Status)
	}

	if err := m.Cancel(); err != ErrNoRunningJob {
		t.Fatalf("second cancel error = %v, want %v", err, ErrNoRunningJob)
	}

	m.Reset()
	if m.Current().Status != domain.JobStatusIdle {
		t.Fatalf("status after reset = %s, want idle", m.Current().Status)
	}
}
