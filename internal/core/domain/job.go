package domain

import (
	"time"

	"go.trai.ch/zerr"
)

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	// JobPending is a job waiting for a worker.
	JobPending JobStatus = "pending"
	// JobRunning is a job currently executing.
	JobRunning JobStatus = "running"
	// JobSucceeded is a job that finished successfully.
	JobSucceeded JobStatus = "succeeded"
	// JobFailed is a job that finished with an error.
	JobFailed JobStatus = "failed"
	// JobCancelled is a job stopped on request.
	JobCancelled JobStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobPending, JobRunning, JobSucceeded, JobFailed, JobCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is allowed out of s.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCancelled
}

// Job is a unit of extraction work. It changes often and is pushed over realtime.
type Job struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	WorkflowID  string     `json:"workflow_id,omitempty"`
	Status      JobStatus  `json:"status"`
	Progress    float64    `json:"progress"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EntityID implements Entity.
func (j Job) EntityID() string { return j.ID }

// EntityType implements Entity.
func (Job) EntityType() EntityType { return TypeJobs }

// JobPatch updates the mutable fields of a Job.
type JobPatch struct {
	Status      *JobStatus `json:"status,omitempty"`
	Progress    *float64   `json:"progress,omitempty"`
	Error       *string    `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Validate implements Patch.
func (p JobPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return invalidField("status", "unknown status "+string(*p.Status))
	}
	if p.Progress != nil && (*p.Progress < 0 || *p.Progress > 1) {
		return invalidField("progress", "must be within [0, 1]")
	}
	if p.StartedAt != nil && p.CompletedAt != nil && p.CompletedAt.Before(*p.StartedAt) {
		return invalidField("completed_at", "must not precede started_at")
	}
	return nil
}

// Apply implements Patch.
func (p JobPatch) Apply(j Job) Job {
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.Progress != nil {
		j.Progress = *p.Progress
	}
	if p.Error != nil {
		j.Error = *p.Error
	}
	if p.StartedAt != nil {
		t := *p.StartedAt
		j.StartedAt = &t
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		j.CompletedAt = &t
	}
	return j
}

// TransitionPatch builds the patch moving current to status `to` at `now`.
// Entering running stamps started_at once; entering a terminal status stamps
// completed_at and, for succeeded, pins progress to 1.
func TransitionPatch(current Job, to JobStatus, now time.Time) (JobPatch, error) {
	if !to.Valid() {
		return JobPatch{}, invalidField("status", "unknown status "+string(to))
	}
	if current.Status.Terminal() && current.Status != to {
		return JobPatch{}, zerr.With(
			zerr.With(zerr.Wrap(ErrInvalidTransition, "job already finished"), "from", string(current.Status)),
			"to", string(to),
		)
	}

	now = now.UTC()
	patch := JobPatch{Status: &to}
	switch {
	case to == JobRunning && current.StartedAt == nil:
		patch.StartedAt = &now
	case to.Terminal():
		patch.CompletedAt = &now
		if current.StartedAt == nil {
			patch.StartedAt = &now
		}
		if to == JobSucceeded {
			done := 1.0
			patch.Progress = &done
		}
	}
	return patch, nil
}
