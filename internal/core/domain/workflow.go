package domain

import (
	"slices"
	"time"
)

// Workflow describes an ordered list of extraction steps run as jobs.
type Workflow struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Steps     []string  `json:"steps"`
	Enabled   bool      `json:"enabled"`
	LastRunID string    `json:"last_run_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityID implements Entity.
func (w Workflow) EntityID() string { return w.ID }

// EntityType implements Entity.
func (Workflow) EntityType() EntityType { return TypeWorkflows }

// WorkflowPatch updates the mutable fields of a Workflow.
// Steps replace the stored list entirely.
type WorkflowPatch struct {
	Name    *string  `json:"name,omitempty"`
	Steps   []string `json:"steps,omitempty"`
	Enabled *bool    `json:"enabled,omitempty"`
}

// Validate implements Patch.
func (p WorkflowPatch) Validate() error {
	if err := requireNonBlank("name", p.Name); err != nil {
		return err
	}
	if slices.Contains(p.Steps, "") {
		return invalidField("steps", "must not contain empty step names")
	}
	return nil
}

// Apply implements Patch.
func (p WorkflowPatch) Apply(w Workflow) Workflow {
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Steps != nil {
		w.Steps = slices.Clone(p.Steps)
	}
	if p.Enabled != nil {
		w.Enabled = *p.Enabled
	}
	return w
}
