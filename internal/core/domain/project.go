package domain

import "time"

// Project groups jobs and workflows under an organization.
type Project struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Archived       bool      `json:"archived"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EntityID implements Entity.
func (p Project) EntityID() string { return p.ID }

// EntityType implements Entity.
func (Project) EntityType() EntityType { return TypeProjects }

// ProjectPatch updates the mutable fields of a Project.
// The owning organization is fixed at creation.
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Archived    *bool   `json:"archived,omitempty"`
}

// Validate implements Patch.
func (p ProjectPatch) Validate() error {
	return requireNonBlank("name", p.Name)
}

// Apply implements Patch.
func (p ProjectPatch) Apply(pr Project) Project {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.Archived != nil {
		pr.Archived = *p.Archived
	}
	return pr
}
