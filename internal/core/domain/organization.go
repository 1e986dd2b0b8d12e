package domain

import (
	"regexp"
	"time"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Organization is cold reference data owning projects.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Plan      string    `json:"plan,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityID implements Entity.
func (o Organization) EntityID() string { return o.ID }

// EntityType implements Entity.
func (Organization) EntityType() EntityType { return TypeOrganizations }

// OrganizationPatch updates the mutable fields of an Organization.
type OrganizationPatch struct {
	Name *string `json:"name,omitempty"`
	Slug *string `json:"slug,omitempty"`
	Plan *string `json:"plan,omitempty"`
}

// Validate implements Patch.
func (p OrganizationPatch) Validate() error {
	if err := requireNonBlank("name", p.Name); err != nil {
		return err
	}
	if p.Slug != nil && !slugPattern.MatchString(*p.Slug) {
		return invalidField("slug", "must be lowercase alphanumerics separated by hyphens")
	}
	return nil
}

// Apply implements Patch.
func (p OrganizationPatch) Apply(o Organization) Organization {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Slug != nil {
		o.Slug = *p.Slug
	}
	if p.Plan != nil {
		o.Plan = *p.Plan
	}
	return o
}
