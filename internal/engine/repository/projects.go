package repository

import (
	"context"

	"go.trai.ch/mirror/internal/core/domain"
)

// ProjectRepository manages projects.
type ProjectRepository struct {
	*Cold[domain.Project, domain.ProjectPatch]
}

// NewProjectRepository creates the projects repository.
func NewProjectRepository(deps Deps) *ProjectRepository {
	return &ProjectRepository{Cold: NewCold[domain.Project, domain.ProjectPatch](deps, domain.TypeProjects)}
}

// ListByOrganization returns the projects owned by an organization.
func (r *ProjectRepository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Project, error) {
	return r.GetAll(ctx, domain.Filters{"organization_id": orgID})
}
