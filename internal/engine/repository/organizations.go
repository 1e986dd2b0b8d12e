package repository

import (
	"context"

	"go.trai.ch/mirror/internal/core/domain"
)

// OrganizationRepository manages organizations.
type OrganizationRepository struct {
	*Cold[domain.Organization, domain.OrganizationPatch]
}

// NewOrganizationRepository creates the organizations repository.
func NewOrganizationRepository(deps Deps) *OrganizationRepository {
	return &OrganizationRepository{Cold: NewCold[domain.Organization, domain.OrganizationPatch](deps, domain.TypeOrganizations)}
}

// GetBySlug returns the organization with the given slug.
func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (domain.Organization, bool, error) {
	orgs, err := r.GetAll(ctx, domain.Filters{"slug": slug})
	if err != nil {
		return domain.Organization{}, false, err
	}
	for _, o := range orgs {
		if o.Slug == slug {
			return o, true, nil
		}
	}
	return domain.Organization{}, false, nil
}
