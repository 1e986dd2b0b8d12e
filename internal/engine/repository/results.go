package repository

import (
	"context"

	"go.trai.ch/mirror/internal/core/domain"
)

// ResultRepository manages job results.
type ResultRepository struct {
	*Hot[domain.Result, domain.ResultPatch]
}

// NewResultRepository creates the results repository.
func NewResultRepository(deps Deps) *ResultRepository {
	return &ResultRepository{Hot: NewHot[domain.Result, domain.ResultPatch](deps, domain.TypeResults)}
}

// ListByJob returns the results produced by a job.
func (r *ResultRepository) ListByJob(ctx context.Context, jobID string) ([]domain.Result, error) {
	return r.GetAll(ctx, domain.Filters{"job_id": jobID})
}
