package repository

import (
	"context"

	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/mirror/internal/engine/store"
	"go.trai.ch/zerr"
)

// WorkflowRepository manages workflow definitions.
type WorkflowRepository struct {
	*Hot[domain.Workflow, domain.WorkflowPatch]
}

// NewWorkflowRepository creates the workflows repository.
func NewWorkflowRepository(deps Deps) *WorkflowRepository {
	return &WorkflowRepository{Hot: NewHot[domain.Workflow, domain.WorkflowPatch](deps, domain.TypeWorkflows)}
}

// ListByProject returns the workflows of a project.
func (r *WorkflowRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Workflow, error) {
	return r.GetAll(ctx, domain.Filters{"project_id": projectID})
}

// Run starts a workflow. The job created by the backend is stored in the jobs
// table and recorded as the workflow's last run.
func (r *WorkflowRepository) Run(ctx context.Context, id string) (domain.Job, error) {
	var job domain.Job
	if err := r.deps.Transport.Post(ctx, r.typ.ItemPath(id)+"/run", nil, &job); err != nil {
		return domain.Job{}, err
	}
	if err := checkResponse(job, ""); err != nil {
		return domain.Job{}, err
	}
	if err := r.deps.Store.Set(domain.TypeJobs, job); err != nil {
		return domain.Job{}, zerr.Wrap(err, "store workflow run")
	}

	if wf, ok := store.Get[domain.Workflow](r.deps.Store, r.typ, id); ok {
		wf.LastRunID = job.ID
		if err := r.deps.Store.Set(r.typ, wf); err != nil {
			return job, err
		}
	}
	r.invalidate(id)
	if r.deps.Cache != nil {
		r.deps.Cache.InvalidateQueries(domain.ListPrefix(domain.TypeJobs))
	}
	return job, nil
}
