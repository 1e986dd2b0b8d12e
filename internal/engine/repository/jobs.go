package repository

import (
	"context"
	"time"

	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/mirror/internal/engine/store"
	"go.trai.ch/zerr"
)

// JobRepository manages extraction jobs.
type JobRepository struct {
	*Hot[domain.Job, domain.JobPatch]
}

// NewJobRepository creates the jobs repository.
func NewJobRepository(deps Deps) *JobRepository {
	return &JobRepository{Hot: NewHot[domain.Job, domain.JobPatch](deps, domain.TypeJobs)}
}

// ListByProject returns the jobs of a project.
func (r *JobRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Job, error) {
	return r.GetAll(ctx, domain.Filters{"project_id": projectID})
}

// ListByStatus returns the jobs in the given status.
func (r *JobRepository) ListByStatus(ctx context.Context, status domain.JobStatus) ([]domain.Job, error) {
	return r.GetAll(ctx, domain.Filters{"status": string(status)})
}

// TransitionStatus moves a stored job to status optimistically, stamping the
// start and completion times the transition implies.
func (r *JobRepository) TransitionStatus(
	ctx context.Context,
	id string,
	status domain.JobStatus,
	now time.Time,
) (domain.Job, error) {
	current, ok := store.Get[domain.Job](r.deps.Store, r.typ, id)
	if !ok {
		err := zerr.With(zerr.Wrap(domain.ErrEntityNotPresent, "transition job"), "type", string(r.typ))
		return domain.Job{}, zerr.With(err, "id", id)
	}

	patch, err := domain.TransitionPatch(current, status, now)
	if err != nil {
		return domain.Job{}, zerr.With(err, "id", id)
	}
	return r.UpdateOptimistic(ctx, id, patch)
}

// Cancel asks the backend to cancel a job and stores the result.
func (r *JobRepository) Cancel(ctx context.Context, id string) (domain.Job, error) {
	var out domain.Job
	if err := r.deps.Transport.Post(ctx, r.typ.ItemPath(id)+"/cancel", nil, &out); err != nil {
		return domain.Job{}, err
	}
	if err := checkResponse(out, id); err != nil {
		return domain.Job{}, err
	}
	if err := r.hydrate(out); err != nil {
		return domain.Job{}, err
	}
	r.invalidate(id)
	return out, nil
}
