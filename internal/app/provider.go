package app

import (
	"errors"
	"sync"
	"time"

	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/mirror/internal/core/ports"
	"go.trai.ch/mirror/internal/engine/repository"
	"go.trai.ch/mirror/internal/engine/store"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Bundle holds the shared collaborators handed to every repository.
// A zero TTL selects the tier default.
type Bundle struct {
	Store     *store.Store
	Transport ports.Transport
	Channel   ports.RealtimeChannel
	Cache     ports.QueryCache
	Logger    ports.Logger
	ColdTTL   time.Duration
	HotTTL    time.Duration
}

func (b Bundle) validate() error {
	missing := func(name string) error {
		return zerr.With(zerr.Wrap(domain.ErrValidation, "incomplete persistence bundle"), "missing", name)
	}
	switch {
	case b.Store == nil:
		return missing("store")
	case b.Transport == nil:
		return missing("transport")
	case b.Channel == nil:
		return missing("channel")
	case b.Logger == nil:
		return missing("logger")
	}
	return nil
}

// cold is the bundle for cold repositories: query cache, no realtime.
func (b Bundle) cold() repository.Deps {
	return repository.Deps{Store: b.Store, Transport: b.Transport, Cache: b.Cache, Logger: b.Logger, TTL: b.ColdTTL}
}

// hot is the bundle for hot repositories: realtime, cache for invalidation only.
func (b Bundle) hot() repository.Deps {
	return repository.Deps{
		Store:     b.Store,
		Transport: b.Transport,
		Cache:     b.Cache,
		Channel:   b.Channel,
		Logger:    b.Logger,
		TTL:       b.HotTTL,
	}
}

// Provider owns the repositories of one application instance. Repositories
// are built lazily on first access and cached until Reset.
type Provider struct {
	mu     sync.Mutex
	bundle *Bundle

	organizations *repository.OrganizationRepository
	projects      *repository.ProjectRepository
	jobs          *repository.JobRepository
	results       *repository.ResultRepository
	workflows     *repository.WorkflowRepository
}

// NewProvider returns an uninitialized Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Init installs the bundle. It fails when called twice without Reset.
func (p *Provider) Init(b Bundle) error {
	if err := b.validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bundle != nil {
		return zerr.Wrap(domain.ErrProviderAlreadyInitialized, "init persistence provider")
	}
	p.bundle = &b
	return nil
}

// Initialized reports whether Init has succeeded since the last Reset.
func (p *Provider) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bundle != nil
}

// Store returns the shared normalized store.
func (p *Provider) Store() (*store.Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bundle == nil {
		return nil, errNotInitialized("store")
	}
	return p.bundle.Store, nil
}

// Organizations returns the organizations repository.
func (p *Provider) Organizations() (*repository.OrganizationRepository, error) {
	return lazy(p, &p.organizations, "organizations", func(b *Bundle) *repository.OrganizationRepository {
		return repository.NewOrganizationRepository(b.cold())
	})
}

// Projects returns the projects repository.
func (p *Provider) Projects() (*repository.ProjectRepository, error) {
	return lazy(p, &p.projects, "projects", func(b *Bundle) *repository.ProjectRepository {
		return repository.NewProjectRepository(b.cold())
	})
}

// Jobs returns the jobs repository.
func (p *Provider) Jobs() (*repository.JobRepository, error) {
	return lazy(p, &p.jobs, "jobs", func(b *Bundle) *repository.JobRepository {
		return repository.NewJobRepository(b.hot())
	})
}

// Results returns the results repository.
func (p *Provider) Results() (*repository.ResultRepository, error) {
	return lazy(p, &p.results, "results", func(b *Bundle) *repository.ResultRepository {
		return repository.NewResultRepository(b.hot())
	})
}

// Workflows returns the workflows repository.
func (p *Provider) Workflows() (*repository.WorkflowRepository, error) {
	return lazy(p, &p.workflows, "workflows", func(b *Bundle) *repository.WorkflowRepository {
		return repository.NewWorkflowRepository(b.hot())
	})
}

// Reader returns the repository of t through its untyped read surface.
func (p *Provider) Reader(t domain.EntityType) (repository.Reader, error) {
	switch t {
	case domain.TypeOrganizations:
		return reader(p.Organizations)
	case domain.TypeProjects:
		return reader(p.Projects)
	case domain.TypeJobs:
		return reader(p.Jobs)
	case domain.TypeResults:
		return reader(p.Results)
	case domain.TypeWorkflows:
		return reader(p.Workflows)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownEntityType, "resolve repository"), "type", string(t))
	}
}

func reader[R repository.Reader](get func() (R, error)) (repository.Reader, error) {
	r, err := get()
	if err != nil {
		return nil, err
	}
	return r, nil
}

// HotRepositories lists the hot repositories constructed so far.
func (p *Provider) HotRepositories() []repository.Subscriber {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hotLocked()
}

func (p *Provider) hotLocked() []repository.Subscriber {
	var subs []repository.Subscriber
	if p.jobs != nil {
		subs = append(subs, p.jobs)
	}
	if p.results != nil {
		subs = append(subs, p.results)
	}
	if p.workflows != nil {
		subs = append(subs, p.workflows)
	}
	return subs
}

// SubscribeAll subscribes the hot repositories of types, constructing them as
// needed. No types means every hot type. Cold types are rejected before any
// repository is built, and a failed subscription undoes the others.
func (p *Provider) SubscribeAll(types ...domain.EntityType) error {
	if len(types) == 0 {
		for _, t := range domain.EntityTypes() {
			if domain.TierOf(t) == domain.TierHot {
				types = append(types, t)
			}
		}
	}

	for _, t := range types {
		if domain.TierOf(t) != domain.TierHot {
			return zerr.With(zerr.Wrap(domain.ErrValidation, "only hot entity types can be watched"), "type", string(t))
		}
	}

	subs := make([]repository.Subscriber, 0, len(types))
	for _, t := range types {
		r, err := p.Reader(t)
		if err != nil {
			return err
		}
		subs = append(subs, r.(repository.Subscriber))
	}

	var g errgroup.Group
	for _, s := range subs {
		g.Go(s.Subscribe)
	}
	if err := g.Wait(); err != nil {
		// All or nothing: drop the subscriptions that did succeed.
		errs := []error{err}
		for _, s := range subs {
			errs = append(errs, s.Unsubscribe())
		}
		return errors.Join(errs...)
	}
	return nil
}

// Reset unsubscribes every constructed hot repository and discards all state
// so Init may be called again.
func (p *Provider) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, s := range p.hotLocked() {
		if err := s.Unsubscribe(); err != nil {
			errs = append(errs, err)
		}
	}
	p.bundle = nil
	p.organizations = nil
	p.projects = nil
	p.jobs = nil
	p.results = nil
	p.workflows = nil
	return errors.Join(errs...)
}

func lazy[R any](p *Provider, slot **R, name string, build func(*Bundle) *R) (*R, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bundle == nil {
		return nil, errNotInitialized(name)
	}
	if *slot == nil {
		*slot = build(p.bundle)
	}
	return *slot, nil
}

func errNotInitialized(what string) error {
	return zerr.With(zerr.Wrap(domain.ErrProviderNotInitialized, "access repository"), "repository", what)
}
