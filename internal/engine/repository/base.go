// Package repository implements the typed repositories that mediate between
// callers, the HTTP transport and the normalized store.
//
// Every repository exposes the same five primitives (GetByID, GetAll, Create,
// Update, Delete) plus UpdateOptimistic. Cold repositories route reads through
// the query cache; hot repositories read straight from the transport and keep
// the store current through realtime change notifications.
package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/mirror/internal/core/ports"
	"go.trai.ch/mirror/internal/engine/store"
	"go.trai.ch/zerr"
)

// Deps bundles the collaborators of a repository. Cache and Channel are
// optional; a zero TTL selects the tier default.
type Deps struct {
	Store     *store.Store
	Transport ports.Transport
	Cache     ports.QueryCache
	Channel   ports.RealtimeChannel
	Logger    ports.Logger
	TTL       time.Duration
}

// Reader is the untyped read surface shared by every repository.
type Reader interface {
	Type() domain.EntityType
	Lookup(ctx context.Context, id string) (domain.Entity, bool, error)
	Query(ctx context.Context, filters domain.Filters) ([]domain.Entity, error)
}

// Base implements the repository primitives for one entity type.
type Base[T domain.Entity, P domain.Patch[T]] struct {
	deps   Deps
	typ    domain.EntityType
	ttl    time.Duration
	cached bool
}

func newBase[T domain.Entity, P domain.Patch[T]](deps Deps, t domain.EntityType, fallback time.Duration) *Base[T, P] {
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = fallback
	}
	return &Base[T, P]{deps: deps, typ: t, ttl: ttl}
}

// Type returns the entity type the repository manages.
func (r *Base[T, P]) Type() domain.EntityType {
	return r.typ
}

// TTL returns the query cache lifetime of the repository's tier.
func (r *Base[T, P]) TTL() time.Duration {
	return r.ttl
}

// GetByID fetches one entity and hydrates the store. A missing entity is
// reported as ok == false with a nil error.
func (r *Base[T, P]) GetByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	fetch := func(ctx context.Context) (any, error) {
		var out T
		if err := r.deps.Transport.Get(ctx, r.typ.ItemPath(id), nil, &out); err != nil {
			return nil, err
		}
		if err := checkResponse(out, id); err != nil {
			return nil, err
		}
		return out, nil
	}

	v, err := r.read(ctx, domain.DetailKey(r.typ, id), fetch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, err
	}

	out, ok := v.(T)
	if !ok {
		return zero, false, r.unexpected(v)
	}
	if err := r.hydrate(out); err != nil {
		return zero, false, err
	}
	return out, true, nil
}

// GetAll fetches a collection and merges it into the store. Entities already
// stored but absent from the response are kept.
func (r *Base[T, P]) GetAll(ctx context.Context, filters domain.Filters) ([]T, error) {
	fetch := func(ctx context.Context) (any, error) {
		var out []T
		if err := r.deps.Transport.Get(ctx, r.typ.CollectionPath(), filters.Values(), &out); err != nil {
			return nil, err
		}
		for _, e := range out {
			if err := checkResponse(e, ""); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	v, err := r.read(ctx, domain.ListKey(r.typ, filters), fetch)
	if err != nil {
		return nil, err
	}

	list, ok := v.([]T)
	if !ok {
		return nil, r.unexpected(v)
	}
	if err := r.hydrate(list...); err != nil {
		return nil, err
	}
	return slices.Clone(list), nil
}

// Create posts a draft and stores the entity returned by the server.
func (r *Base[T, P]) Create(ctx context.Context, draft T) (T, error) {
	var zero T
	var out T
	if err := r.deps.Transport.Post(ctx, r.typ.CollectionPath(), draft, &out); err != nil {
		return zero, err
	}
	if err := checkResponse(out, ""); err != nil {
		return zero, err
	}
	if err := r.hydrate(out); err != nil {
		return out, err
	}
	r.invalidate(out.EntityID())
	return out, nil
}

// Update validates and sends a patch, then stores the server's entity.
func (r *Base[T, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	var zero T
	if err := patch.Validate(); err != nil {
		return zero, err
	}

	var out T
	if err := r.deps.Transport.Patch(ctx, r.typ.ItemPath(id), patch, &out); err != nil {
		return zero, err
	}
	if err := checkResponse(out, id); err != nil {
		return zero, err
	}
	if err := r.hydrate(out); err != nil {
		return out, err
	}
	r.invalidate(id)
	return out, nil
}

// Delete removes an entity upstream and, only on success, from the store.
func (r *Base[T, P]) Delete(ctx context.Context, id string) error {
	if err := r.deps.Transport.Delete(ctx, r.typ.ItemPath(id), nil); err != nil {
		return err
	}
	r.deps.Store.Remove(r.typ, id)
	r.invalidate(id)
	return nil
}

// UpdateOptimistic applies patch to the stored entity immediately, sends it
// upstream and reconciles. On failure the stored entity is restored to its
// snapshot and the error slot of the type is filled. Transport errors are
// returned unchanged; a response without the requested id fails the same way.
func (r *Base[T, P]) UpdateOptimistic(ctx context.Context, id string, patch P) (T, error) {
	var zero T

	snapshot, ok := store.Get[T](r.deps.Store, r.typ, id)
	if !ok {
		err := zerr.With(zerr.Wrap(domain.ErrEntityNotPresent, "optimistic update"), "type", string(r.typ))
		return zero, zerr.With(err, "id", id)
	}
	if err := patch.Validate(); err != nil {
		return zero, err
	}

	if err := r.deps.Store.Set(r.typ, patch.Apply(snapshot)); err != nil {
		return zero, err
	}
	r.deps.Store.ClearError(r.typ)

	var out T
	err := r.deps.Transport.Patch(ctx, r.typ.ItemPath(id), patch, &out)
	if err == nil {
		err = checkResponse(out, id)
	}
	if err != nil {
		if setErr := r.deps.Store.Set(r.typ, snapshot); setErr != nil {
			r.deps.Logger.Error(setErr)
		}
		r.deps.Store.SetError(r.typ, err.Error())
		r.deps.Logger.Warn(fmt.Sprintf("rolled back optimistic update of %s/%s", r.typ, id))
		return zero, err
	}

	if err := r.hydrate(out); err != nil {
		return zero, err
	}
	r.invalidate(id)
	return out, nil
}

// Lookup implements Reader.
func (r *Base[T, P]) Lookup(ctx context.Context, id string) (domain.Entity, bool, error) {
	v, ok, err := r.GetByID(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	return v, true, nil
}

// Query implements Reader.
func (r *Base[T, P]) Query(ctx context.Context, filters domain.Filters) ([]domain.Entity, error) {
	list, err := r.GetAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	return entities(list), nil
}

func (r *Base[T, P]) read(ctx context.Context, key domain.QueryKey, fetch ports.QueryFunc) (any, error) {
	if r.cached && r.deps.Cache != nil {
		return r.deps.Cache.FetchQuery(ctx, key, r.ttl, fetch)
	}
	return fetch(ctx)
}

func (r *Base[T, P]) hydrate(items ...T) error {
	if err := r.deps.Store.SetMany(r.typ, entities(items)...); err != nil {
		return zerr.With(zerr.Wrap(err, "hydrate store"), "type", string(r.typ))
	}
	return nil
}

// checkResponse rejects a server entity without a usable id, or with an id
// other than want when want is set.
func checkResponse(out domain.Entity, want string) error {
	got := out.EntityID()
	if domain.ValidID(got) && (want == "" || got == want) {
		return nil
	}
	err := zerr.With(zerr.Wrap(domain.ErrNetwork, "malformed server response"), "type", string(out.EntityType()))
	err = zerr.With(err, "id", got)
	if want != "" {
		err = zerr.With(err, "want_id", want)
	}
	return err
}

func (r *Base[T, P]) invalidate(id string) {
	if r.deps.Cache == nil {
		return
	}
	if id != "" {
		r.deps.Cache.InvalidateQueries(domain.DetailKey(r.typ, id))
	}
	r.deps.Cache.InvalidateQueries(domain.ListPrefix(r.typ))
}

func (r *Base[T, P]) unexpected(v any) error {
	err := zerr.With(zerr.Wrap(domain.ErrTypeMismatch, "unexpected cached value"), "type", string(r.typ))
	return zerr.With(err, "value_type", fmt.Sprintf("%T", v))
}

func entities[T domain.Entity](items []T) []domain.Entity {
	out := make([]domain.Entity, len(items))
	for i, v := range items {
		out[i] = v
	}
	return out
}
