// Package app ties the repositories, the realtime channel and the query cache
// into the operations exposed by the mirror CLI.
package app

import (
	"context"
	"errors"

	"go.trai.ch/mirror/internal/adapters/config"
	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/mirror/internal/core/ports"
	"go.trai.ch/mirror/internal/engine/store"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Runner is a background service that runs until ctx is done.
type Runner interface {
	Run(ctx context.Context)
}

// StateNotifier is implemented by channels that report state transitions.
type StateNotifier interface {
	OnStateChange(fn func(ports.ChannelState)) (cancel func())
}

// Event is a store change with the entity it refers to. Entity is nil for
// removals and error-slot changes.
type Event struct {
	store.Change
	Entity domain.Entity
}

// App is the main application logic.
type App struct {
	provider *Provider
	bundle   Bundle
	config   *config.Config
	services []Runner
}

// New creates an App around an initialized persistence provider.
func New(b Bundle, cfg *config.Config, services ...Runner) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if b.ColdTTL == 0 {
		b.ColdTTL = cfg.Cache.ColdTTL
	}
	if b.HotTTL == 0 {
		b.HotTTL = cfg.Cache.HotTTL
	}

	p := NewProvider()
	if err := p.Init(b); err != nil {
		return nil, err
	}
	return &App{provider: p, bundle: b, config: cfg, services: services}, nil
}

// Provider returns the persistence provider.
func (a *App) Provider() *Provider {
	return a.provider
}

// Config returns the effective configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Get reads a single entity of type t.
func (a *App) Get(ctx context.Context, t domain.EntityType, id string) (domain.Entity, error) {
	r, err := a.provider.Reader(t)
	if err != nil {
		return nil, err
	}
	e, ok, err := r.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrNotFound, "entity not found"), "type", string(t)), "id", id)
	}
	return e, nil
}

// List reads the collection of type t matching filters.
func (a *App) List(ctx context.Context, t domain.EntityType, filters domain.Filters) ([]domain.Entity, error) {
	r, err := a.provider.Reader(t)
	if err != nil {
		return nil, err
	}
	return r.Query(ctx, filters)
}

// Watch connects the realtime channel, subscribes the hot repositories of
// types, loads their current collections and reports every store change to
// fn until ctx is done. No types means every hot type.
func (a *App) Watch(ctx context.Context, types []domain.EntityType, fn func(Event)) (err error) {
	log := a.bundle.Logger
	s := a.bundle.Store
	channel := a.bundle.Channel

	if len(types) == 0 {
		for _, t := range domain.EntityTypes() {
			if domain.TierOf(t) == domain.TierHot {
				types = append(types, t)
			}
		}
	}

	stopWatch := s.Watch(func(c store.Change) {
		ev := Event{Change: c}
		if c.Kind == store.ChangeSet {
			ev.Entity, _ = store.Get[domain.Entity](s, c.Type, c.ID)
		}
		fn(ev)
	})
	defer stopWatch()

	if n, ok := channel.(StateNotifier); ok {
		stopStates := n.OnStateChange(func(st ports.ChannelState) {
			log.Info("realtime " + st.String())
		})
		defer stopStates()
	}

	defer func() {
		err = errors.Join(err, a.unsubscribe())
	}()
	if err := a.provider.SubscribeAll(types...); err != nil {
		return err
	}

	if err := channel.Connect(ctx, a.config.RealtimeURL()); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, channel.Disconnect())
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range a.services {
		g.Go(func() error {
			svc.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		for _, t := range types {
			if _, err := a.List(gctx, t, nil); err != nil {
				return err
			}
		}
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}

// Close unsubscribes every hot repository, disconnects the realtime channel
// and releases the provider.
func (a *App) Close() error {
	return errors.Join(a.provider.Reset(), a.bundle.Channel.Disconnect())
}

func (a *App) unsubscribe() error {
	var errs []error
	for _, s := range a.provider.HotRepositories() {
		if err := s.Unsubscribe(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
