package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mirror/internal/adapters/config"
	"go.trai.ch/mirror/internal/adapters/httpapi"
	"go.trai.ch/mirror/internal/adapters/logger"
	"go.trai.ch/mirror/internal/adapters/querycache"
	"go.trai.ch/mirror/internal/adapters/realtime"
	"go.trai.ch/mirror/internal/core/ports"
	"go.trai.ch/mirror/internal/engine/store"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the app components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the initialized application components.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID: AppNodeID,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			store.NodeID,
			querycache.NodeID,
			httpapi.NodeID,
			realtime.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			s, err := graft.Dep[*store.Store](ctx)
			if err != nil {
				return nil, err
			}
			cache, err := graft.Dep[*querycache.Cache](ctx)
			if err != nil {
				return nil, err
			}
			transport, err := graft.Dep[ports.Transport](ctx)
			if err != nil {
				return nil, err
			}
			channel, err := graft.Dep[ports.RealtimeChannel](ctx)
			if err != nil {
				return nil, err
			}

			if l, ok := log.(*logger.Logger); ok {
				l.SetJSON(cfg.Log.JSON)
				l.SetLevel(logger.ParseLevel(cfg.Log.Level))
			}

			return New(Bundle{
				Store:     s,
				Transport: transport,
				Channel:   channel,
				Cache:     cache,
				Logger:    log,
				ColdTTL:   cfg.Cache.ColdTTL,
				HotTTL:    cfg.Cache.HotTTL,
			}, cfg, cache)
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		DependsOn: []graft.ID{AppNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}
