package httpapi

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mirror/internal/adapters/config"
	"go.trai.ch/mirror/internal/adapters/credentials"
	"go.trai.ch/mirror/internal/adapters/logger"
	"go.trai.ch/mirror/internal/adapters/telemetry"
	"go.trai.ch/mirror/internal/core/backoff"
	"go.trai.ch/mirror/internal/core/ports"
)

// NodeID is the unique identifier for the HTTP transport Graft node.
const NodeID graft.ID = "adapter.httpapi"

func init() {
	graft.Register(graft.Node[ports.Transport]{
		ID:        NodeID,
		DependsOn: []graft.ID{config.NodeID, credentials.NodeID, telemetry.TracerNodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Transport, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			creds, err := graft.Dep[ports.CredentialResolver](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(Options{
				BaseURL:       cfg.API.BaseURL,
				Timeout:       cfg.API.Timeout,
				MaxAttempts:   cfg.API.Retry.MaxAttempts,
				Backoff:       backoff.New(cfg.API.Retry.BaseDelay, cfg.API.Retry.MaxDelay),
				RetryStatuses: cfg.API.Retry.Statuses,
				HotPaths:      cfg.API.HotPaths,
			}, creds, tracer, log)
		},
	})
}
