package realtime

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mirror/internal/adapters/config"
	"go.trai.ch/mirror/internal/adapters/credentials"
	"go.trai.ch/mirror/internal/adapters/logger"
	"go.trai.ch/mirror/internal/core/backoff"
	"go.trai.ch/mirror/internal/core/ports"
)

// NodeID is the unique identifier for the realtime channel Graft node.
const NodeID graft.ID = "adapter.realtime"

func init() {
	graft.Register(graft.Node[ports.RealtimeChannel]{
		ID:        NodeID,
		DependsOn: []graft.ID{config.NodeID, credentials.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.RealtimeChannel, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			creds, err := graft.Dep[ports.CredentialResolver](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			rt := cfg.Realtime
			return New(Options{
				Dialer:               WebsocketDialer{HandshakeTimeout: cfg.API.Timeout, Credentials: creds},
				HeartbeatInterval:    rt.HeartbeatInterval,
				LivenessTimeout:      rt.LivenessTimeout,
				QueueSize:            rt.QueueSize,
				Reconnect:            backoff.New(rt.Reconnect.BaseDelay, rt.Reconnect.MaxDelay),
				MaxReconnectAttempts: rt.Reconnect.MaxAttempts,
			}, log), nil
		},
	})
}
