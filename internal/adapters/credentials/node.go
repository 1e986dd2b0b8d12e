package credentials

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mirror/internal/adapters/config"
	"go.trai.ch/mirror/internal/core/ports"
)

// NodeID is the unique identifier for the credential resolver Graft node.
const NodeID graft.ID = "adapter.credentials"

func init() {
	graft.Register(graft.Node[ports.CredentialResolver]{
		ID:        NodeID,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.CredentialResolver, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			return New(Source{
				Token:     cfg.Auth.Token,
				TokenEnv:  cfg.Auth.TokenEnv,
				TokenFile: cfg.Auth.TokenFile,
			}), nil
		},
	})
}
