package querycache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mirror/internal/adapters/config"
)

// NodeID is the unique identifier for the query cache Graft node.
const NodeID graft.ID = "adapter.querycache"

func init() {
	graft.Register(graft.Node[*Cache]{
		ID:        NodeID,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (*Cache, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			return New(Options{DefaultTTL: cfg.Cache.ColdTTL, Capacity: cfg.Cache.Capacity}), nil
		},
	})
}
