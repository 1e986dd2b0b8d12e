package config

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/mirror/internal/adapters/logger"
	"go.trai.ch/mirror/internal/core/ports"
)

// NodeID is the unique identifier for the configuration Graft node.
const NodeID graft.ID = "adapter.config"

func init() {
	graft.Register(graft.Node[*Config]{
		ID:        NodeID,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Config, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			cwd, err := os.Getwd()
			if err != nil {
				cwd = ""
			}
			return NewLoader(log).Load(cwd, PathFrom(ctx))
		},
	})
}
