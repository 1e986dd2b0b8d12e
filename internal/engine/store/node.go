package store

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the entity store Graft node.
const NodeID graft.ID = "engine.store"

func init() {
	graft.Register(graft.Node[*Store]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Store, error) {
			return New(), nil
		},
	})
}
