package store

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/drainage/internal/adapters/fs"
	"go.trai.ch/drainage/internal/core/ports"
)

// NodeID is the graft node of the layer store.
const NodeID graft.ID = "adapter.layer_store"

func init() {
	graft.Register(graft.Node[ports.LayerStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.HasherNodeID, fs.WalkerNodeID},
		Run: func(ctx context.Context) (ports.LayerStore, error) {
			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			walker, err := graft.Dep[*fs.Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(hasher, walker), nil
		},
	})
}
