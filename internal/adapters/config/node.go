package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/drainage/internal/adapters/logger"
	"go.trai.ch/drainage/internal/core/ports"
)

// NodeID is the graft node of the pipeline loader.
const NodeID graft.ID = "adapter.config_loader"

func init() {
	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ConfigLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})
}
