package stages

import (
	"context"

	"go.trai.ch/drainage/internal/core/domain"
)

// LoadLayer opens a source file and registers it under a layer name.
type LoadLayer struct {
	env  *Env
	path string
	name string
}

// NewLoadLayer validates the source path and layer name.
func NewLoadLayer(env *Env, path, name string) (*LoadLayer, error) {
	if path == "" {
		return nil, invalid(domain.StageLoadLayer, "path is required")
	}
	if name == "" {
		return nil, invalid(domain.StageLoadLayer, "layer name is required")
	}
	return &LoadLayer{env: env, path: path, name: name}, nil
}

// Run loads the layer and returns its handle.
func (s *LoadLayer) Run(ctx context.Context, rc domain.RunContext) (any, error) {
	h, err := s.env.Store.Load(ctx, s.env.abs(s.path), s.name)
	if err != nil {
		return nil, err
	}
	rc.Progress().Report(100)
	return h, nil
}
