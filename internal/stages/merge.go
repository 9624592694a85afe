package stages

import (
	"context"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/zerr"
)

// MergeLayers combines vector layers into one.
type MergeLayers struct {
	env    *Env
	layers []string
	output string
	crs    string
}

// NewMergeLayers requires at least two source layers and an output name.
func NewMergeLayers(env *Env, layers []string, output, crs string) (*MergeLayers, error) {
	if len(layers) < 2 {
		return nil, zerr.With(invalid(domain.StageMergeLayers, "at least two layers are required"),
			"layers", len(layers))
	}
	for _, l := range layers {
		if l == "" {
			return nil, invalid(domain.StageMergeLayers, "layer name is empty")
		}
	}
	if output == "" {
		return nil, invalid(domain.StageMergeLayers, "output name is required")
	}
	return &MergeLayers{env: env, layers: layers, output: output, crs: crs}, nil
}

// Run merges the resolved layers through native:mergevectorlayers.
func (s *MergeLayers) Run(ctx context.Context, rc domain.RunContext) (any, error) {
	paths := make([]string, 0, len(s.layers))
	for _, ref := range s.layers {
		h, err := s.env.resolveLayer(rc, ref)
		if err != nil {
			return nil, err
		}
		paths = append(paths, h.Path)
	}

	crs := s.env.crs(s.crs)
	out, err := s.env.runAlgorithm(ctx, "native:mergevectorlayers", map[string]any{
		"LAYERS": paths,
		"CRS":    crs,
		"OUTPUT": s.env.outputPath(s.output, vectorExt),
	}, "OUTPUT", scaled(rc.Progress(), 0, 1))
	if err != nil {
		return nil, err
	}
	return s.env.register(s.output, out, domain.LayerVector, crs)
}
