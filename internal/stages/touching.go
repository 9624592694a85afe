package stages

import (
	"context"

	"go.trai.ch/drainage/internal/core/domain"
)

// predicateTouches is the extract-by-location code for "touches".
const predicateTouches = 4

// FindTouching keeps the features of one layer that touch another.
type FindTouching struct {
	env     *Env
	input   string
	overlay string
	output  string
}

// NewFindTouching requires both layers and an output name.
func NewFindTouching(env *Env, input, overlay, output string) (*FindTouching, error) {
	if input == "" || overlay == "" {
		return nil, invalid(domain.StageFindTouching, "input and overlay layers are required")
	}
	if output == "" {
		return nil, invalid(domain.StageFindTouching, "output name is required")
	}
	return &FindTouching{env: env, input: input, overlay: overlay, output: output}, nil
}

// Run extracts the touching features through native:extractbylocation.
func (s *FindTouching) Run(ctx context.Context, rc domain.RunContext) (any, error) {
	in, err := s.env.resolveLayer(rc, s.input)
	if err != nil {
		return nil, err
	}
	overlay, err := s.env.resolveLayer(rc, s.overlay)
	if err != nil {
		return nil, err
	}

	out, err := s.env.runAlgorithm(ctx, "native:extractbylocation", map[string]any{
		"INPUT":     in.Path,
		"PREDICATE": []int{predicateTouches},
		"INTERSECT": overlay.Path,
		"OUTPUT":    s.env.outputPath(s.output, vectorExt),
	}, "OUTPUT", scaled(rc.Progress(), 0, 1))
	if err != nil {
		return nil, err
	}
	return s.env.register(s.output, out, domain.LayerVector, in.CRS)
}
