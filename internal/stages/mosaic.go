package stages

import (
	"context"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/zerr"
)

// BuildMosaic merges raster tiles into one raster. Inputs are stage outputs,
// layer names or glob patterns resolved when the stage runs.
type BuildMosaic struct {
	env    *Env
	inputs []string
	output string
}

// NewBuildMosaic requires at least one input and an output name.
func NewBuildMosaic(env *Env, inputs []string, output string) (*BuildMosaic, error) {
	if len(inputs) == 0 {
		return nil, invalid(domain.StageBuildMosaic, "at least one input is required")
	}
	if output == "" {
		return nil, invalid(domain.StageBuildMosaic, "output name is required")
	}
	return &BuildMosaic{env: env, inputs: inputs, output: output}, nil
}

// Run merges the tiles through gdal:merge.
func (s *BuildMosaic) Run(ctx context.Context, rc domain.RunContext) (any, error) {
	var (
		tiles    []string
		patterns []string
	)
	for _, in := range s.inputs {
		if h, err := s.env.resolveLayer(rc, in); err == nil {
			tiles = append(tiles, h.Path)
			continue
		}
		patterns = append(patterns, in)
	}
	if len(patterns) > 0 {
		files, err := s.env.Resolver.ResolveInputs(patterns, s.env.Root)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "resolve mosaic inputs"), "stage", domain.StageBuildMosaic)
		}
		tiles = append(tiles, files...)
	}

	out, err := s.env.runAlgorithm(ctx, "gdal:merge", map[string]any{
		"INPUT":     tiles,
		"PCT":       false,
		"SEPARATE":  false,
		"DATA_TYPE": dataFloat32,
		"OUTPUT":    s.env.outputPath(s.output, rasterExt),
	}, "OUTPUT", scaled(rc.Progress(), 0, 1))
	if err != nil {
		return nil, err
	}
	return s.env.register(s.output, out, domain.LayerRaster, s.env.CRS)
}

// ClipMosaic cuts a raster to the outline of a mask layer.
type ClipMosaic struct {
	env    *Env
	raster string
	mask   string
	output string
}

// NewClipMosaic requires the raster, the mask and an output name.
func NewClipMosaic(env *Env, raster, mask, output string) (*ClipMosaic, error) {
	if raster == "" {
		return nil, invalid(domain.StageClipMosaic, "raster is required")
	}
	if mask == "" {
		return nil, invalid(domain.StageClipMosaic, "mask layer is required")
	}
	if output == "" {
		return nil, invalid(domain.StageClipMosaic, "output name is required")
	}
	return &ClipMosaic{env: env, raster: raster, mask: mask, output: output}, nil
}

// Run clips through gdal:cliprasterbymasklayer. The raster may be a stage
// output, a layer name or a file path.
func (s *ClipMosaic) Run(ctx context.Context, rc domain.RunContext) (any, error) {
	in := s.env.resolveRaster(rc, s.raster)
	mask, err := s.env.resolveLayer(rc, s.mask)
	if err != nil {
		return nil, err
	}

	out, err := s.env.runAlgorithm(ctx, "gdal:cliprasterbymasklayer", map[string]any{
		"INPUT":           in.Path,
		"MASK":            mask.Path,
		"CROP_TO_CUTLINE": true,
		"KEEP_RESOLUTION": true,
		"OUTPUT":          s.env.outputPath(s.output, rasterExt),
	}, "OUTPUT", scaled(rc.Progress(), 0, 1))
	if err != nil {
		return nil, err
	}
	return s.env.register(s.output, out, domain.LayerRaster, in.CRS)
}
