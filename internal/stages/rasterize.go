package stages

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/zerr"
)

// Rasterization defaults, matching the grids produced by the mosaic stages.
const (
	unitsPixels   = 0
	dataFloat32   = 5
	defaultBurn   = 10.0
	sumExpression = " + "
)

// RasterizeVector burns vector layers onto the grid of a reference raster and
// sums the burned rasters into one.
type RasterizeVector struct {
	env        *Env
	layers     []string
	reference  string
	descriptor *domain.RasterDescriptor
	output     string
	burn       float64
}

// NewRasterizeVector requires a non-empty layer list and a reference raster.
// A descriptor, when given, is validated now and used instead of querying the
// reference at run time.
func NewRasterizeVector(
	env *Env,
	layers []string,
	reference string,
	descriptor *domain.RasterDescriptor,
	output string,
	burn float64,
) (*RasterizeVector, error) {
	if len(layers) == 0 {
		return nil, invalid(domain.StageRasterizeVector, "at least one layer is required")
	}
	if reference == "" && descriptor == nil {
		return nil, invalid(domain.StageRasterizeVector, "reference raster is required")
	}
	if descriptor != nil {
		if err := descriptor.Validate(); err != nil {
			return nil, zerr.With(err, "stage", domain.StageRasterizeVector)
		}
	}
	if output == "" {
		return nil, invalid(domain.StageRasterizeVector, "output name is required")
	}
	if burn == 0 {
		burn = defaultBurn
	}
	return &RasterizeVector{
		env:        env,
		layers:     layers,
		reference:  reference,
		descriptor: descriptor,
		output:     output,
		burn:       burn,
	}, nil
}

// Run reprojects and rasterizes each layer, skipping the ones that fail, then
// sums what was produced.
func (s *RasterizeVector) Run(ctx context.Context, rc domain.RunContext) (any, error) {
	desc, err := s.describe(ctx, rc)
	if err != nil {
		return nil, err
	}

	// Two steps per layer plus the final sum.
	steps := 2*len(s.layers) + 1
	progress := rc.Progress()

	var rasters []string
	for i, ref := range s.layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := s.rasterizeOne(ctx, rc, ref, *desc, 2*i, steps)
		if err != nil {
			s.env.Logger.Warn(fmt.Sprintf("skipping layer %s: %v", ref, err))
			continue
		}
		rasters = append(rasters, path)
	}
	if len(rasters) == 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrAlgorithmFailed, "no layer could be rasterized"),
			"stage", domain.StageRasterizeVector)
	}

	out, err := s.env.runAlgorithm(ctx, "native:rastercalc", map[string]any{
		"LAYERS":     rasters,
		"EXPRESSION": sumOf(rasters),
		"EXTENT":     desc.Extent.Format(desc.CRS),
		"CRS":        desc.CRS,
		"OUTPUT":     s.env.outputPath(s.output, rasterExt),
	}, "OUTPUT", scaled(progress, steps-1, steps))
	if err != nil {
		return nil, err
	}

	h, err := s.env.register(s.output, out, domain.LayerRaster, desc.CRS)
	if err != nil {
		return nil, err
	}
	h.Raster = desc
	return h, nil
}

func (s *RasterizeVector) rasterizeOne(
	ctx context.Context,
	rc domain.RunContext,
	ref string,
	desc domain.RasterDescriptor,
	step, steps int,
) (string, error) {
	h, err := s.env.resolveLayer(rc, ref)
	if err != nil {
		return "", err
	}
	name := s.output + "_" + sanitize(h.Name)

	reprojected, err := s.env.runAlgorithm(ctx, "native:reprojectlayer", map[string]any{
		"INPUT":      h.Path,
		"TARGET_CRS": desc.CRS,
		"OUTPUT":     s.env.outputPath(name+"_reprojected", vectorExt),
	}, "OUTPUT", scaled(rc.Progress(), step, steps))
	if err != nil {
		return "", err
	}

	return s.env.runAlgorithm(ctx, "gdal:rasterize", map[string]any{
		"INPUT":     reprojected,
		"BURN":      s.burn,
		"UNITS":     unitsPixels,
		"WIDTH":     desc.Width,
		"HEIGHT":    desc.Height,
		"EXTENT":    desc.Extent.Format(desc.CRS),
		"INIT":      0,
		"DATA_TYPE": dataFloat32,
		"OUTPUT":    s.env.outputPath(name, rasterExt),
	}, "OUTPUT", scaled(rc.Progress(), step+1, steps))
}

// describe returns the grid every layer is burned onto.
func (s *RasterizeVector) describe(ctx context.Context, rc domain.RunContext) (*domain.RasterDescriptor, error) {
	if s.descriptor != nil {
		return s.descriptor, nil
	}

	path := s.env.abs(s.reference)
	if h, err := s.env.resolveLayer(rc, s.reference); err == nil {
		if h.Raster != nil {
			return h.Raster, nil
		}
		path = h.Path
	}

	res, err := s.env.Engine.Run(ctx, "native:rasterlayerproperties", map[string]any{
		"INPUT": path,
		"BAND":  1,
	}, nil)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "describe reference raster"), "reference", s.reference)
	}

	desc := &domain.RasterDescriptor{
		Width:  intOutput(res, "WIDTH_IN_PIXELS"),
		Height: intOutput(res, "HEIGHT_IN_PIXELS"),
		Extent: domain.Extent{
			MinX: floatOutput(res, "X_MIN"),
			MinY: floatOutput(res, "Y_MIN"),
			MaxX: floatOutput(res, "X_MAX"),
			MaxY: floatOutput(res, "Y_MAX"),
		},
		CRS: stringOutput(res, "CRS_AUTHID"),
	}
	if desc.CRS == "" {
		desc.CRS = s.env.CRS
	}
	if err := desc.Validate(); err != nil {
		return nil, zerr.With(err, "reference", s.reference)
	}
	return desc, nil
}

// sumOf builds a raster calculator expression adding band 1 of every raster.
func sumOf(rasters []string) string {
	terms := make([]string, len(rasters))
	for i, r := range rasters {
		name := strings.TrimSuffix(filepath.Base(r), filepath.Ext(r))
		terms[i] = strconv.Quote(name + "@1")
	}
	return strings.Join(terms, sumExpression)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func floatOutput(res domain.ProcessingResult, key string) float64 {
	switch v := res.Outputs[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

func intOutput(res domain.ProcessingResult, key string) int {
	return int(floatOutput(res, key))
}

func stringOutput(res domain.ProcessingResult, key string) string {
	s, _ := res.Outputs[key].(string)
	return s
}
