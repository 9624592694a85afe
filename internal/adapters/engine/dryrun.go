package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/zerr"
)

// OutputKeys are the parameter names stages use for output paths.
var OutputKeys = []string{"OUTPUT", "FILLED", "FLOW"}

const dryRunSteps = 4

var _ ports.ProcessingEngine = (*DryRun)(nil)

// DryRun rehearses a pipeline without a processing engine: every algorithm
// creates empty output files and reports its parameters.
type DryRun struct {
	// Delay is slept between progress steps.
	Delay time.Duration
	// Reference is returned for raster property queries.
	Reference domain.RasterDescriptor
}

// NewDryRun creates a DryRun engine with a unit reference grid.
func NewDryRun() *DryRun {
	return &DryRun{
		Reference: domain.RasterDescriptor{
			Width:  100,
			Height: 100,
			Extent: domain.Extent{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		},
	}
}

// Run simulates algorithm.
func (d *DryRun) Run(
	ctx context.Context, algorithm string, params map[string]any, progress ports.ProgressFunc,
) (domain.ProcessingResult, error) {
	if span := ports.SpanFromContext(ctx); span != nil {
		_, _ = fmt.Fprintf(span, "dry-run %s %v\n", algorithm, encodeParams(params))
	}

	for step := 1; step <= dryRunSteps; step++ {
		if d.Delay > 0 {
			select {
			case <-ctx.Done():
				return domain.ProcessingResult{}, ctx.Err()
			case <-time.After(d.Delay):
			}
		} else if err := ctx.Err(); err != nil {
			return domain.ProcessingResult{}, err
		}
		if progress != nil {
			progress(float64(step * 100 / dryRunSteps))
		}
	}

	if algorithm == "native:rasterlayerproperties" {
		return d.properties(params), nil
	}

	outputs := make(map[string]any)
	for _, key := range OutputKeys {
		path, ok := params[key].(string)
		if !ok || path == "" {
			continue
		}
		if err := touch(path); err != nil {
			return domain.ProcessingResult{}, zerr.With(zerr.With(
				zerr.Wrap(domain.ErrAlgorithmFailed, err.Error()), "algorithm", algorithm), "path", path)
		}
		outputs[key] = path
	}
	return domain.ProcessingResult{Outputs: outputs}, nil
}

func (d *DryRun) properties(params map[string]any) domain.ProcessingResult {
	crs := d.Reference.CRS
	if crs == "" {
		crs, _ = params["CRS"].(string)
	}
	return domain.ProcessingResult{Outputs: map[string]any{
		"WIDTH_IN_PIXELS":  float64(d.Reference.Width),
		"HEIGHT_IN_PIXELS": float64(d.Reference.Height),
		"X_MIN":            d.Reference.Extent.MinX,
		"X_MAX":            d.Reference.Extent.MaxX,
		"Y_MIN":            d.Reference.Extent.MinY,
		"Y_MAX":            d.Reference.Extent.MaxY,
		"CRS_AUTHID":       crs,
	}}
}

func touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return err
	}
	return f.Close()
}
