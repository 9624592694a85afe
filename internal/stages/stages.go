// Package stages implements the pipeline stage variants. Each stage validates
// its configuration when constructed and runs through the processing engine
// when scheduled.
package stages

import (
	"context"
	"path/filepath"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/zerr"
)

// Env is what stages need from the outside world for one execution.
type Env struct {
	Engine   ports.ProcessingEngine
	Store    ports.LayerStore
	Resolver ports.InputResolver
	Logger   ports.Logger
	// Root is the directory relative input paths are resolved against.
	Root string
	// WorkDir receives every intermediate and final output.
	WorkDir string
	// CRS is the target reference system when a stage does not set one.
	CRS string
}

const (
	vectorExt = ".gpkg"
	rasterExt = ".tif"
)

func (e *Env) outputPath(name, ext string) string {
	return filepath.Join(e.WorkDir, name+ext)
}

func (e *Env) abs(path string) string {
	if filepath.IsAbs(path) || e.Root == "" {
		return path
	}
	return filepath.Join(e.Root, path)
}

func invalid(stage, msg string) error {
	return zerr.With(zerr.Wrap(domain.ErrInvalidConfiguration, msg), "stage", stage)
}

// resolveLayer finds the layer ref points at: the payload of a completed task
// with that id, or a layer registered under that name.
func (e *Env) resolveLayer(rc domain.RunContext, ref string) (domain.LayerHandle, error) {
	if out, ok := rc.Output(domain.NewTaskID(ref)); ok {
		if h, ok := out.(domain.LayerHandle); ok {
			return h, nil
		}
	}
	h, err := e.Store.Get(ref)
	if err != nil {
		return domain.LayerHandle{}, zerr.With(zerr.Wrap(err, "resolve layer"), "layer", ref)
	}
	return h, nil
}

// resolveRaster is resolveLayer that also accepts a raster file path.
func (e *Env) resolveRaster(rc domain.RunContext, ref string) domain.LayerHandle {
	if h, err := e.resolveLayer(rc, ref); err == nil {
		return h
	}
	return domain.LayerHandle{Path: e.abs(ref), Kind: domain.LayerRaster, CRS: e.CRS}
}

// scaled maps engine progress of one step onto a share of the stage total.
func scaled(p domain.Progress, step, steps int) ports.ProgressFunc {
	return func(percent float64) {
		p.Report(int((float64(step) + percent/100) / float64(steps) * 100))
	}
}

// runAlgorithm invokes algorithm and returns the path of outputKey, falling
// back to the requested path when the engine does not echo it.
func (e *Env) runAlgorithm(
	ctx context.Context,
	algorithm string,
	params map[string]any,
	outputKey string,
	progress ports.ProgressFunc,
) (string, error) {
	res, err := e.Engine.Run(ctx, algorithm, params, progress)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "run "+algorithm), "algorithm", algorithm)
	}
	if path, ok := res.OutputPath(outputKey); ok {
		return path, nil
	}
	if path, ok := params[outputKey].(string); ok {
		return path, nil
	}
	return "", zerr.With(zerr.Wrap(domain.ErrAlgorithmFailed, "missing output "+outputKey), "algorithm", algorithm)
}

// register records a produced file in the store under name.
func (e *Env) register(name, path string, kind domain.LayerKind, crs string) (domain.LayerHandle, error) {
	return e.Store.Register(domain.LayerHandle{
		Name: name,
		Path: path,
		Kind: kind,
		CRS:  crs,
	})
}

func (e *Env) crs(override string) string {
	if override != "" {
		return override
	}
	return e.CRS
}
