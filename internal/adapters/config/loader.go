// Package config loads pipeline files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/zerr"
)

// SupportedVersion is the pipeline file version this loader understands.
const SupportedVersion = "1"

// DefaultFileNames are searched, in order, when Load is given a directory.
var DefaultFileNames = []string{"pipeline.yaml", "pipeline.yml", "pipeline.hcl"}

// Loader implements ports.ConfigLoader for YAML and HCL pipeline files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the pipeline at path. A directory is searched for one of the
// DefaultFileNames, walking up towards the filesystem root.
func (l *Loader) Load(path string) (*domain.Pipeline, error) {
	configPath, err := findConfiguration(path)
	if err != nil {
		return nil, err
	}

	var (
		header Pipelinefile
		stages []StageDTO
	)
	switch ext := strings.ToLower(filepath.Ext(configPath)); ext {
	case ".yaml", ".yml":
		header, stages, err = decodeYAML(configPath)
	case ".hcl":
		header, stages, err = decodeHCL(configPath)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedFormat, "cannot load pipeline"), "path", configPath)
	}
	if err != nil {
		return nil, err
	}

	if header.Version != "" && header.Version != SupportedVersion {
		l.Logger.Warn(fmt.Sprintf("pipeline version %q is not %q; loading anyway", header.Version, SupportedVersion))
	}

	p := &domain.Pipeline{
		Root:        resolveRoot(configPath, header.Root),
		Version:     header.Version,
		Concurrency: header.Concurrency,
		CRS:         header.CRS,
		Stages:      make([]domain.StageSpec, 0, len(stages)),
	}
	if header.Output != "" {
		p.OutputDir = resolvePath(p.Root, header.Output)
	}

	for i := range stages {
		spec, err := stages[i].toSpec()
		if err != nil {
			return nil, zerr.With(err, "path", configPath)
		}
		p.Stages = append(p.Stages, spec)
	}
	return p, nil
}

func findConfiguration(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, err.Error()), "path", path)
	}
	if !info.IsDir() {
		return path, nil
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, err.Error()), "path", path)
	}
	for {
		for _, name := range DefaultFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no pipeline file in directory tree"), "cwd", path)
}

func (dto *StageDTO) toSpec() (domain.StageSpec, error) {
	if dto.ID == "" {
		return domain.StageSpec{}, zerr.Wrap(domain.ErrInvalidConfiguration, "stage id is empty")
	}
	if dto.Type == "" {
		return domain.StageSpec{}, zerr.With(zerr.Wrap(domain.ErrInvalidConfiguration, "stage type is empty"),
			"stage", dto.ID)
	}

	input := dto.Input
	if dto.Type == domain.StageClipMosaic && dto.Raster != "" {
		input = dto.Raster
	}

	grid, err := dto.grid()
	if err != nil {
		return domain.StageSpec{}, err
	}

	return domain.StageSpec{
		ID:          dto.ID,
		Type:        dto.Type,
		Description: dto.Description,
		DependsOn:   dto.DependsOn,
		StartsAfter: dto.StartsAfter,
		Persist:     dto.Persist,
		Path:        dto.Path,
		Layer:       dto.Layer,
		Layers:      dto.Layers,
		Inputs:      dto.Inputs,
		Input:       input,
		Overlay:     dto.Overlay,
		Mask:        dto.Mask,
		Reference:   dto.Reference,
		Output:      dto.Output,
		CRS:         dto.CRS,
		Burn:        dto.Burn,
		MinSlope:    dto.MinSlope,
		Method:      dto.Method,
		Grid:        grid,
	}, nil
}

func (dto *StageDTO) grid() (*domain.RasterDescriptor, error) {
	if dto.Width == 0 && dto.Height == 0 && len(dto.Extent) == 0 {
		return nil, nil
	}
	if len(dto.Extent) != 4 {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidConfiguration, "extent needs xmin, ymin, xmax, ymax"),
			"stage", dto.ID), "extent", dto.Extent)
	}
	return &domain.RasterDescriptor{
		Width:  dto.Width,
		Height: dto.Height,
		Extent: domain.Extent{MinX: dto.Extent[0], MinY: dto.Extent[1], MaxX: dto.Extent[2], MaxY: dto.Extent[3]},
		CRS:    dto.CRS,
	}, nil
}

// resolveRoot returns the absolute root: the file's directory, or root
// interpreted relative to it.
func resolveRoot(configPath, root string) string {
	dir := filepath.Dir(configPath)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return resolvePath(dir, root)
}

func resolvePath(base, path string) string {
	if path == "" {
		return base
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
