package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

// LayerKind separates vector layers from rasters.
type LayerKind uint8

const (
	// LayerVector is a feature layer.
	LayerVector LayerKind = iota
	// LayerRaster is a gridded layer.
	LayerRaster
)

func (k LayerKind) String() string {
	if k == LayerRaster {
		return "raster"
	}
	return "vector"
}

// Extent is an axis-aligned bounding box in the units of its CRS.
type Extent struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width is the horizontal span of the extent.
func (e Extent) Width() float64 { return e.MaxX - e.MinX }

// Height is the vertical span of the extent.
func (e Extent) Height() float64 { return e.MaxY - e.MinY }

// Format renders the extent the way the processing engine expects it:
// "xmin,xmax,ymin,ymax [crs]".
func (e Extent) Format(crs string) string {
	s := fmt.Sprintf("%g,%g,%g,%g", e.MinX, e.MaxX, e.MinY, e.MaxY)
	if crs != "" {
		s += " [" + crs + "]"
	}
	return s
}

// RasterDescriptor describes the grid of a raster.
type RasterDescriptor struct {
	Width  int
	Height int
	Extent Extent
	CRS    string
}

// Validate checks that the descriptor can serve as a rasterization reference.
func (d RasterDescriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return zerr.With(zerr.With(zerr.Wrap(ErrInvalidConfiguration, "raster size must be positive"),
			"width", d.Width), "height", d.Height)
	}
	if d.Extent.Width() <= 0 || d.Extent.Height() <= 0 {
		return zerr.With(zerr.Wrap(ErrInvalidConfiguration, "raster extent is empty"),
			"extent", d.Extent.Format(d.CRS))
	}
	return nil
}

// LayerHandle references a layer held by the layer store. Handles are plain
// values so they can be passed between tasks as payloads.
type LayerHandle struct {
	Name        string
	Path        string
	Kind        LayerKind
	CRS         string
	Fingerprint string
	Raster      *RasterDescriptor
}

// ProcessingResult holds the named outputs returned by the processing engine.
type ProcessingResult struct {
	Outputs map[string]any
}

// OutputPath returns the output registered under key when it is a string.
func (r ProcessingResult) OutputPath(key string) (string, bool) {
	v, ok := r.Outputs[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
