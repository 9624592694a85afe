package config

// Pipelinefile is the top level of a pipeline file. YAML files declare
// stages as a mapping keyed by id; HCL files use labelled stage blocks.
type Pipelinefile struct {
	Version     string `yaml:"version"     hcl:"version,optional"`
	Root        string `yaml:"root"        hcl:"root,optional"`
	Concurrency int    `yaml:"concurrency" hcl:"concurrency,optional"`
	Output      string `yaml:"output"      hcl:"output,optional"`
	CRS         string `yaml:"crs"         hcl:"crs,optional"`
}

// StageDTO represents a stage definition in the configuration.
type StageDTO struct {
	ID          string   `yaml:"-"           hcl:"id,label"`
	Type        string   `yaml:"type"        hcl:"type"`
	Description string   `yaml:"description" hcl:"description,optional"`
	DependsOn   []string `yaml:"dependsOn"   hcl:"depends_on,optional"`
	StartsAfter []string `yaml:"startsAfter" hcl:"starts_after,optional"`
	Persist     bool     `yaml:"persist"     hcl:"persist,optional"`

	Path      string   `yaml:"path"      hcl:"path,optional"`
	Layer     string   `yaml:"layer"     hcl:"layer,optional"`
	Layers    []string `yaml:"layers"    hcl:"layers,optional"`
	Inputs    []string `yaml:"inputs"    hcl:"inputs,optional"`
	Input     string   `yaml:"input"     hcl:"input,optional"`
	Raster    string   `yaml:"raster"    hcl:"raster,optional"`
	Overlay   string   `yaml:"overlay"   hcl:"overlay,optional"`
	Mask      string   `yaml:"mask"      hcl:"mask,optional"`
	Reference string   `yaml:"reference" hcl:"reference,optional"`
	Output    string   `yaml:"output"    hcl:"output,optional"`
	CRS       string   `yaml:"crs"       hcl:"crs,optional"`
	Burn      float64  `yaml:"burn"      hcl:"burn,optional"`
	MinSlope  float64  `yaml:"minSlope"  hcl:"min_slope,optional"`
	Method    int      `yaml:"method"    hcl:"method,optional"`

	// Width, Height and Extent fix the rasterization grid instead of a
	// reference raster. Extent is xmin, ymin, xmax, ymax.
	Width  int       `yaml:"width"  hcl:"width,optional"`
	Height int       `yaml:"height" hcl:"height,optional"`
	Extent []float64 `yaml:"extent" hcl:"extent,optional"`
}
