package domain

// Stage type names accepted in pipeline files.
const (
	StageLoadLayer       = "load-layer"
	StageMergeLayers     = "merge-layers"
	StageFindTouching    = "find-touching"
	StageRasterizeVector = "rasterize-vector"
	StageBuildMosaic     = "build-mosaic"
	StageClipMosaic      = "clip-mosaic"
	StageFillDepressions = "fill-depressions"
	StageAccumulateFlow  = "accumulate-flow"
)

// Pipeline is a loaded pipeline definition.
type Pipeline struct {
	Root        string
	Version     string
	Concurrency int
	OutputDir   string
	CRS         string
	Stages      []StageSpec
}

// StageSpec is the declaration of one stage. Fields that a stage type does not
// use are left empty.
type StageSpec struct {
	ID          string
	Type        string
	Description string
	DependsOn   []string
	StartsAfter []string
	Persist     bool

	Path      string
	Layer     string
	Layers    []string
	Inputs    []string
	Input     string
	Overlay   string
	Mask      string
	Reference string
	Output    string
	CRS       string
	Burn      float64
	MinSlope  float64
	Method    int
	// Grid is an explicit rasterization grid; nil means use Reference.
	Grid *RasterDescriptor
}

// Dependencies returns the declared edges, completion edges first.
func (s StageSpec) Dependencies() []Dependency {
	deps := make([]Dependency, 0, len(s.DependsOn)+len(s.StartsAfter))
	for _, d := range s.DependsOn {
		deps = append(deps, OnCompletion(d))
	}
	for _, d := range s.StartsAfter {
		deps = append(deps, OnStart(d))
	}
	return deps
}

// References returns the fields that may name another stage's output.
func (s StageSpec) References() []string {
	refs := make([]string, 0, len(s.Layers)+len(s.Inputs)+4)
	refs = append(refs, s.Layers...)
	refs = append(refs, s.Inputs...)
	for _, r := range []string{s.Input, s.Overlay, s.Mask, s.Reference} {
		if r != "" {
			refs = append(refs, r)
		}
	}
	return refs
}
